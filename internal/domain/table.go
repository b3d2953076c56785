package domain

import (
	"fmt"
	"math"
	"sort"
)

// FeatureTable is a member-indexed numeric table. Cells are float64 with
// NaN marking a missing observation, so "observed zero" stays
// distinguishable from "never observed" until imputation.
//
// Members and columns are kept in sorted order so that every stage iterates
// deterministically. Tables are treated as immutable between stages: each
// stage clones or rebuilds rather than mutating its input.
type FeatureTable struct {
	members  []MemberID
	rowIndex map[MemberID]int
	columns  []FeatureKey
	colIndex map[FeatureKey]int
	cells    [][]float64
}

// NewFeatureTable creates a table with the given members and columns, all
// cells initialized to NaN. Member and column order is normalized to
// lexicographic regardless of input order.
func NewFeatureTable(members []MemberID, columns []FeatureKey) *FeatureTable {
	ms := make([]MemberID, len(members))
	copy(ms, members)
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })

	cols := make([]FeatureKey, len(columns))
	copy(cols, columns)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Column() < cols[j].Column() })

	t := &FeatureTable{
		members:  ms,
		rowIndex: make(map[MemberID]int, len(ms)),
		columns:  cols,
		colIndex: make(map[FeatureKey]int, len(cols)),
		cells:    make([][]float64, len(ms)),
	}
	for i, m := range ms {
		t.rowIndex[m] = i
		row := make([]float64, len(cols))
		for j := range row {
			row[j] = math.NaN()
		}
		t.cells[i] = row
	}
	for j, c := range cols {
		t.colIndex[c] = j
	}
	return t
}

// Members returns the member ids in row order. Callers must not modify the
// returned slice.
func (t *FeatureTable) Members() []MemberID { return t.members }

// Columns returns the column keys in column order. Callers must not modify
// the returned slice.
func (t *FeatureTable) Columns() []FeatureKey { return t.columns }

// NumRows returns the number of members.
func (t *FeatureTable) NumRows() int { return len(t.members) }

// NumColumns returns the number of feature columns.
func (t *FeatureTable) NumColumns() int { return len(t.columns) }

// HasMember reports whether the member has a row.
func (t *FeatureTable) HasMember(m MemberID) bool {
	_, ok := t.rowIndex[m]
	return ok
}

// HasColumn reports whether the column exists.
func (t *FeatureTable) HasColumn(k FeatureKey) bool {
	_, ok := t.colIndex[k]
	return ok
}

// Value returns the cell for (member, column). The second return is false
// when the member or column does not exist; a NaN value with ok=true means
// the observation is missing.
func (t *FeatureTable) Value(m MemberID, k FeatureKey) (float64, bool) {
	i, ok := t.rowIndex[m]
	if !ok {
		return 0, false
	}
	j, ok := t.colIndex[k]
	if !ok {
		return 0, false
	}
	return t.cells[i][j], true
}

// Set writes the cell for (member, column).
func (t *FeatureTable) Set(m MemberID, k FeatureKey, v float64) error {
	i, ok := t.rowIndex[m]
	if !ok {
		return fmt.Errorf("feature table: unknown member %q", m)
	}
	j, ok := t.colIndex[k]
	if !ok {
		return fmt.Errorf("feature table: unknown column %q", k.Column())
	}
	t.cells[i][j] = v
	return nil
}

// ColumnValues returns a copy of one column's values in member order.
func (t *FeatureTable) ColumnValues(k FeatureKey) ([]float64, error) {
	j, ok := t.colIndex[k]
	if !ok {
		return nil, fmt.Errorf("feature table: unknown column %q", k.Column())
	}
	out := make([]float64, len(t.members))
	for i := range t.members {
		out[i] = t.cells[i][j]
	}
	return out, nil
}

// SetColumnValues replaces one column's values, given in member order.
func (t *FeatureTable) SetColumnValues(k FeatureKey, values []float64) error {
	j, ok := t.colIndex[k]
	if !ok {
		return fmt.Errorf("feature table: unknown column %q", k.Column())
	}
	if len(values) != len(t.members) {
		return fmt.Errorf("feature table: column %q: got %d values for %d rows",
			k.Column(), len(values), len(t.members))
	}
	for i := range t.members {
		t.cells[i][j] = values[i]
	}
	return nil
}

// RowNonMissing returns how many cells in the member's row are observed
// (non-NaN).
func (t *FeatureTable) RowNonMissing(m MemberID) int {
	i, ok := t.rowIndex[m]
	if !ok {
		return 0
	}
	n := 0
	for _, v := range t.cells[i] {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// RowHasSignal reports whether the member has at least one observed,
// non-zero cell: the touchpoint criterion.
func (t *FeatureTable) RowHasSignal(m MemberID) bool {
	i, ok := t.rowIndex[m]
	if !ok {
		return false
	}
	for _, v := range t.cells[i] {
		if !math.IsNaN(v) && v != 0 {
			return true
		}
	}
	return false
}

// MissingCount returns the number of NaN cells in the table.
func (t *FeatureTable) MissingCount() int {
	n := 0
	for _, row := range t.cells {
		for _, v := range row {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of the table.
func (t *FeatureTable) Clone() *FeatureTable {
	out := NewFeatureTable(t.members, t.columns)
	for i, row := range t.cells {
		copy(out.cells[i], row)
	}
	return out
}

// SelectMembers returns a new table containing only the listed members,
// with the same columns and cell values. Unknown members are ignored.
func (t *FeatureTable) SelectMembers(members []MemberID) *FeatureTable {
	keep := make([]MemberID, 0, len(members))
	for _, m := range members {
		if t.HasMember(m) {
			keep = append(keep, m)
		}
	}
	out := NewFeatureTable(keep, t.columns)
	for _, m := range out.members {
		src := t.cells[t.rowIndex[m]]
		copy(out.cells[out.rowIndex[m]], src)
	}
	return out
}
