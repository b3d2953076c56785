// Package features implements the feature-engineering stages of the
// affinity pipeline: merging the per-family source tables, dropping
// members without touchpoints, imputing missing values, and percentile
// normalization. Every stage is a pure function of its input table plus
// the scoring configuration and produces a new table.
package features

import (
	"fmt"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

// MergeStats reports what the merge saw, for stage-boundary logging.
type MergeStats struct {
	RosterMembers    int
	DroppedNonRoster int
	RowsPerSource    map[string]int
}

// Merge outer-joins the source feature tables onto the member roster. The
// roster defines the eligible population: every roster member gets a row
// even when absent from all sources, and source rows for ids outside the
// roster are dropped (and counted). Cells a source never reported stay
// missing, so "observed zero" and "never observed" remain distinct until
// imputation.
//
// A duplicate member id in the roster or within a single source, or the
// same column declared by two sources, is a data-integrity error that
// aborts the run: a duplicated roster id would silently give that member
// two rows in every downstream table.
func Merge(roster []domain.MemberID, sources ...domain.SourceTable) (*domain.FeatureTable, MergeStats, error) {
	stats := MergeStats{
		RosterMembers: len(roster),
		RowsPerSource: make(map[string]int, len(sources)),
	}

	columns := make([]domain.FeatureKey, 0)
	colOwner := make(map[domain.FeatureKey]string)
	for _, src := range sources {
		for _, k := range src.Columns {
			if owner, dup := colOwner[k]; dup {
				return nil, stats, fmt.Errorf(
					"merge: column %q declared by both source %q and source %q",
					k.Column(), owner, src.Name)
			}
			colOwner[k] = src.Name
			columns = append(columns, k)
		}
	}

	inRoster := make(map[domain.MemberID]bool, len(roster))
	for _, m := range roster {
		if inRoster[m] {
			return nil, stats, fmt.Errorf("merge: duplicate member %q in roster", m)
		}
		inRoster[m] = true
	}
	table := domain.NewFeatureTable(roster, columns)

	for _, src := range sources {
		stats.RowsPerSource[src.Name] = len(src.Rows)
		seen := make(map[domain.MemberID]bool, len(src.Rows))
		for _, row := range src.Rows {
			if seen[row.Member] {
				return nil, stats, fmt.Errorf(
					"merge: duplicate member %q in source %q", row.Member, src.Name)
			}
			seen[row.Member] = true

			if !inRoster[row.Member] {
				stats.DroppedNonRoster++
				continue
			}
			for k, v := range row.Values {
				if colOwner[k] != src.Name {
					return nil, stats, fmt.Errorf(
						"merge: source %q reported undeclared column %q for member %q",
						src.Name, k.Column(), row.Member)
				}
				if err := table.Set(row.Member, k, v); err != nil {
					return nil, stats, fmt.Errorf("merge: source %q: %w", src.Name, err)
				}
			}
		}
	}

	return table, stats, nil
}
