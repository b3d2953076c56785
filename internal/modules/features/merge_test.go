package features

import (
	"math"
	"strings"
	"testing"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

func key(name string, v domain.Vertical) domain.FeatureKey {
	return domain.FeatureKey{Name: name, Vertical: v}
}

// testConfig is a two-vertical, two-feature configuration small enough to
// reason about by hand.
func testConfig() domain.ScoringConfig {
	cfg := domain.ScoringConfig{
		Verticals: []domain.Vertical{domain.VerticalRunning, domain.VerticalTennis},
		Features: []domain.FeatureSpec{
			{Name: domain.FeatureRecency, Class: domain.ClassRecency, Weight: 0.5},
			{Name: domain.FeatureFreq4M, Class: domain.ClassFrequency, Weight: 0.5},
		},
		RecencyFillDays: 9999,
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func rfmSource(rows ...domain.SourceRow) domain.SourceTable {
	return domain.SourceTable{
		Name: "rfm",
		Columns: []domain.FeatureKey{
			key(domain.FeatureRecency, domain.VerticalRunning),
			key(domain.FeatureRecency, domain.VerticalTennis),
			key(domain.FeatureFreq4M, domain.VerticalRunning),
			key(domain.FeatureFreq4M, domain.VerticalTennis),
		},
		Rows: rows,
	}
}

func digitalSource(rows ...domain.SourceRow) domain.SourceTable {
	return domain.SourceTable{
		Name: "digital",
		Columns: []domain.FeatureKey{
			key(domain.FeaturePDPViewCount, domain.VerticalRunning),
			key(domain.FeaturePDPViewCount, domain.VerticalTennis),
		},
		Rows: rows,
	}
}

func TestMergeOuterJoin(t *testing.T) {
	roster := []domain.MemberID{"m1", "m2", "m3"}

	// m1 appears in both sources, m2 only in rfm, m3 in neither.
	rfm := rfmSource(
		domain.SourceRow{Member: "m1", Values: map[domain.FeatureKey]float64{
			key(domain.FeatureRecency, domain.VerticalRunning): 12,
			key(domain.FeatureFreq4M, domain.VerticalRunning):  3,
		}},
		domain.SourceRow{Member: "m2", Values: map[domain.FeatureKey]float64{
			key(domain.FeatureFreq4M, domain.VerticalTennis): 1,
		}},
	)
	digital := digitalSource(
		domain.SourceRow{Member: "m1", Values: map[domain.FeatureKey]float64{
			key(domain.FeaturePDPViewCount, domain.VerticalRunning): 5,
		}},
	)

	table, stats, err := Merge(roster, rfm, digital)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if table.NumRows() != 3 {
		t.Errorf("NumRows = %d, want 3 (roster defines the population)", table.NumRows())
	}
	if table.NumColumns() != 6 {
		t.Errorf("NumColumns = %d, want 6", table.NumColumns())
	}
	if stats.RosterMembers != 3 || stats.DroppedNonRoster != 0 {
		t.Errorf("stats = %+v", stats)
	}

	// Reported cells carry their values.
	if v, _ := table.Value("m1", key(domain.FeatureRecency, domain.VerticalRunning)); v != 12 {
		t.Errorf("m1 recency = %v, want 12", v)
	}
	if v, _ := table.Value("m2", key(domain.FeatureFreq4M, domain.VerticalTennis)); v != 1 {
		t.Errorf("m2 freq = %v, want 1", v)
	}

	// A member absent from a source stays missing there, not zero.
	if v, _ := table.Value("m2", key(domain.FeaturePDPViewCount, domain.VerticalRunning)); !math.IsNaN(v) {
		t.Errorf("m2 digital cell = %v, want NaN", v)
	}
	// A fully-absent roster member still has a row, all missing.
	if table.RowNonMissing("m3") != 0 {
		t.Error("m3 should have an all-missing row")
	}
}

func TestMergeRFMOnlyMemberSurvives(t *testing.T) {
	// A member with purchase history but zero digital engagement must reach
	// scoring with a complete row after imputation.
	roster := []domain.MemberID{"buyer"}
	rfm := rfmSource(domain.SourceRow{Member: "buyer", Values: map[domain.FeatureKey]float64{
		key(domain.FeatureRecency, domain.VerticalRunning): 30,
		key(domain.FeatureFreq4M, domain.VerticalRunning):  2,
	}})

	table, _, err := Merge(roster, rfm, digitalSource())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !table.RowHasSignal("buyer") {
		t.Fatal("buyer should pass the touchpoint filter")
	}

	filtered, dropped := FilterTouchpoints(table)
	if dropped != 0 || filtered.NumRows() != 1 {
		t.Fatalf("filter dropped the RFM-only member: dropped=%d rows=%d", dropped, filtered.NumRows())
	}
}

func TestMergeDropsNonRosterRows(t *testing.T) {
	roster := []domain.MemberID{"m1"}
	rfm := rfmSource(
		domain.SourceRow{Member: "m1", Values: map[domain.FeatureKey]float64{
			key(domain.FeatureFreq4M, domain.VerticalRunning): 1,
		}},
		domain.SourceRow{Member: "employee-1", Values: map[domain.FeatureKey]float64{
			key(domain.FeatureFreq4M, domain.VerticalRunning): 9,
		}},
	)

	table, stats, err := Merge(roster, rfm)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.DroppedNonRoster != 1 {
		t.Errorf("DroppedNonRoster = %d, want 1", stats.DroppedNonRoster)
	}
	if table.HasMember("employee-1") {
		t.Error("non-roster member leaked into merged table")
	}
}

func TestMergeDuplicateMemberFails(t *testing.T) {
	roster := []domain.MemberID{"m1"}
	rfm := rfmSource(
		domain.SourceRow{Member: "m1", Values: map[domain.FeatureKey]float64{}},
		domain.SourceRow{Member: "m1", Values: map[domain.FeatureKey]float64{}},
	)

	_, _, err := Merge(roster, rfm)
	if err == nil {
		t.Fatal("expected duplicate member error")
	}
	if !strings.Contains(err.Error(), "duplicate member") {
		t.Errorf("error = %v, want duplicate member", err)
	}
}

func TestMergeDuplicateRosterMemberFails(t *testing.T) {
	roster := []domain.MemberID{"m1", "m2", "m1"}

	_, _, err := Merge(roster, rfmSource())
	if err == nil {
		t.Fatal("expected duplicate roster member error")
	}
	if !strings.Contains(err.Error(), "duplicate member") || !strings.Contains(err.Error(), "roster") {
		t.Errorf("error = %v, want duplicate roster member", err)
	}
}

func TestMergeDuplicateColumnFails(t *testing.T) {
	shared := []domain.FeatureKey{key(domain.FeatureFreq4M, domain.VerticalRunning)}
	a := domain.SourceTable{Name: "a", Columns: shared}
	b := domain.SourceTable{Name: "b", Columns: shared}

	_, _, err := Merge([]domain.MemberID{"m1"}, a, b)
	if err == nil {
		t.Fatal("expected duplicate column error")
	}
	if !strings.Contains(err.Error(), "declared by both") {
		t.Errorf("error = %v, want duplicate column", err)
	}
}

func TestMergeUndeclaredColumnFails(t *testing.T) {
	src := domain.SourceTable{
		Name:    "rfm",
		Columns: []domain.FeatureKey{key(domain.FeatureFreq4M, domain.VerticalRunning)},
		Rows: []domain.SourceRow{{
			Member: "m1",
			Values: map[domain.FeatureKey]float64{
				key(domain.FeatureMonetary4M, domain.VerticalRunning): 100,
			},
		}},
	}

	_, _, err := Merge([]domain.MemberID{"m1"}, src)
	if err == nil {
		t.Fatal("expected undeclared column error")
	}
}
