package features

import (
	"testing"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

func TestFilterTouchpoints(t *testing.T) {
	cols := []domain.FeatureKey{
		key(domain.FeatureFreq4M, domain.VerticalRunning),
		key(domain.FeaturePDPViewCount, domain.VerticalRunning),
	}
	table := domain.NewFeatureTable([]domain.MemberID{"active", "zeros", "empty"}, cols)

	// One real observation anywhere keeps the member.
	table.Set("active", cols[1], 1)
	// Observed zeros across the board are not a touchpoint.
	table.Set("zeros", cols[0], 0)
	table.Set("zeros", cols[1], 0)
	// "empty" never appears in any source.

	filtered, dropped := FilterTouchpoints(table)

	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
	if filtered.NumRows() != 1 || !filtered.HasMember("active") {
		t.Errorf("retained members = %v, want [active]", filtered.Members())
	}
	// Original table is untouched.
	if table.NumRows() != 3 {
		t.Error("filter mutated its input")
	}
}

func TestFilterTouchpointsEmptyResult(t *testing.T) {
	cols := []domain.FeatureKey{key(domain.FeatureFreq4M, domain.VerticalRunning)}
	table := domain.NewFeatureTable([]domain.MemberID{"a", "b"}, cols)

	filtered, dropped := FilterTouchpoints(table)
	if filtered.NumRows() != 0 || dropped != 2 {
		t.Errorf("got rows=%d dropped=%d, want 0/2", filtered.NumRows(), dropped)
	}
}
