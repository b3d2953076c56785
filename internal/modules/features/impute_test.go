package features

import (
	"math"
	"testing"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

func TestImputeFillsByClass(t *testing.T) {
	cfg := testConfig()
	recency := key(domain.FeatureRecency, domain.VerticalRunning)
	freq := key(domain.FeatureFreq4M, domain.VerticalRunning)

	table := domain.NewFeatureTable([]domain.MemberID{"m1", "m2"}, []domain.FeatureKey{recency, freq})
	table.Set("m1", recency, 14)
	table.Set("m1", freq, 2)
	// m2 is entirely missing.

	out, err := Impute(table, cfg)
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}

	// Observed values pass through unchanged.
	if v, _ := out.Value("m1", recency); v != 14 {
		t.Errorf("m1 recency = %v, want 14", v)
	}
	// Missing recency gets the "effectively never" sentinel.
	if v, _ := out.Value("m2", recency); v != cfg.RecencyFillDays {
		t.Errorf("m2 recency = %v, want %v", v, cfg.RecencyFillDays)
	}
	// Missing counts get zero.
	if v, _ := out.Value("m2", freq); v != 0 {
		t.Errorf("m2 freq = %v, want 0", v)
	}
	if out.MissingCount() != 0 {
		t.Errorf("MissingCount = %d after imputation", out.MissingCount())
	}

	// Input table keeps its NaNs.
	if v, _ := table.Value("m2", recency); !math.IsNaN(v) {
		t.Error("impute mutated its input")
	}
}

func TestImputeIdempotent(t *testing.T) {
	cfg := testConfig()
	recency := key(domain.FeatureRecency, domain.VerticalTennis)
	table := domain.NewFeatureTable([]domain.MemberID{"m1"}, []domain.FeatureKey{recency})

	once, err := Impute(table, cfg)
	if err != nil {
		t.Fatalf("first impute: %v", err)
	}
	twice, err := Impute(once, cfg)
	if err != nil {
		t.Fatalf("second impute: %v", err)
	}

	a, _ := once.Value("m1", recency)
	b, _ := twice.Value("m1", recency)
	if a != b {
		t.Errorf("second imputation changed %v to %v", a, b)
	}
}

func TestImputeUnknownFeatureFails(t *testing.T) {
	cfg := testConfig()
	table := domain.NewFeatureTable(
		[]domain.MemberID{"m1"},
		[]domain.FeatureKey{key("mystery_feature", domain.VerticalRunning)},
	)

	if _, err := Impute(table, cfg); err == nil {
		t.Fatal("expected error for column without a configured class")
	}
}
