package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

func key(name string, v domain.Vertical) domain.FeatureKey {
	return domain.FeatureKey{Name: name, Vertical: v}
}

func twoFeatureConfig() domain.ScoringConfig {
	cfg := domain.ScoringConfig{
		Verticals: []domain.Vertical{domain.VerticalRunning, domain.VerticalTennis},
		Features: []domain.FeatureSpec{
			{Name: domain.FeatureFreq4M, Class: domain.ClassFrequency, Weight: 0.6},
			{Name: domain.FeatureMonetary4M, Class: domain.ClassMonetary, Weight: 0.4},
		},
		RecencyFillDays: 9999,
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func normalizedTable(t *testing.T, cfg domain.ScoringConfig, members []domain.MemberID) *domain.FeatureTable {
	t.Helper()
	table := domain.NewFeatureTable(members, cfg.Keys())
	for _, m := range members {
		for _, k := range cfg.Keys() {
			if err := table.Set(m, k, 0); err != nil {
				t.Fatal(err)
			}
		}
	}
	return table
}

func TestScoreWeightedSum(t *testing.T) {
	cfg := twoFeatureConfig()
	table := normalizedTable(t, cfg, []domain.MemberID{"m1"})

	// running: 0.6*0.9 + 0.4*0.5 = 0.74; tennis: 0.6*0.1 + 0.4*0.2 = 0.14
	table.Set("m1", key(domain.FeatureFreq4M, domain.VerticalRunning), 0.9)
	table.Set("m1", key(domain.FeatureMonetary4M, domain.VerticalRunning), 0.5)
	table.Set("m1", key(domain.FeatureFreq4M, domain.VerticalTennis), 0.1)
	table.Set("m1", key(domain.FeatureMonetary4M, domain.VerticalTennis), 0.2)

	scored, err := NewScorer(cfg, zerolog.Nop()).Score(table)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	row := scored.Row("m1")
	if row == nil {
		t.Fatal("missing score row for m1")
	}
	if math.Abs(row.Scores[domain.VerticalRunning]-0.74) > 1e-12 {
		t.Errorf("running score = %v, want 0.74", row.Scores[domain.VerticalRunning])
	}
	if math.Abs(row.Scores[domain.VerticalTennis]-0.14) > 1e-12 {
		t.Errorf("tennis score = %v, want 0.14", row.Scores[domain.VerticalTennis])
	}
}

func TestScoreUsesOnlyOwnVerticalColumns(t *testing.T) {
	cfg := twoFeatureConfig()
	table := normalizedTable(t, cfg, []domain.MemberID{"m1"})

	// A strong tennis signal must not move the running score.
	table.Set("m1", key(domain.FeatureFreq4M, domain.VerticalTennis), 1.0)
	table.Set("m1", key(domain.FeatureMonetary4M, domain.VerticalTennis), 1.0)

	scored, err := NewScorer(cfg, zerolog.Nop()).Score(table)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := scored.Row("m1").Scores[domain.VerticalRunning]; got != 0 {
		t.Errorf("running score = %v, want 0", got)
	}
}

func TestScoreSkipsZeroWeightFeatures(t *testing.T) {
	cfg := twoFeatureConfig()
	cfg.Features = append(cfg.Features, domain.FeatureSpec{
		Name: domain.FeatureActivityCnt, Class: domain.ClassCount, Weight: 0,
	})

	table := normalizedTable(t, cfg, []domain.MemberID{"m1"})
	table.Set("m1", key(domain.FeatureActivityCnt, domain.VerticalRunning), 1.0)

	scored, err := NewScorer(cfg, zerolog.Nop()).Score(table)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := scored.Row("m1").Scores[domain.VerticalRunning]; got != 0 {
		t.Errorf("zero-weight feature contributed to score: %v", got)
	}
}

func TestValidateColumnsMissingConfiguredColumn(t *testing.T) {
	cfg := twoFeatureConfig()
	// Table lacks every monetary column.
	cols := []domain.FeatureKey{
		key(domain.FeatureFreq4M, domain.VerticalRunning),
		key(domain.FeatureFreq4M, domain.VerticalTennis),
	}
	table := domain.NewFeatureTable([]domain.MemberID{"m1"}, cols)

	err := NewScorer(cfg, zerolog.Nop()).ValidateColumns(table)
	if err == nil {
		t.Fatal("expected missing-column error")
	}
	if !strings.Contains(err.Error(), "absent from merged table") {
		t.Errorf("error = %v", err)
	}
}

func TestValidateColumnsUnknownTableColumn(t *testing.T) {
	cfg := twoFeatureConfig()
	cols := append(cfg.Keys(), key("surprise_feature", domain.VerticalRunning))
	table := domain.NewFeatureTable([]domain.MemberID{"m1"}, cols)

	err := NewScorer(cfg, zerolog.Nop()).ValidateColumns(table)
	if err == nil {
		t.Fatal("expected unknown-column error")
	}
	if !strings.Contains(err.Error(), "not present in the weight template") {
		t.Errorf("error = %v", err)
	}
}

func TestScoreRowsSortedByMember(t *testing.T) {
	cfg := twoFeatureConfig()
	table := normalizedTable(t, cfg, []domain.MemberID{"zz", "aa", "mm"})

	scored, err := NewScorer(cfg, zerolog.Nop()).Score(table)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i := 1; i < len(scored.Rows); i++ {
		if scored.Rows[i-1].Member >= scored.Rows[i].Member {
			t.Fatalf("rows not sorted by member id: %v then %v",
				scored.Rows[i-1].Member, scored.Rows[i].Member)
		}
	}
}
