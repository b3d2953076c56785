package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

func key(name string, v domain.Vertical) domain.FeatureKey {
	return domain.FeatureKey{Name: name, Vertical: v}
}

func coreConfig() domain.ScoringConfig {
	cfg := domain.ScoringConfig{
		Verticals: []domain.Vertical{domain.VerticalRunning, domain.VerticalTennis},
		Features: []domain.FeatureSpec{
			{Name: domain.FeatureRecency, Class: domain.ClassRecency, Weight: 0.3},
			{Name: domain.FeatureFreq4M, Class: domain.ClassFrequency, Weight: 0.5},
			{Name: domain.FeaturePDPViewCount, Class: domain.ClassCount, Weight: 0.2},
		},
		RecencyFillDays: 9999,
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// coreInputs builds a roster and sources where "runner" has strong running
// purchases, "tennisfan" browses tennis products, and "ghost" never shows up
// anywhere.
func coreInputs() ([]domain.MemberID, []domain.SourceTable) {
	roster := []domain.MemberID{"runner", "tennisfan", "ghost"}

	rfm := domain.SourceTable{
		Name: "rfm",
		Columns: []domain.FeatureKey{
			key(domain.FeatureRecency, domain.VerticalRunning),
			key(domain.FeatureRecency, domain.VerticalTennis),
			key(domain.FeatureFreq4M, domain.VerticalRunning),
			key(domain.FeatureFreq4M, domain.VerticalTennis),
		},
		Rows: []domain.SourceRow{
			{Member: "runner", Values: map[domain.FeatureKey]float64{
				key(domain.FeatureRecency, domain.VerticalRunning): 7,
				key(domain.FeatureFreq4M, domain.VerticalRunning):  4,
			}},
		},
	}

	digital := domain.SourceTable{
		Name: "digital",
		Columns: []domain.FeatureKey{
			key(domain.FeaturePDPViewCount, domain.VerticalRunning),
			key(domain.FeaturePDPViewCount, domain.VerticalTennis),
		},
		Rows: []domain.SourceRow{
			{Member: "tennisfan", Values: map[domain.FeatureKey]float64{
				key(domain.FeaturePDPViewCount, domain.VerticalTennis): 12,
			}},
			// Outside the roster, e.g. an excluded employee.
			{Member: "employee", Values: map[domain.FeatureKey]float64{
				key(domain.FeaturePDPViewCount, domain.VerticalRunning): 99,
			}},
		},
	}

	return roster, []domain.SourceTable{rfm, digital}
}

func TestRunCoreEndToEnd(t *testing.T) {
	roster, sources := coreInputs()
	res, err := runCore(coreConfig(), 0, roster, sources, zerolog.Nop())
	require.NoError(t, err)

	require.Equal(t, 3, res.mergeStats.RosterMembers)
	require.Equal(t, 1, res.mergeStats.DroppedNonRoster)
	require.Equal(t, 1, res.droppedNoTouchpoint, "ghost has no touchpoints")

	require.Len(t, res.scored.Rows, 2, "scored population should be the two retained members")

	runner := res.scored.Row("runner")
	require.NotNil(t, runner)
	require.Equal(t, domain.VerticalRunning, runner.Predicted)
	require.Greater(t, runner.Scores[domain.VerticalRunning], runner.Scores[domain.VerticalTennis])

	fan := res.scored.Row("tennisfan")
	require.NotNil(t, fan)
	require.Equal(t, domain.VerticalTennis, fan.Predicted)

	// Every normalized cell is a percentile in [0,1].
	for _, k := range res.normalized.Columns() {
		values, err := res.normalized.ColumnValues(k)
		require.NoError(t, err)
		for _, v := range values {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestRunCoreDeterministic(t *testing.T) {
	cfg := coreConfig()

	rosterA, sourcesA := coreInputs()
	resA, err := runCore(cfg, 0, rosterA, sourcesA, zerolog.Nop())
	require.NoError(t, err)

	rosterB, sourcesB := coreInputs()
	resB, err := runCore(cfg, 0, rosterB, sourcesB, zerolog.Nop())
	require.NoError(t, err)

	if !reflect.DeepEqual(resA.scored, resB.scored) {
		t.Errorf("identical inputs produced different score tables:\n%+v\nvs\n%+v",
			resA.scored, resB.scored)
	}
}

func TestRunCoreValidatesBeforeDownstream(t *testing.T) {
	roster, sources := coreInputs()
	// Drop one declared column so the merged table no longer matches the
	// weight template.
	sources[1].Columns = sources[1].Columns[:1]
	sources[1].Rows = sources[1].Rows[:0]

	_, err := runCore(coreConfig(), 0, roster, sources, zerolog.Nop())
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "config validation stage"), "err = %v", err)
}

func TestRunCoreEmptyPopulation(t *testing.T) {
	// A roster whose members all lack touchpoints still completes; the
	// scored table is just empty.
	roster := []domain.MemberID{"ghost1", "ghost2"}
	_, sources := coreInputs()
	sources[0].Rows = nil
	sources[1].Rows = nil

	res, err := runCore(coreConfig(), 0, roster, sources, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 2, res.droppedNoTouchpoint)
	require.Empty(t, res.scored.Rows)
}

func TestRunCoreScoreFloor(t *testing.T) {
	roster, sources := coreInputs()
	// A floor above any attainable score forces the sentinel everywhere.
	res, err := runCore(coreConfig(), 10, roster, sources, zerolog.Nop())
	require.NoError(t, err)

	for _, row := range res.scored.Rows {
		require.Equal(t, domain.NoInterest, row.Predicted, "member %s", row.Member)
	}
}
