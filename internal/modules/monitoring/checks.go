package monitoring

import (
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/internal/modules/scoring"
	"github.com/crmdata/vertical-affinity/pkg/formulas"
)

// Monitor logs feature-distribution checks for one run.
type Monitor struct {
	log zerolog.Logger
}

// NewMonitor creates a monitor.
func NewMonitor(log zerolog.Logger) *Monitor {
	return &Monitor{log: log.With().Str("component", "monitoring").Logger()}
}

// RunChecks logs the distribution summaries used to spot drift between
// runs: population counts, touchpoint coverage, the histogram of observed
// feature counts per member, per-column summaries of the normalized table,
// and the predicted-vertical distribution.
func (m *Monitor) RunChecks(
	rosterSize int,
	merged *domain.FeatureTable,
	normalized *domain.FeatureTable,
	scored *scoring.ScoreTable,
) {
	retained := normalized.NumRows()
	pct := 0.0
	if rosterSize > 0 {
		pct = float64(retained) / float64(rosterSize) * 100
	}
	m.log.Info().
		Int("roster_members", rosterSize).
		Int("members_with_touchpoints", retained).
		Float64("touchpoint_pct", pct).
		Msg("Population check")

	m.logValidFeatureHistogram(merged)
	m.logColumnSummaries(normalized)
	m.logPredictedDistribution(scored)
}

// logValidFeatureHistogram logs how many members have each count of
// observed (non-missing) feature columns in the merged table. A shift in
// this histogram usually means a source table went partially empty.
func (m *Monitor) logValidFeatureHistogram(merged *domain.FeatureTable) {
	hist := make(map[int]int)
	for _, member := range merged.Members() {
		hist[merged.RowNonMissing(member)]++
	}
	counts := make([]int, 0, len(hist))
	for c := range hist {
		counts = append(counts, c)
	}
	sort.Ints(counts)

	dict := zerolog.Dict()
	for _, c := range counts {
		dict.Int(strconv.Itoa(c), hist[c])
	}
	m.log.Info().Dict("members_by_observed_columns", dict).Msg("Valid feature count distribution")
}

func (m *Monitor) logColumnSummaries(normalized *domain.FeatureTable) {
	for _, k := range normalized.Columns() {
		values, err := normalized.ColumnValues(k)
		if err != nil {
			continue
		}
		d := formulas.DescribeValues(values)
		m.log.Debug().
			Str("column", k.Column()).
			Int("count", d.Count).
			Float64("mean", d.Mean).
			Float64("std", d.StdDev).
			Float64("min", d.Min).
			Float64("p50", d.P50).
			Float64("max", d.Max).
			Msg("Normalized column summary")
	}
}

func (m *Monitor) logPredictedDistribution(scored *scoring.ScoreTable) {
	counts := scored.PredictedCounts()
	total := len(scored.Rows)

	verticals := make([]domain.Vertical, 0, len(counts))
	for v := range counts {
		verticals = append(verticals, v)
	}
	domain.SortVerticals(verticals)

	dict := zerolog.Dict()
	for _, v := range verticals {
		dict.Int(string(v), counts[v])
	}
	m.log.Info().
		Int("members", total).
		Dict("predicted", dict).
		Msg("Predicted vertical distribution")
}
