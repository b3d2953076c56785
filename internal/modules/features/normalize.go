package features

import (
	"fmt"
	"math"

	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/pkg/formulas"
)

// NormalizeStats reports data-quality conditions observed while
// normalizing, for logging and metrics.
type NormalizeStats struct {
	ZeroVarianceColumns []string
}

// Normalize replaces every raw value with its average-rank percentile
// among the retained population, per column. Recency-class columns are
// inverted (score = 1 - rank) so that higher always means a stronger
// affinity signal. Ties share the average rank.
//
// A zero-variance column is well-defined under average ranking: every
// member gets the constant (n+1)/(2n). Such columns are recorded in the
// returned stats rather than failing the run.
//
// Ranks are relative to the current run's retained population. Scores from
// runs over different cohorts are not comparable.
func Normalize(t *domain.FeatureTable, cfg domain.ScoringConfig) (*domain.FeatureTable, NormalizeStats, error) {
	out := t.Clone()
	var stats NormalizeStats

	for _, k := range out.Columns() {
		class, ok := cfg.ClassOf(k.Name)
		if !ok {
			return nil, stats, fmt.Errorf("normalize: column %q has no configured feature class", k.Column())
		}

		values, err := out.ColumnValues(k)
		if err != nil {
			return nil, stats, err
		}
		for i, v := range values {
			if math.IsNaN(v) {
				return nil, stats, fmt.Errorf(
					"normalize: column %q row %d is missing; normalization requires an imputed table",
					k.Column(), i)
			}
		}

		if formulas.IsConstant(values) && len(values) > 1 {
			stats.ZeroVarianceColumns = append(stats.ZeroVarianceColumns, k.Column())
		}

		ranks := formulas.PercentileRanks(values)
		if class.Inverted() {
			for i := range ranks {
				ranks[i] = 1 - ranks[i]
			}
		}
		if err := out.SetColumnValues(k, ranks); err != nil {
			return nil, stats, err
		}
	}
	return out, stats, nil
}
