package features

import (
	"fmt"
	"math"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

// Impute returns a new table with every missing cell filled according to
// the feature's semantic class: recency-class columns get the configured
// "effectively never" sentinel so inversion ranks them at the bottom, and
// count/frequency/monetary columns get zero.
//
// The fill is keyed by class, not by literal column name, and applying it
// to an already-imputed table changes nothing.
func Impute(t *domain.FeatureTable, cfg domain.ScoringConfig) (*domain.FeatureTable, error) {
	out := t.Clone()
	for _, k := range out.Columns() {
		class, ok := cfg.ClassOf(k.Name)
		if !ok {
			return nil, fmt.Errorf("impute: column %q has no configured feature class", k.Column())
		}
		fill := 0.0
		if class == domain.ClassRecency {
			fill = cfg.RecencyFillDays
		}

		values, err := out.ColumnValues(k)
		if err != nil {
			return nil, err
		}
		changed := false
		for i, v := range values {
			if math.IsNaN(v) {
				values[i] = fill
				changed = true
			}
		}
		if changed {
			if err := out.SetColumnValues(k, values); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
