// Package evaluation measures assignment quality by comparing, per
// vertical, the purchase behavior of the members predicted for it against
// everyone else.
package evaluation

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/internal/modules/scoring"
	"github.com/crmdata/vertical-affinity/pkg/formulas"
)

// Evaluator produces lift-ratio reports. It is reporting-only: neither the
// score table nor the ground truth is modified.
type Evaluator struct {
	log zerolog.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(log zerolog.Logger) *Evaluator {
	return &Evaluator{log: log.With().Str("component", "evaluator").Logger()}
}

// Evaluate partitions the scored population per vertical into the cohort
// predicted for that vertical and the rest (always a full partition), then
// computes conversion-rate, purchase-rate, and sales-share ratios. Members
// without ground-truth rows count as zero activity. A zero denominator
// makes that single ratio NaN; the remaining verticals are still reported.
func (e *Evaluator) Evaluate(scored *scoring.ScoreTable, truth GroundTruth) *Report {
	report := &Report{Rows: make([]VerticalComparison, 0, len(scored.Verticals))}

	for _, v := range scored.Verticals {
		var (
			predPurchases, restPurchases []float64
			predShares, restShares       []float64
			predConverted, restConverted int
		)

		for i := range scored.Rows {
			row := &scored.Rows[i]
			purchases, share := actualsFor(truth, row.Member, v)

			if row.Predicted == v {
				predPurchases = append(predPurchases, purchases)
				predShares = append(predShares, share)
				if purchases > 0 {
					predConverted++
				}
			} else {
				restPurchases = append(restPurchases, purchases)
				restShares = append(restShares, share)
				if purchases > 0 {
					restConverted++
				}
			}
		}

		cmp := VerticalComparison{
			Vertical:         v,
			PredictedSize:    len(predPurchases),
			NotPredictedSize: len(restPurchases),

			CVRPredicted:    rate(predConverted, len(predPurchases)),
			CVRNotPredicted: rate(restConverted, len(restPurchases)),

			AvgPurchasePredicted:    formulas.Mean(predPurchases),
			AvgPurchaseNotPredicted: formulas.Mean(restPurchases),

			AvgSalesSharePredicted:    formulas.Mean(predShares),
			AvgSalesShareNotPredicted: formulas.Mean(restShares),
		}
		cmp.CVRRatio = ratio(cmp.CVRPredicted, cmp.CVRNotPredicted)
		cmp.PurchaseRatio = ratio(cmp.AvgPurchasePredicted, cmp.AvgPurchaseNotPredicted)
		cmp.SalesShareRatio = ratio(cmp.AvgSalesSharePredicted, cmp.AvgSalesShareNotPredicted)

		if math.IsNaN(cmp.CVRRatio) || math.IsNaN(cmp.PurchaseRatio) || math.IsNaN(cmp.SalesShareRatio) {
			e.log.Warn().
				Str("vertical", string(v)).
				Int("predicted_size", cmp.PredictedSize).
				Int("not_predicted_size", cmp.NotPredictedSize).
				Msg("Evaluation ratio undefined: rest cohort has zero relevant activity")
		}

		report.Rows = append(report.Rows, cmp)
	}

	return report
}

func actualsFor(truth GroundTruth, m domain.MemberID, v domain.Vertical) (purchases, share float64) {
	actuals, ok := truth[m]
	if !ok {
		return 0, 0
	}
	return actuals.Purchases[v], actuals.SalesShare[v]
}

func rate(converted, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(converted) / float64(total)
}

// ratio divides the predicted-cohort rate by the rest-cohort rate. A
// non-positive denominator makes the lift undefined, not zero.
func ratio(pred, rest float64) float64 {
	if rest <= 0 {
		return math.NaN()
	}
	return pred / rest
}
