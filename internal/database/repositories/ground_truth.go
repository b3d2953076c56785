package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/internal/modules/evaluation"
)

// GroundTruthRepository loads observed purchase behavior over the
// evaluation window for the evaluator: per-vertical purchase counts and
// each vertical's share of the member's revenue.
type GroundTruthRepository struct {
	*BaseRepository
}

// NewGroundTruthRepository creates a new ground truth repository
func NewGroundTruthRepository(db *sql.DB, log zerolog.Logger) *GroundTruthRepository {
	return &GroundTruthRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "ground_truth").Logger()),
	}
}

// Load aggregates orders inside the evaluation window (reference date up
// to now). Gift orders and empty member ids are excluded; rows with
// unknown vertical labels are dropped and counted.
func (r *GroundTruthRepository) Load(w domain.Windows) (evaluation.GroundTruth, error) {
	query := `
		SELECT member_uid, vertical, COUNT(*), SUM(amount)
		FROM orders
		WHERE member_uid != '' AND is_gift = 0
		  AND order_date >= ? AND order_date < ?
		GROUP BY member_uid, vertical
	`
	rows, err := r.db.Query(query, w.Reference.Format(dateLayout), w.Now.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate evaluation orders: %w", err)
	}
	defer rows.Close()

	truth := make(evaluation.GroundTruth)
	revenue := make(map[domain.MemberID]map[domain.Vertical]float64)
	unknownVertical := 0

	for rows.Next() {
		var (
			member, label     string
			purchases, amount float64
		)
		if err := rows.Scan(&member, &label, &purchases, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation order row: %w", err)
		}
		vertical, ok := domain.CanonicalVertical(label)
		if !ok {
			unknownVertical++
			continue
		}

		id := domain.MemberID(member)
		actuals, ok := truth[id]
		if !ok {
			actuals = evaluation.MemberActuals{
				Purchases:  make(map[domain.Vertical]float64),
				SalesShare: make(map[domain.Vertical]float64),
			}
			truth[id] = actuals
			revenue[id] = make(map[domain.Vertical]float64)
		}
		actuals.Purchases[vertical] += purchases
		revenue[id][vertical] += amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluation order rows: %w", err)
	}

	// Convert per-vertical revenue to the member's sales share.
	for id, byVertical := range revenue {
		total := 0.0
		for _, amount := range byVertical {
			total += amount
		}
		if total <= 0 {
			continue
		}
		for vertical, amount := range byVertical {
			truth[id].SalesShare[vertical] = amount / total
		}
	}

	if unknownVertical > 0 {
		r.log.Warn().Int("rows", unknownVertical).Msg("Dropped evaluation aggregates with unknown vertical label")
	}
	r.log.Debug().Int("members", len(truth)).Msg("Loaded ground truth")
	return truth, nil
}
