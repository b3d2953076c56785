package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/internal/modules/evaluation"
	"github.com/crmdata/vertical-affinity/internal/modules/scoring"
)

// RunRecord summarizes one persisted pipeline run.
type RunRecord struct {
	RunID         string        `json:"run_id"`
	CreatedAt     time.Time     `json:"created_at"`
	Status        string        `json:"status"`
	MembersTotal  int           `json:"members_total"`
	MembersScored int           `json:"members_scored"`
	Duration      time.Duration `json:"duration_ms"`
}

// ResultsRepository persists and serves the scored and evaluation tables.
type ResultsRepository struct {
	*BaseRepository
}

// NewResultsRepository creates a new results repository
func NewResultsRepository(db *sql.DB, log zerolog.Logger) *ResultsRepository {
	return &ResultsRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "results").Logger()),
	}
}

// SaveRun persists a run's scores and evaluation report in one
// transaction. NaN ratios are stored as NULL and read back as NaN.
func (r *ResultsRepository) SaveRun(run RunRecord, scored *scoring.ScoreTable, report *evaluation.Report) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin results transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, created_at, status, members_total, members_scored, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt.Format(time.RFC3339), run.Status,
		run.MembersTotal, run.MembersScored, run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	scoreStmt, err := tx.Prepare(
		`INSERT INTO member_scores (run_id, member_uid, vertical, score) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare score insert: %w", err)
	}
	defer scoreStmt.Close()

	predStmt, err := tx.Prepare(
		`INSERT INTO member_predictions (run_id, member_uid, predicted_vertical, max_score) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare prediction insert: %w", err)
	}
	defer predStmt.Close()

	for i := range scored.Rows {
		row := &scored.Rows[i]
		for _, v := range scored.Verticals {
			if _, err := scoreStmt.Exec(run.RunID, string(row.Member), string(v), row.Scores[v]); err != nil {
				return fmt.Errorf("failed to insert score for member %s: %w", row.Member, err)
			}
		}
		if _, err := predStmt.Exec(run.RunID, string(row.Member), string(row.Predicted), row.MaxScore); err != nil {
			return fmt.Errorf("failed to insert prediction for member %s: %w", row.Member, err)
		}
	}

	for _, cmp := range report.Rows {
		_, err := tx.Exec(
			`INSERT INTO evaluation_results
			 (run_id, vertical, predicted_size, not_predicted_size,
			  cvr_predicted, cvr_not_predicted, cvr_ratio,
			  avg_purchase_predicted, avg_purchase_not_predicted, purchase_ratio,
			  avg_sales_share_predicted, avg_sales_share_not_predicted, sales_share_ratio)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, string(cmp.Vertical), cmp.PredictedSize, cmp.NotPredictedSize,
			cmp.CVRPredicted, cmp.CVRNotPredicted, nullIfNaN(cmp.CVRRatio),
			cmp.AvgPurchasePredicted, cmp.AvgPurchaseNotPredicted, nullIfNaN(cmp.PurchaseRatio),
			cmp.AvgSalesSharePredicted, cmp.AvgSalesShareNotPredicted, nullIfNaN(cmp.SalesShareRatio),
		)
		if err != nil {
			return fmt.Errorf("failed to insert evaluation row for vertical %s: %w", cmp.Vertical, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}

	r.log.Info().
		Str("run_id", run.RunID).
		Int("members", len(scored.Rows)).
		Int("verticals", len(report.Rows)).
		Msg("Run results persisted")
	return nil
}

// LatestRun returns the most recent completed run, or nil when none exist.
func (r *ResultsRepository) LatestRun() (*RunRecord, error) {
	row := r.db.QueryRow(
		`SELECT run_id, created_at, status, members_total, members_scored, duration_ms
		 FROM runs WHERE status = 'completed'
		 ORDER BY created_at DESC LIMIT 1`)

	var (
		rec        RunRecord
		createdRaw string
		durationMS int64
	)
	err := row.Scan(&rec.RunID, &createdRaw, &rec.Status, &rec.MembersTotal, &rec.MembersScored, &durationMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339, createdRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run timestamp %q: %w", createdRaw, err)
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return &rec, nil
}

// MemberPrediction is one member's persisted scores and prediction.
type MemberPrediction struct {
	Member    domain.MemberID             `json:"member_uid"`
	Scores    map[domain.Vertical]float64 `json:"scores"`
	MaxScore  float64                     `json:"max_score"`
	Predicted domain.Vertical             `json:"predicted_vertical"`
}

// Scores returns a page of a run's scored members in member order.
func (r *ResultsRepository) Scores(runID string, limit, offset int) ([]MemberPrediction, error) {
	rows, err := r.db.Query(
		`SELECT p.member_uid, p.predicted_vertical, p.max_score, s.vertical, s.score
		 FROM member_predictions p
		 JOIN member_scores s ON s.run_id = p.run_id AND s.member_uid = p.member_uid
		 WHERE p.run_id = ?
		   AND p.member_uid IN (
			SELECT member_uid FROM member_predictions
			WHERE run_id = ? ORDER BY member_uid LIMIT ? OFFSET ?)
		 ORDER BY p.member_uid, s.vertical`,
		runID, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores for run %s: %w", runID, err)
	}
	defer rows.Close()

	var (
		out     []MemberPrediction
		current *MemberPrediction
	)
	for rows.Next() {
		var (
			member, predicted, vertical string
			maxScore, score             float64
		)
		if err := rows.Scan(&member, &predicted, &maxScore, &vertical, &score); err != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", err)
		}
		if current == nil || current.Member != domain.MemberID(member) {
			out = append(out, MemberPrediction{
				Member:    domain.MemberID(member),
				Scores:    make(map[domain.Vertical]float64),
				MaxScore:  maxScore,
				Predicted: domain.Vertical(predicted),
			})
			current = &out[len(out)-1]
		}
		current.Scores[domain.Vertical(vertical)] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate score rows: %w", err)
	}
	return out, nil
}

// MemberScore returns one member's persisted prediction for a run, or nil
// when the member was not scored.
func (r *ResultsRepository) MemberScore(runID string, member domain.MemberID) (*MemberPrediction, error) {
	preds, err := r.memberPredictions(runID, member)
	if err != nil {
		return nil, err
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return &preds[0], nil
}

func (r *ResultsRepository) memberPredictions(runID string, member domain.MemberID) ([]MemberPrediction, error) {
	rows, err := r.db.Query(
		`SELECT p.member_uid, p.predicted_vertical, p.max_score, s.vertical, s.score
		 FROM member_predictions p
		 JOIN member_scores s ON s.run_id = p.run_id AND s.member_uid = p.member_uid
		 WHERE p.run_id = ? AND p.member_uid = ?
		 ORDER BY s.vertical`,
		runID, string(member))
	if err != nil {
		return nil, fmt.Errorf("failed to load member score: %w", err)
	}
	defer rows.Close()

	var out []MemberPrediction
	for rows.Next() {
		var (
			id, predicted, vertical string
			maxScore, score         float64
		)
		if err := rows.Scan(&id, &predicted, &maxScore, &vertical, &score); err != nil {
			return nil, fmt.Errorf("failed to scan member score row: %w", err)
		}
		if len(out) == 0 {
			out = append(out, MemberPrediction{
				Member:    domain.MemberID(id),
				Scores:    make(map[domain.Vertical]float64),
				MaxScore:  maxScore,
				Predicted: domain.Vertical(predicted),
			})
		}
		out[0].Scores[domain.Vertical(vertical)] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member score rows: %w", err)
	}
	return out, nil
}

// Evaluation returns a run's persisted evaluation report. NULL ratios come
// back as NaN.
func (r *ResultsRepository) Evaluation(runID string) (*evaluation.Report, error) {
	rows, err := r.db.Query(
		`SELECT vertical, predicted_size, not_predicted_size,
			cvr_predicted, cvr_not_predicted, cvr_ratio,
			avg_purchase_predicted, avg_purchase_not_predicted, purchase_ratio,
			avg_sales_share_predicted, avg_sales_share_not_predicted, sales_share_ratio
		 FROM evaluation_results WHERE run_id = ? ORDER BY vertical`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation for run %s: %w", runID, err)
	}
	defer rows.Close()

	report := &evaluation.Report{}
	for rows.Next() {
		var (
			cmp                                 evaluation.VerticalComparison
			vertical                            string
			cvrRatio, purchaseRatio, shareRatio sql.NullFloat64
		)
		err := rows.Scan(&vertical, &cmp.PredictedSize, &cmp.NotPredictedSize,
			&cmp.CVRPredicted, &cmp.CVRNotPredicted, &cvrRatio,
			&cmp.AvgPurchasePredicted, &cmp.AvgPurchaseNotPredicted, &purchaseRatio,
			&cmp.AvgSalesSharePredicted, &cmp.AvgSalesShareNotPredicted, &shareRatio)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation row: %w", err)
		}
		cmp.Vertical = domain.Vertical(vertical)
		cmp.CVRRatio = nanIfNull(cvrRatio)
		cmp.PurchaseRatio = nanIfNull(purchaseRatio)
		cmp.SalesShareRatio = nanIfNull(shareRatio)
		report.Rows = append(report.Rows, cmp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluation rows: %w", err)
	}
	return report, nil
}

func nullIfNaN(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func nanIfNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
