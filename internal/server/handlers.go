package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"runtime"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/internal/modules/evaluation"
	"github.com/crmdata/vertical-affinity/internal/pipeline"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "vertical-affinity",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := map[string]interface{}{
		"status": "running",
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleTriggerRun runs the pipeline synchronously and returns the run
// summary. A run already in flight yields 409.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.pipeline.Run(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrRunInProgress) {
			status = http.StatusConflict
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// handleLatestRun returns the most recent completed run record.
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.results.LatestRun()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "no completed runs")
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// handleScores returns a page of the latest run's scored members.
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	run, err := s.results.LatestRun()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "no completed runs")
		return
	}

	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	scores, err := s.results.Scores(run.RunID, limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": run.RunID,
		"limit":  limit,
		"offset": offset,
		"rows":   scores,
	})
}

// handleMemberScore returns one member's scores from the latest run.
func (s *Server) handleMemberScore(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	if memberID == "" {
		s.writeError(w, http.StatusBadRequest, "member id is required")
		return
	}

	run, err := s.results.LatestRun()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "no completed runs")
		return
	}

	score, err := s.results.MemberScore(run.RunID, domain.MemberID(memberID))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if score == nil {
		s.writeError(w, http.StatusNotFound, "member not scored in latest run")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": run.RunID,
		"score":  score,
	})
}

// handleEvaluation returns the latest run's evaluation report. Undefined
// ratios (NaN) are rendered as null.
func (s *Server) handleEvaluation(w http.ResponseWriter, r *http.Request) {
	run, err := s.results.LatestRun()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "no completed runs")
		return
	}

	report, err := s.results.Evaluation(run.RunID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": run.RunID,
		"rows":   renderEvaluationRows(report),
	})
}

// renderEvaluationRows converts NaN ratios to nil so the report survives
// JSON encoding.
func renderEvaluationRows(report *evaluation.Report) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(report.Rows))
	for _, cmp := range report.Rows {
		rows = append(rows, map[string]interface{}{
			"vertical":                      cmp.Vertical,
			"predicted_group_size":          cmp.PredictedSize,
			"not_predicted_group_size":      cmp.NotPredictedSize,
			"cvr_predicted":                 cmp.CVRPredicted,
			"cvr_not_predicted":             cmp.CVRNotPredicted,
			"cvr_ratio":                     nanToNil(cmp.CVRRatio),
			"avg_purchase_predicted":        cmp.AvgPurchasePredicted,
			"avg_purchase_not_predicted":    cmp.AvgPurchaseNotPredicted,
			"purchase_ratio":                nanToNil(cmp.PurchaseRatio),
			"avg_sales_share_predicted":     cmp.AvgSalesSharePredicted,
			"avg_sales_share_not_predicted": cmp.AvgSalesShareNotPredicted,
			"sales_share_ratio":             nanToNil(cmp.SalesShareRatio),
		})
	}
	return rows
}

func nanToNil(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
