package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/config"
	"github.com/crmdata/vertical-affinity/internal/database/repositories"
	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/internal/modules/evaluation"
	"github.com/crmdata/vertical-affinity/internal/modules/monitoring"
)

// Deps holds the service's collaborators.
type Deps struct {
	Config     *config.Config
	ScoringCfg domain.ScoringConfig
	Members    *repositories.MemberRepository
	Digital    *repositories.DigitalRepository
	Community  *repositories.CommunityRepository
	RFM        *repositories.RFMRepository
	Truth      *repositories.GroundTruthRepository
	Results    *repositories.ResultsRepository
	Metrics    *monitoring.Metrics
	Log        zerolog.Logger
}

// ErrRunInProgress is returned when a run is triggered while another one
// holds the run lock.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Service runs the affinity pipeline end to end. Runs are serialized: a
// second trigger while one is in flight is rejected with ErrRunInProgress.
type Service struct {
	cfg        *config.Config
	scoringCfg domain.ScoringConfig
	members    *repositories.MemberRepository
	digital    *repositories.DigitalRepository
	community  *repositories.CommunityRepository
	rfm        *repositories.RFMRepository
	truth      *repositories.GroundTruthRepository
	results    *repositories.ResultsRepository
	evaluator  *evaluation.Evaluator
	monitor    *monitoring.Monitor
	metrics    *monitoring.Metrics
	log        zerolog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewService creates the pipeline service.
func NewService(deps Deps) *Service {
	log := deps.Log.With().Str("component", "pipeline").Logger()
	return &Service{
		cfg:        deps.Config,
		scoringCfg: deps.ScoringCfg,
		members:    deps.Members,
		digital:    deps.Digital,
		community:  deps.Community,
		rfm:        deps.RFM,
		truth:      deps.Truth,
		results:    deps.Results,
		evaluator:  evaluation.NewEvaluator(log),
		monitor:    monitoring.NewMonitor(log),
		metrics:    deps.Metrics,
		log:        log,
		now:        time.Now,
	}
}

// RunSummary is the user-facing outcome of one pipeline run.
type RunSummary struct {
	RunID               string                  `json:"run_id"`
	StartedAt           time.Time               `json:"started_at"`
	Duration            time.Duration           `json:"duration_ms"`
	MembersTotal        int                     `json:"members_total"`
	MembersScored       int                     `json:"members_scored"`
	PredictedCounts     map[domain.Vertical]int `json:"predicted_counts"`
	ZeroVarianceColumns int                     `json:"zero_variance_columns"`
}

// Run executes one full pipeline pass: acquire the roster and the three
// feature families (concurrently), merge, filter, impute, normalize,
// score, assign, evaluate against ground truth, persist, and update
// metrics. The run either completes with both output tables persisted or
// fails fast at the stage that detected a fatal condition.
func (s *Service) Run(ctx context.Context) (*RunSummary, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	runID := uuid.NewString()
	started := s.now()
	log := s.log.With().Str("run_id", runID).Logger()
	log.Info().Msg("Pipeline run started")

	summary, err := s.run(ctx, runID, started, log)
	elapsed := s.now().Sub(started)
	s.metrics.RunDuration.Observe(elapsed.Seconds())
	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Dur("duration", elapsed).Msg("Pipeline run failed")
		return nil, err
	}
	s.metrics.RunsTotal.WithLabelValues("completed").Inc()
	summary.Duration = elapsed
	log.Info().
		Dur("duration", elapsed).
		Int("members_scored", summary.MembersScored).
		Msg("Pipeline run completed")
	return summary, nil
}

func (s *Service) run(ctx context.Context, runID string, started time.Time, log zerolog.Logger) (*RunSummary, error) {
	windows := domain.NewWindows(started,
		s.cfg.EvalWindowMonths, s.cfg.EngagementWindowMonths,
		s.cfg.RFMShortWindowMonths, s.cfg.RFMLongWindowMonths)

	roster, sources, err := s.acquire(ctx, windows)
	if err != nil {
		return nil, fmt.Errorf("acquisition stage: %w", err)
	}
	log.Info().
		Int("roster", len(roster)).
		Time("reference_date", windows.Reference).
		Msg("Sources acquired")

	res, err := runCore(s.scoringCfg, s.cfg.ScoreFloor, roster, sources, log)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("merged", res.merged.NumRows()).
		Int("dropped_no_touchpoint", res.droppedNoTouchpoint).
		Int("dropped_non_roster", res.mergeStats.DroppedNonRoster).
		Int("zero_variance_columns", len(res.normStats.ZeroVarianceColumns)).
		Msg("Feature engineering completed")
	for _, col := range res.normStats.ZeroVarianceColumns {
		log.Warn().Str("column", col).Msg("Zero-variance feature column")
	}

	s.monitor.RunChecks(len(roster), res.merged, res.normalized, res.scored)

	truth, err := s.truth.Load(windows)
	if err != nil {
		return nil, fmt.Errorf("evaluation stage: %w", err)
	}
	report := s.evaluator.Evaluate(res.scored, truth)

	record := repositories.RunRecord{
		RunID:         runID,
		CreatedAt:     started,
		Status:        "completed",
		MembersTotal:  len(roster),
		MembersScored: len(res.scored.Rows),
		Duration:      s.now().Sub(started),
	}
	if err := s.results.SaveRun(record, res.scored, report); err != nil {
		return nil, fmt.Errorf("persistence stage: %w", err)
	}

	s.updateMetrics(len(roster), res)

	return &RunSummary{
		RunID:               runID,
		StartedAt:           started,
		MembersTotal:        len(roster),
		MembersScored:       len(res.scored.Rows),
		PredictedCounts:     res.scored.PredictedCounts(),
		ZeroVarianceColumns: len(res.normStats.ZeroVarianceColumns),
	}, nil
}

// acquire loads the roster and the three feature families concurrently.
// The families share no state and only converge at the merge, so this is
// a plain fan-out with a barrier; the first error wins.
func (s *Service) acquire(ctx context.Context, windows domain.Windows) ([]domain.MemberID, []domain.SourceTable, error) {
	var (
		wg     sync.WaitGroup
		roster []domain.MemberID

		digitalSrc, communitySrc, rfmSrc domain.SourceTable
		errs                             [4]error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		roster, errs[0] = s.members.ListScorable()
	}()
	go func() {
		defer wg.Done()
		digitalSrc, errs[1] = s.digital.BuildSource(windows, s.scoringCfg.Verticals)
	}()
	go func() {
		defer wg.Done()
		communitySrc, errs[2] = s.community.BuildSource(s.scoringCfg.Verticals)
	}()
	go func() {
		defer wg.Done()
		rfmSrc, errs[3] = s.rfm.BuildSource(windows, s.scoringCfg.Verticals)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}
	return roster, []domain.SourceTable{digitalSrc, communitySrc, rfmSrc}, nil
}

func (s *Service) updateMetrics(rosterSize int, res *coreResult) {
	s.metrics.MembersTotal.Set(float64(rosterSize))
	s.metrics.MembersWithTouchpoints.Set(float64(len(res.scored.Rows)))
	s.metrics.ZeroVarianceColumns.Set(float64(len(res.normStats.ZeroVarianceColumns)))

	s.metrics.PredictedMembers.Reset()
	for vertical, count := range res.scored.PredictedCounts() {
		s.metrics.PredictedMembers.WithLabelValues(string(vertical)).Set(float64(count))
	}
}
