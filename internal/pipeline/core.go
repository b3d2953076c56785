// Package pipeline orchestrates one affinity run: source acquisition,
// feature engineering, scoring, assignment, evaluation, and persistence.
package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/internal/modules/features"
	"github.com/crmdata/vertical-affinity/internal/modules/scoring"
)

// coreResult carries the intermediate tables of one run for monitoring
// and persistence.
type coreResult struct {
	merged     *domain.FeatureTable
	normalized *domain.FeatureTable
	scored     *scoring.ScoreTable

	mergeStats          features.MergeStats
	droppedNoTouchpoint int
	normStats           features.NormalizeStats
}

// runCore executes the in-memory stage chain on already-acquired inputs.
// It is deterministic: identical inputs and configuration produce
// identical tables. Fatal errors name the failing stage.
func runCore(
	scoringCfg domain.ScoringConfig,
	floor float64,
	roster []domain.MemberID,
	sources []domain.SourceTable,
	log zerolog.Logger,
) (*coreResult, error) {
	res := &coreResult{}

	merged, mergeStats, err := features.Merge(roster, sources...)
	if err != nil {
		return nil, fmt.Errorf("merge stage: %w", err)
	}
	res.merged = merged
	res.mergeStats = mergeStats

	scorer := scoring.NewScorer(scoringCfg, log)
	// Config/table mismatches are fatal before any downstream stage runs.
	if err := scorer.ValidateColumns(merged); err != nil {
		return nil, fmt.Errorf("config validation stage: %w", err)
	}

	filtered, dropped := features.FilterTouchpoints(merged)
	res.droppedNoTouchpoint = dropped
	if filtered.NumRows() == 0 {
		// Recoverable: downstream stages handle an empty population, the
		// evaluation ratios all come out undefined.
		log.Warn().Msg("No members retained by touchpoint filter")
	}

	imputed, err := features.Impute(filtered, scoringCfg)
	if err != nil {
		return nil, fmt.Errorf("imputation stage: %w", err)
	}

	normalized, normStats, err := features.Normalize(imputed, scoringCfg)
	if err != nil {
		return nil, fmt.Errorf("normalization stage: %w", err)
	}
	res.normalized = normalized
	res.normStats = normStats

	scored, err := scorer.Score(normalized)
	if err != nil {
		return nil, fmt.Errorf("scoring stage: %w", err)
	}
	res.scored = scoring.NewAssigner(floor).Assign(scored)

	return res, nil
}
