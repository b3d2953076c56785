// Package scoring computes per-vertical affinity scores from the
// normalized feature table and assigns each member a predicted vertical.
package scoring

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

// Scorer computes weighted-sum affinity scores per member per vertical.
type Scorer struct {
	cfg domain.ScoringConfig
	log zerolog.Logger
}

// NewScorer creates a scorer for the given configuration.
func NewScorer(cfg domain.ScoringConfig, log zerolog.Logger) *Scorer {
	return &Scorer{
		cfg: cfg,
		log: log.With().Str("component", "scorer").Logger(),
	}
}

// ValidateColumns checks the weight template against the merged table in
// both directions before any score is computed: every configured
// (feature, vertical) column must exist in the table, and every table
// column must belong to a configured feature. Either mismatch means the
// configuration and the data disagree about the feature set, which is
// fatal for the run.
func (s *Scorer) ValidateColumns(t *domain.FeatureTable) error {
	for _, k := range s.cfg.Keys() {
		if !t.HasColumn(k) {
			return fmt.Errorf(
				"scoring config references column %q (feature %q, vertical %q) absent from merged table",
				k.Column(), k.Name, k.Vertical)
		}
	}
	for _, k := range t.Columns() {
		if _, ok := s.cfg.ClassOf(k.Name); !ok {
			return fmt.Errorf(
				"merged table column %q (feature %q) is not present in the weight template",
				k.Column(), k.Name)
		}
	}
	return nil
}

// Score computes, for every member and vertical V,
//
//	score(V) = sum over configured features f of weight(f) * normalized(f, V)
//
// over the normalized table. Only vertical V's own columns contribute to
// vertical V's score. The returned table has rows in member order and no
// predictions yet; see Assigner.
func (s *Scorer) Score(t *domain.FeatureTable) (*ScoreTable, error) {
	if err := s.ValidateColumns(t); err != nil {
		return nil, err
	}

	verticals := make([]domain.Vertical, len(s.cfg.Verticals))
	copy(verticals, s.cfg.Verticals)
	domain.SortVerticals(verticals)

	table := &ScoreTable{
		Verticals: verticals,
		Rows:      make([]MemberScore, 0, t.NumRows()),
	}

	for _, m := range t.Members() {
		row := MemberScore{
			Member: m,
			Scores: make(map[domain.Vertical]float64, len(verticals)),
		}
		for _, v := range verticals {
			score := 0.0
			for _, f := range s.cfg.Features {
				if f.Weight == 0 {
					continue
				}
				val, ok := t.Value(m, domain.FeatureKey{Name: f.Name, Vertical: v})
				if !ok {
					return nil, fmt.Errorf("scoring: member %q missing column %s_%s", m, f.Name, v)
				}
				score += f.Weight * val
			}
			row.Scores[v] = score
		}
		table.Rows = append(table.Rows, row)
	}

	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i].Member < table.Rows[j].Member })
	s.log.Debug().Int("members", len(table.Rows)).Int("verticals", len(verticals)).Msg("Affinity scores computed")
	return table, nil
}
