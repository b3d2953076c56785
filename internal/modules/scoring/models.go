package scoring

import "github.com/crmdata/vertical-affinity/internal/domain"

// MemberScore holds one member's affinity scores across all verticals and
// the resulting prediction. Scores are comparable across verticals by
// construction: every input feature is a percentile in [0,1].
type MemberScore struct {
	Member    domain.MemberID             `json:"member_uid"`
	Scores    map[domain.Vertical]float64 `json:"scores"`
	MaxScore  float64                     `json:"max_score"`
	Predicted domain.Vertical             `json:"predicted_vertical"`
}

// ScoreTable is the scored population, rows sorted by member id.
type ScoreTable struct {
	Verticals []domain.Vertical `json:"verticals"`
	Rows      []MemberScore     `json:"rows"`
}

// Row returns the score row for a member, or nil when absent.
func (t *ScoreTable) Row(m domain.MemberID) *MemberScore {
	for i := range t.Rows {
		if t.Rows[i].Member == m {
			return &t.Rows[i]
		}
	}
	return nil
}

// PredictedCounts returns how many members were assigned each vertical,
// including the NoInterest sentinel.
func (t *ScoreTable) PredictedCounts() map[domain.Vertical]int {
	counts := make(map[domain.Vertical]int, len(t.Verticals)+1)
	for i := range t.Rows {
		counts[t.Rows[i].Predicted]++
	}
	return counts
}
