package scoring

import "github.com/crmdata/vertical-affinity/internal/domain"

// Assigner picks each member's predicted vertical from their affinity
// scores.
//
// Tie-break rule: the score table's verticals are kept in lexicographic
// order and the argmax uses a strict greater-than comparison, so equal
// maximum scores resolve to the lexicographically smallest vertical name.
// Two members with identical score rows always get identical predictions.
type Assigner struct {
	floor float64
}

// NewAssigner creates an assigner with the given score floor. A member
// whose maximum score is at or below the floor is assigned the NoInterest
// sentinel instead of a forced vertical.
func NewAssigner(floor float64) *Assigner {
	return &Assigner{floor: floor}
}

// Assign fills Predicted and MaxScore for every row in place and returns
// the table for chaining.
func (a *Assigner) Assign(t *ScoreTable) *ScoreTable {
	for i := range t.Rows {
		row := &t.Rows[i]

		best := domain.NoInterest
		bestScore := 0.0
		first := true
		for _, v := range t.Verticals {
			s := row.Scores[v]
			if first || s > bestScore {
				best = v
				bestScore = s
				first = false
			}
		}

		row.MaxScore = bestScore
		if bestScore <= a.floor {
			row.Predicted = domain.NoInterest
		} else {
			row.Predicted = best
		}
	}
	return t
}
