// Package community categorizes community activities into verticals by
// keyword rules on the activity name.
package community

import (
	"strings"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

// Rule maps a set of case-insensitive name keywords to a vertical.
type Rule struct {
	Vertical domain.Vertical
	Keywords []string
}

// Categorizer assigns each activity to a vertical. Rules are evaluated in
// order and the first match wins; unmatched activities fall back to the
// default vertical.
type Categorizer struct {
	rules    []Rule
	fallback domain.Vertical
}

// DefaultRules returns the production keyword rules. Running is checked
// first because run-club names frequently also mention training terms.
func DefaultRules() []Rule {
	return []Rule{
		{Vertical: domain.VerticalRunning, Keywords: []string{
			"run", "jog", "interval", "tempo", "5k", "10k", "half marathon", "marathon", "km",
		}},
		{Vertical: domain.VerticalOutdoor, Keywords: []string{
			"hike", "trail", "mountain", "outdoor", "summit",
		}},
		{Vertical: domain.VerticalTraining, Keywords: []string{
			"training", "strength", "crossfit", "hyrox", "mobility", "recovery", "workshop", "class",
		}},
		{Vertical: domain.VerticalTennis, Keywords: []string{
			"tennis", "racket", "court",
		}},
	}
}

// NewCategorizer creates a categorizer with the given rules and fallback.
func NewCategorizer(rules []Rule, fallback domain.Vertical) *Categorizer {
	return &Categorizer{rules: rules, fallback: fallback}
}

// NewDefaultCategorizer uses the production rules with allday as fallback.
func NewDefaultCategorizer() *Categorizer {
	return NewCategorizer(DefaultRules(), domain.VerticalAllDay)
}

// Categorize returns the vertical for an activity name.
func (c *Categorizer) Categorize(name string) domain.Vertical {
	lower := strings.ToLower(name)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Vertical
			}
		}
	}
	return c.fallback
}
