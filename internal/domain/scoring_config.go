package domain

import "fmt"

// ScoringConfig is the immutable run-wide configuration handed to every
// pipeline stage: the fixed vertical set, the abstract feature set with
// weights and classes, and the imputation/assignment policies.
//
// Weights need not sum to 1; only their relative magnitudes matter.
type ScoringConfig struct {
	Verticals []Vertical
	Features  []FeatureSpec

	// RecencyFillDays replaces missing recency values. Large enough that
	// an inverted percentile rank puts "never observed" at the bottom.
	RecencyFillDays float64

	// ScoreFloor is the minimum affinity score required for a prediction.
	// A member whose maximum score is at or below the floor is assigned
	// the NoInterest sentinel.
	ScoreFloor float64

	classByName map[string]FeatureClass
}

// DefaultScoringConfig returns the production weight template. RFM features
// dominate; digital engagement contributes smaller nudges; community
// activity participation is tracked but currently weightless.
func DefaultScoringConfig() ScoringConfig {
	cfg := ScoringConfig{
		Verticals: RequiredVerticals(),
		Features: []FeatureSpec{
			{Name: FeatureRecency, Class: ClassRecency, Weight: 0.10},
			{Name: FeatureFreq4M, Class: ClassFrequency, Weight: 0.20},
			{Name: FeatureFreq1Y, Class: ClassFrequency, Weight: 0.10},
			{Name: FeatureMonetary4M, Class: ClassMonetary, Weight: 0.20},
			{Name: FeatureMonetary1Y, Class: ClassMonetary, Weight: 0.15},
			{Name: FeaturePDPViewCount, Class: ClassCount, Weight: 0.05},
			{Name: FeaturePDPViewDays, Class: ClassRecency, Weight: 0.05},
			{Name: FeatureATCCount, Class: ClassCount, Weight: 0.05},
			{Name: FeatureATCDays, Class: ClassRecency, Weight: 0.05},
			{Name: FeatureActivityCnt, Class: ClassCount, Weight: 0.00},
			{Name: FeatureNaviCount, Class: ClassCount, Weight: 0.05},
		},
		RecencyFillDays: 9999,
		ScoreFloor:      0,
	}
	cfg.buildIndex()
	return cfg
}

func (c *ScoringConfig) buildIndex() {
	c.classByName = make(map[string]FeatureClass, len(c.Features))
	for _, f := range c.Features {
		c.classByName[f.Name] = f.Class
	}
}

// Validate checks internal consistency of the configuration.
func (c *ScoringConfig) Validate() error {
	if len(c.Verticals) == 0 {
		return fmt.Errorf("scoring config: vertical set is empty")
	}
	seenV := make(map[Vertical]bool, len(c.Verticals))
	for _, v := range c.Verticals {
		if seenV[v] {
			return fmt.Errorf("scoring config: duplicate vertical %q", v)
		}
		seenV[v] = true
	}
	if len(c.Features) == 0 {
		return fmt.Errorf("scoring config: feature set is empty")
	}
	seenF := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		if f.Name == "" {
			return fmt.Errorf("scoring config: feature with empty name")
		}
		if seenF[f.Name] {
			return fmt.Errorf("scoring config: duplicate feature %q", f.Name)
		}
		if f.Weight < 0 {
			return fmt.Errorf("scoring config: feature %q has negative weight %v", f.Name, f.Weight)
		}
		seenF[f.Name] = true
	}
	if c.RecencyFillDays <= 0 {
		return fmt.Errorf("scoring config: recency fill must be positive, got %v", c.RecencyFillDays)
	}
	return nil
}

// ClassOf returns the feature class for an abstract feature name.
func (c *ScoringConfig) ClassOf(name string) (FeatureClass, bool) {
	if c.classByName == nil {
		c.buildIndex()
	}
	cl, ok := c.classByName[name]
	return cl, ok
}

// Keys returns every configured (feature, vertical) column key in
// deterministic order: features in template order, verticals within.
func (c *ScoringConfig) Keys() []FeatureKey {
	keys := make([]FeatureKey, 0, len(c.Features)*len(c.Verticals))
	for _, f := range c.Features {
		for _, v := range c.Verticals {
			keys = append(keys, FeatureKey{Name: f.Name, Vertical: v})
		}
	}
	return keys
}

// KeysFor returns the configured column keys belonging to one vertical, in
// template order.
func (c *ScoringConfig) KeysFor(v Vertical) []FeatureKey {
	keys := make([]FeatureKey, 0, len(c.Features))
	for _, f := range c.Features {
		keys = append(keys, FeatureKey{Name: f.Name, Vertical: v})
	}
	return keys
}
