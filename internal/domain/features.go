package domain

import "fmt"

// MemberID uniquely identifies a member across all source tables.
type MemberID string

// FeatureClass describes the semantics of a feature, which determine its
// imputation fill value and its normalization direction.
type FeatureClass int

const (
	// ClassRecency is "days since last event": smaller is better, missing
	// means never observed. Percentile ranks are inverted.
	ClassRecency FeatureClass = iota
	// ClassCount is a non-negative event count over a window.
	ClassCount
	// ClassFrequency is a purchase count over a window.
	ClassFrequency
	// ClassMonetary is a monetary amount attributable to a vertical.
	ClassMonetary
)

// String returns the class name for logs and errors.
func (c FeatureClass) String() string {
	switch c {
	case ClassRecency:
		return "recency"
	case ClassCount:
		return "count"
	case ClassFrequency:
		return "frequency"
	case ClassMonetary:
		return "monetary"
	default:
		return "unknown"
	}
}

// Inverted reports whether higher raw values mean a weaker signal, so the
// percentile rank must be flipped during normalization.
func (c FeatureClass) Inverted() bool {
	return c == ClassRecency
}

// FeatureSpec describes one abstract feature, independent of vertical. The
// concrete table columns are generated per vertical via FeatureKey.
type FeatureSpec struct {
	Name   string
	Class  FeatureClass
	Weight float64
}

// FeatureKey identifies one concrete feature column: an abstract feature
// applied to one vertical.
type FeatureKey struct {
	Name     string
	Vertical Vertical
}

// Column returns the flattened column name used at storage and logging
// boundaries, e.g. "f_4m_running".
func (k FeatureKey) Column() string {
	return fmt.Sprintf("%s_%s", k.Name, k.Vertical)
}

// Abstract feature names shared between the weight template and the source
// builders. Each expands to one column per vertical.
const (
	FeatureRecency      = "r"
	FeatureFreq4M       = "f_4m"
	FeatureFreq1Y       = "f_1y"
	FeatureMonetary4M   = "m_4m"
	FeatureMonetary1Y   = "m_1y"
	FeaturePDPViewCount = "pdp_view_6m_count"
	FeaturePDPViewDays  = "pdp_view_days_since_last"
	FeatureATCCount     = "atc_6m_count"
	FeatureATCDays      = "atc_days_since_last"
	FeatureActivityCnt  = "activity_count"
	FeatureNaviCount    = "navi_6m_count"
)
