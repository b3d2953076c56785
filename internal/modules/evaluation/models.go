package evaluation

import "github.com/crmdata/vertical-affinity/internal/domain"

// MemberActuals is one member's observed purchase behavior over the
// evaluation window.
type MemberActuals struct {
	// Purchases is the purchase count per vertical.
	Purchases map[domain.Vertical]float64
	// SalesShare is the share of the member's revenue attributable to each
	// vertical, in [0,1].
	SalesShare map[domain.Vertical]float64
}

// GroundTruth maps members to their observed behavior. Members absent from
// the map are treated as having zero activity.
type GroundTruth map[domain.MemberID]MemberActuals

// VerticalComparison compares the cohort predicted for a vertical against
// everyone else. Ratios are predicted-cohort rate over rest-cohort rate; a
// ratio of 1.0 means no lift, and NaN marks an undefined ratio (the rest
// cohort had zero relevant activity).
type VerticalComparison struct {
	Vertical domain.Vertical `json:"vertical"`

	PredictedSize    int `json:"predicted_group_size"`
	NotPredictedSize int `json:"not_predicted_group_size"`

	CVRPredicted    float64 `json:"cvr_predicted"`
	CVRNotPredicted float64 `json:"cvr_not_predicted"`
	CVRRatio        float64 `json:"cvr_ratio"`

	AvgPurchasePredicted    float64 `json:"avg_purchase_predicted"`
	AvgPurchaseNotPredicted float64 `json:"avg_purchase_not_predicted"`
	PurchaseRatio           float64 `json:"purchase_ratio"`

	AvgSalesSharePredicted    float64 `json:"avg_sales_share_predicted"`
	AvgSalesShareNotPredicted float64 `json:"avg_sales_share_not_predicted"`
	SalesShareRatio           float64 `json:"sales_share_ratio"`
}

// Report is the full evaluation output: one comparison row per vertical.
type Report struct {
	Rows []VerticalComparison `json:"rows"`
}
