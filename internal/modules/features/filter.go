package features

import "github.com/crmdata/vertical-affinity/internal/domain"

// FilterTouchpoints returns a new table retaining only members with at
// least one observed, non-zero cell in any feature column. Members with no
// signal at all must be dropped before normalization: their imputed
// recency sentinels would otherwise earn a moderate inverted percentile
// rank and skew every column's distribution.
//
// Returns the filtered table and the number of members dropped.
func FilterTouchpoints(t *domain.FeatureTable) (*domain.FeatureTable, int) {
	keep := make([]domain.MemberID, 0, t.NumRows())
	for _, m := range t.Members() {
		if t.RowHasSignal(m) {
			keep = append(keep, m)
		}
	}
	return t.SelectMembers(keep), t.NumRows() - len(keep)
}
