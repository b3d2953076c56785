package domain

import "sort"

// Vertical is a fixed product category a member can have affinity toward.
type Vertical string

const (
	VerticalAllDay   Vertical = "allday"
	VerticalOutdoor  Vertical = "outdoor"
	VerticalRunning  Vertical = "running"
	VerticalTennis   Vertical = "tennis"
	VerticalTraining Vertical = "training"
)

// NoInterest is the sentinel prediction for members whose maximum affinity
// score does not clear the configured floor.
const NoInterest Vertical = "no_interest"

// RequiredVerticals returns the fixed vertical set in lexicographic order.
// The order matters: argmax tie-breaks resolve to the first vertical in
// this order, so iteration must be deterministic.
func RequiredVerticals() []Vertical {
	return []Vertical{
		VerticalAllDay,
		VerticalOutdoor,
		VerticalRunning,
		VerticalTennis,
		VerticalTraining,
	}
}

// verticalAliases maps raw product/order category labels to canonical
// vertical names as they appear in the source tables.
var verticalAliases = map[string]Vertical{
	"Performance All Day":  VerticalAllDay,
	"PAD":                  VerticalAllDay,
	"Performance Running":  VerticalRunning,
	"PR":                   VerticalRunning,
	"Performance Training": VerticalTraining,
	"PTR":                  VerticalTraining,
	"Performance Outdoor":  VerticalOutdoor,
	"PO":                   VerticalOutdoor,
	"Performance Tennis":   VerticalTennis,
	"PT":                   VerticalTennis,
}

// CanonicalVertical resolves a raw category label (alias or canonical name)
// to its vertical. Returns false for labels outside the required set.
func CanonicalVertical(label string) (Vertical, bool) {
	if v, ok := verticalAliases[label]; ok {
		return v, true
	}
	v := Vertical(label)
	for _, rv := range RequiredVerticals() {
		if v == rv {
			return v, true
		}
	}
	return "", false
}

// SortVerticals sorts a vertical slice lexicographically in place.
func SortVerticals(vs []Vertical) {
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
}
