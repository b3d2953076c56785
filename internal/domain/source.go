package domain

import "time"

// SourceRow is one member's values in a source feature table.
type SourceRow struct {
	Member MemberID
	Values map[FeatureKey]float64
}

// SourceTable is one feature family's contribution before the merge:
// digital behavior, community activity, or RFM. Columns declare the full
// set of feature keys the source produces; a member row may omit keys, and
// omitted cells stay missing through the merge.
type SourceTable struct {
	Name    string
	Columns []FeatureKey
	Rows    []SourceRow
}

// Windows holds the date boundaries of one pipeline run. Scoring features
// are computed from data before Reference; the evaluation window runs from
// Reference to Now so ground truth never leaks into the features.
type Windows struct {
	Now             time.Time
	Reference       time.Time
	EngagementStart time.Time
	RFMShortStart   time.Time
	RFMLongStart    time.Time
}

// NewWindows derives the run windows from the wall clock and the configured
// month spans.
func NewWindows(now time.Time, evalMonths, engagementMonths, rfmShortMonths, rfmLongMonths int) Windows {
	ref := addMonths(now, -evalMonths)
	return Windows{
		Now:             now,
		Reference:       ref,
		EngagementStart: addMonths(ref, -engagementMonths),
		RFMShortStart:   addMonths(ref, -rfmShortMonths),
		RFMLongStart:    addMonths(ref, -rfmLongMonths),
	}
}

// addMonths shifts t by a number of calendar months, clamping to the last
// day of the target month instead of letting the overflow spill into the
// next one (Aug 31 minus 4 months is Apr 30, not May 1).
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
