package repositories

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

// Tracked event names in the tracking_events table.
const (
	EventPDPView   = "pdp_view"
	EventAddToCart = "add_to_cart"
	EventNaviClick = "category_navi_click"
)

// DigitalRepository builds the digital-behavior source table: per-vertical
// product-page view and add-to-cart counts with days-since-last, plus
// category-navigation click counts, all within the engagement window.
type DigitalRepository struct {
	*BaseRepository
}

// NewDigitalRepository creates a new digital behavior repository
func NewDigitalRepository(db *sql.DB, log zerolog.Logger) *DigitalRepository {
	return &DigitalRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "digital").Logger()),
	}
}

// BuildSource aggregates tracking events into the digital feature family.
// Events on products whose vertical label resolves to no known vertical
// are dropped and counted. Days-since-last is measured from the scoring
// reference date, not the wall clock, so features never see the
// evaluation window.
func (r *DigitalRepository) BuildSource(w domain.Windows, verticals []domain.Vertical) (domain.SourceTable, error) {
	source := domain.SourceTable{Name: "digital_behavior"}
	for _, v := range verticals {
		source.Columns = append(source.Columns,
			domain.FeatureKey{Name: domain.FeaturePDPViewCount, Vertical: v},
			domain.FeatureKey{Name: domain.FeaturePDPViewDays, Vertical: v},
			domain.FeatureKey{Name: domain.FeatureATCCount, Vertical: v},
			domain.FeatureKey{Name: domain.FeatureATCDays, Vertical: v},
			domain.FeatureKey{Name: domain.FeatureNaviCount, Vertical: v},
		)
	}

	rowsByMember := make(map[domain.MemberID]map[domain.FeatureKey]float64)
	cell := func(m domain.MemberID) map[domain.FeatureKey]float64 {
		if _, ok := rowsByMember[m]; !ok {
			rowsByMember[m] = make(map[domain.FeatureKey]float64)
		}
		return rowsByMember[m]
	}

	unknownVertical := 0

	// Product-page views and add-to-cart events, joined to the product
	// catalog for the vertical label.
	query := `
		SELECT e.member_uid, e.event_name, p.vertical, COUNT(*), MAX(e.event_time)
		FROM tracking_events e
		JOIN products p ON e.product_id = p.product_id
		WHERE e.event_name IN (?, ?)
		  AND e.member_uid != ''
		  AND e.event_time >= ? AND e.event_time < ?
		GROUP BY e.member_uid, e.event_name, p.vertical
	`
	rows, err := r.db.Query(query,
		EventPDPView, EventAddToCart,
		w.EngagementStart.Format(time.RFC3339), w.Reference.Format(time.RFC3339))
	if err != nil {
		return source, fmt.Errorf("failed to aggregate tracking events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			member, eventName, label, lastRaw string
			count                             float64
		)
		if err := rows.Scan(&member, &eventName, &label, &count, &lastRaw); err != nil {
			return source, fmt.Errorf("failed to scan tracking event row: %w", err)
		}

		vertical, ok := domain.CanonicalVertical(label)
		if !ok {
			unknownVertical++
			continue
		}
		last, err := time.Parse(time.RFC3339, lastRaw)
		if err != nil {
			return source, fmt.Errorf("failed to parse event time %q for member %q: %w", lastRaw, member, err)
		}
		days := math.Floor(w.Reference.Sub(last).Hours() / 24)
		if days < 0 {
			days = 0
		}

		countKey := domain.FeatureKey{Name: domain.FeaturePDPViewCount, Vertical: vertical}
		daysKey := domain.FeatureKey{Name: domain.FeaturePDPViewDays, Vertical: vertical}
		if eventName == EventAddToCart {
			countKey = domain.FeatureKey{Name: domain.FeatureATCCount, Vertical: vertical}
			daysKey = domain.FeatureKey{Name: domain.FeatureATCDays, Vertical: vertical}
		}

		c := cell(domain.MemberID(member))
		// Two raw labels can resolve to the same vertical: counts add up,
		// recency keeps the most recent.
		c[countKey] += count
		if existing, ok := c[daysKey]; !ok || days < existing {
			c[daysKey] = days
		}
	}
	if err := rows.Err(); err != nil {
		return source, fmt.Errorf("failed to iterate tracking event rows: %w", err)
	}

	if err := r.addNaviCounts(w, cell); err != nil {
		return source, err
	}

	if unknownVertical > 0 {
		r.log.Warn().Int("rows", unknownVertical).Msg("Dropped event aggregates with unknown vertical label")
	}

	for member, values := range rowsByMember {
		source.Rows = append(source.Rows, domain.SourceRow{Member: member, Values: values})
	}
	r.log.Debug().Int("members", len(source.Rows)).Msg("Built digital behavior source")
	return source, nil
}

// addNaviCounts aggregates category-navigation clicks per vertical. The
// category column carries the vertical label directly.
func (r *DigitalRepository) addNaviCounts(w domain.Windows, cell func(domain.MemberID) map[domain.FeatureKey]float64) error {
	query := `
		SELECT member_uid, category, COUNT(*)
		FROM tracking_events
		WHERE event_name = ?
		  AND member_uid != '' AND category IS NOT NULL
		  AND event_time >= ? AND event_time < ?
		GROUP BY member_uid, category
	`
	rows, err := r.db.Query(query,
		EventNaviClick,
		w.EngagementStart.Format(time.RFC3339), w.Reference.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to aggregate navigation clicks: %w", err)
	}
	defer rows.Close()

	unknown := 0
	for rows.Next() {
		var (
			member, category string
			count            float64
		)
		if err := rows.Scan(&member, &category, &count); err != nil {
			return fmt.Errorf("failed to scan navigation row: %w", err)
		}
		vertical, ok := domain.CanonicalVertical(category)
		if !ok {
			unknown++
			continue
		}
		cell(domain.MemberID(member))[domain.FeatureKey{Name: domain.FeatureNaviCount, Vertical: vertical}] += count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate navigation rows: %w", err)
	}
	if unknown > 0 {
		r.log.Warn().Int("rows", unknown).Msg("Dropped navigation aggregates with unknown category")
	}
	return nil
}
