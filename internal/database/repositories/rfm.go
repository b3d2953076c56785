package repositories

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

// RFMRepository builds the purchase RFM source table: per-vertical recency
// in days plus frequency and monetary value over the short and long
// windows, all as of the scoring reference date.
type RFMRepository struct {
	*BaseRepository
}

// NewRFMRepository creates a new RFM repository
func NewRFMRepository(db *sql.DB, log zerolog.Logger) *RFMRepository {
	return &RFMRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "rfm").Logger()),
	}
}

// BuildSource aggregates orders per member per vertical. Gift orders and
// empty member ids are excluded, orders on or after the reference date are
// excluded so evaluation-window purchases never leak into the features,
// and negative derived values are clipped to zero.
func (r *RFMRepository) BuildSource(w domain.Windows, verticals []domain.Vertical) (domain.SourceTable, error) {
	source := domain.SourceTable{Name: "rfm"}
	for _, v := range verticals {
		source.Columns = append(source.Columns,
			domain.FeatureKey{Name: domain.FeatureRecency, Vertical: v},
			domain.FeatureKey{Name: domain.FeatureFreq4M, Vertical: v},
			domain.FeatureKey{Name: domain.FeatureFreq1Y, Vertical: v},
			domain.FeatureKey{Name: domain.FeatureMonetary4M, Vertical: v},
			domain.FeatureKey{Name: domain.FeatureMonetary1Y, Vertical: v},
		)
	}

	// Recency looks at the full purchase history before the reference
	// date; frequency and monetary are windowed by the conditional sums.
	query := `
		SELECT
			member_uid,
			vertical,
			MAX(order_date),
			SUM(CASE WHEN order_date >= ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN order_date >= ? THEN amount ELSE 0 END),
			SUM(CASE WHEN order_date >= ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN order_date >= ? THEN amount ELSE 0 END)
		FROM orders
		WHERE member_uid != '' AND is_gift = 0 AND order_date < ?
		GROUP BY member_uid, vertical
	`
	shortStart := w.RFMShortStart.Format(dateLayout)
	longStart := w.RFMLongStart.Format(dateLayout)
	ref := w.Reference.Format(dateLayout)

	rows, err := r.db.Query(query, shortStart, shortStart, longStart, longStart, ref)
	if err != nil {
		return source, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	defer rows.Close()

	byMember := make(map[domain.MemberID]map[domain.FeatureKey]float64)
	unknownVertical := 0

	for rows.Next() {
		var (
			member, label, lastRaw                 string
			freqShort, monShort, freqLong, monLong float64
		)
		if err := rows.Scan(&member, &label, &lastRaw, &freqShort, &monShort, &freqLong, &monLong); err != nil {
			return source, fmt.Errorf("failed to scan order aggregate row: %w", err)
		}

		vertical, ok := domain.CanonicalVertical(label)
		if !ok {
			unknownVertical++
			continue
		}
		last, err := time.Parse(dateLayout, lastRaw)
		if err != nil {
			return source, fmt.Errorf("failed to parse order date %q for member %q: %w", lastRaw, member, err)
		}
		recencyDays := math.Floor(w.Reference.Sub(last).Hours() / 24)
		if recencyDays < 0 {
			recencyDays = 0
		}

		id := domain.MemberID(member)
		values, ok := byMember[id]
		if !ok {
			values = make(map[domain.FeatureKey]float64)
			byMember[id] = values
		}

		// Alias labels resolving to the same vertical combine: recency
		// keeps the smallest, windowed sums add up.
		rKey := domain.FeatureKey{Name: domain.FeatureRecency, Vertical: vertical}
		if existing, ok := values[rKey]; !ok || recencyDays < existing {
			values[rKey] = recencyDays
		}
		values[domain.FeatureKey{Name: domain.FeatureFreq4M, Vertical: vertical}] += clipNonNegative(freqShort)
		values[domain.FeatureKey{Name: domain.FeatureMonetary4M, Vertical: vertical}] += clipNonNegative(monShort)
		values[domain.FeatureKey{Name: domain.FeatureFreq1Y, Vertical: vertical}] += clipNonNegative(freqLong)
		values[domain.FeatureKey{Name: domain.FeatureMonetary1Y, Vertical: vertical}] += clipNonNegative(monLong)
	}
	if err := rows.Err(); err != nil {
		return source, fmt.Errorf("failed to iterate order aggregate rows: %w", err)
	}

	if unknownVertical > 0 {
		r.log.Warn().Int("rows", unknownVertical).Msg("Dropped order aggregates with unknown vertical label")
	}

	for member, values := range byMember {
		source.Rows = append(source.Rows, domain.SourceRow{Member: member, Values: values})
	}
	r.log.Debug().Int("members", len(source.Rows)).Msg("Built RFM source")
	return source, nil
}

const dateLayout = "2006-01-02"

func clipNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
