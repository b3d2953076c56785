package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/internal/modules/community"
)

// CommunityRepository builds the community-activity source table:
// per-vertical participation counts, with activities categorized into
// verticals by keyword rules on the activity name.
type CommunityRepository struct {
	*BaseRepository
	categorizer *community.Categorizer
}

// NewCommunityRepository creates a new community activity repository
func NewCommunityRepository(db *sql.DB, categorizer *community.Categorizer, log zerolog.Logger) *CommunityRepository {
	return &CommunityRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "community").Logger()),
		categorizer:    categorizer,
	}
}

// BuildSource counts activity participations per member per vertical.
func (r *CommunityRepository) BuildSource(verticals []domain.Vertical) (domain.SourceTable, error) {
	source := domain.SourceTable{Name: "community_activity"}
	for _, v := range verticals {
		source.Columns = append(source.Columns,
			domain.FeatureKey{Name: domain.FeatureActivityCnt, Vertical: v})
	}

	query := `
		SELECT member_uid, activity_name
		FROM community_activities
		WHERE member_uid != ''
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return source, fmt.Errorf("failed to load community activities: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.MemberID]map[domain.FeatureKey]float64)
	total := 0
	for rows.Next() {
		var member, name string
		if err := rows.Scan(&member, &name); err != nil {
			return source, fmt.Errorf("failed to scan activity row: %w", err)
		}
		vertical := r.categorizer.Categorize(name)
		key := domain.FeatureKey{Name: domain.FeatureActivityCnt, Vertical: vertical}

		id := domain.MemberID(member)
		if _, ok := counts[id]; !ok {
			counts[id] = make(map[domain.FeatureKey]float64)
		}
		counts[id][key]++
		total++
	}
	if err := rows.Err(); err != nil {
		return source, fmt.Errorf("failed to iterate activity rows: %w", err)
	}

	for member, values := range counts {
		source.Rows = append(source.Rows, domain.SourceRow{Member: member, Values: values})
	}
	r.log.Debug().Int("members", len(source.Rows)).Int("activities", total).Msg("Built community activity source")
	return source, nil
}
