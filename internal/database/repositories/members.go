package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

// MemberRepository reads the member roster.
type MemberRepository struct {
	*BaseRepository
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *sql.DB, log zerolog.Logger) *MemberRepository {
	return &MemberRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "members").Logger()),
	}
}

// ListScorable returns member ids eligible for scoring: the roster minus
// employees, in sorted order.
func (r *MemberRepository) ListScorable() ([]domain.MemberID, error) {
	query := `
		SELECT m.member_uid
		FROM members m
		LEFT JOIN employees e ON m.member_uid = e.member_uid
		WHERE e.member_uid IS NULL AND m.member_uid != ''
		ORDER BY m.member_uid
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scorable members: %w", err)
	}
	defer rows.Close()

	var members []domain.MemberID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, domain.MemberID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member rows: %w", err)
	}

	r.log.Debug().Int("members", len(members)).Msg("Loaded scorable roster")
	return members, nil
}
