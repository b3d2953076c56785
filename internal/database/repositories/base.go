// Package repositories implements the data-acquisition collaborators of
// the affinity pipeline: they turn the raw relational tables (members,
// tracking events, community activities, orders) into the member-keyed
// source tables the core consumes, and persist the scored and evaluation
// tables per run.
package repositories

import (
	"database/sql"

	"github.com/rs/zerolog"
)

// BaseRepository provides common database operations
type BaseRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBase creates a new base repository
func NewBase(db *sql.DB, log zerolog.Logger) *BaseRepository {
	return &BaseRepository{
		db:  db,
		log: log,
	}
}

// DB returns the database connection
func (r *BaseRepository) DB() *sql.DB {
	return r.db
}
