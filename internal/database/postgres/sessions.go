package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
)

// SessionRepository resolves course session windows from PostgreSQL.
// Sessions without an explicit grace use the configured default.
type SessionRepository struct {
	pool         *Pool
	defaultGrace time.Duration
}

// NewSessionRepository creates a new PostgreSQL session repository.
func NewSessionRepository(pool *Pool, defaultGrace time.Duration) *SessionRepository {
	return &SessionRepository{pool: pool, defaultGrace: defaultGrace}
}

// GetWindow returns the marking window for a course on a date, or an error
// when no session is scheduled.
func (r *SessionRepository) GetWindow(ctx context.Context, courseID, date string) (*attendance.Window, error) {
	query := `
		SELECT starts_at, ends_at, grace_minutes
		FROM course_sessions
		WHERE course_id = $1 AND date = $2
	`

	var w attendance.Window
	var grace sql.NullInt64
	err := r.pool.QueryRow(ctx, query, courseID, date).Scan(&w.Start, &w.End, &grace)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no session scheduled for course %s on %s", courseID, date)
	}
	if err != nil {
		return nil, fmt.Errorf("get session window: %w", err)
	}

	if grace.Valid {
		w.Grace = time.Duration(grace.Int64) * time.Minute
	} else {
		w.Grace = r.defaultGrace
	}
	return &w, nil
}

// PutWindow creates or replaces a session window. Used by schedule imports
// and integration tests.
func (r *SessionRepository) PutWindow(ctx context.Context, courseID, date string, w attendance.Window) error {
	query := `
		INSERT INTO course_sessions (course_id, date, starts_at, ends_at, grace_minutes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (course_id, date) DO UPDATE SET
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			grace_minutes = EXCLUDED.grace_minutes
	`

	graceMinutes := int64(w.Grace / time.Minute)
	_, err := r.pool.Exec(ctx, query, courseID, date, w.Start, w.End, graceMinutes)
	if err != nil {
		return fmt.Errorf("put session window: %w", err)
	}
	return nil
}
