package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
	"github.com/kozaktomas/attendance-engine/internal/constants"
)

// AuditRepository provides the PostgreSQL-backed append-only audit trail.
// There is deliberately no update or delete path.
type AuditRepository struct {
	pool *Pool
}

// NewAuditRepository creates a new PostgreSQL audit repository.
func NewAuditRepository(pool *Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append stores one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry *attendance.AuditEntry) error {
	query := `
		INSERT INTO attendance_audit
			(id, attempt_id, student_id, course_id, date, actor_id, actor_role, method, outcome, status, reason, score, prev_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	var status, reason sql.NullString
	if entry.Status != "" {
		status = sql.NullString{String: string(entry.Status), Valid: true}
	}
	if entry.Reason != "" {
		reason = sql.NullString{String: entry.Reason, Valid: true}
	}
	var score sql.NullFloat64
	if entry.Score != nil {
		score = sql.NullFloat64{Float64: *entry.Score, Valid: true}
	}
	var prevID sql.NullString
	if entry.PrevID != "" {
		prevID = sql.NullString{String: entry.PrevID, Valid: true}
	}

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.AttemptID,
		entry.Key.StudentID, entry.Key.CourseID, entry.Key.Date,
		entry.ActorID, entry.ActorRole, entry.Method,
		entry.Outcome, status, reason, score, prevID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// List returns the trail for a key in append order. The read is restartable:
// rows are ordered by insertion sequence, and entries are never mutated.
func (r *AuditRepository) List(ctx context.Context, key attendance.Key) ([]attendance.AuditEntry, error) {
	query := `
		SELECT id, attempt_id, actor_id, actor_role, method, outcome, status, reason, score, prev_id, created_at
		FROM attendance_audit
		WHERE student_id = $1 AND course_id = $2 AND date = $3
		ORDER BY seq
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, key.StudentID, key.CourseID, key.Date, constants.DefaultAuditPageSize)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []attendance.AuditEntry
	for rows.Next() {
		entry := attendance.AuditEntry{Key: key}
		var status, reason, prevID sql.NullString
		var score sql.NullFloat64
		if err := rows.Scan(
			&entry.ID,
			&entry.AttemptID,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.Method,
			&entry.Outcome,
			&status,
			&reason,
			&score,
			&prevID,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Status = attendance.Status(status.String)
		entry.Reason = reason.String
		entry.PrevID = prevID.String
		if score.Valid {
			entry.Score = &score.Float64
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// Last returns the most recent entry for a key, nil when the trail is empty.
func (r *AuditRepository) Last(ctx context.Context, key attendance.Key) (*attendance.AuditEntry, error) {
	query := `
		SELECT id, attempt_id, actor_id, actor_role, method, outcome, status, reason, score, prev_id, created_at
		FROM attendance_audit
		WHERE student_id = $1 AND course_id = $2 AND date = $3
		ORDER BY seq DESC
		LIMIT 1
	`

	entry := attendance.AuditEntry{Key: key}
	var status, reason, prevID sql.NullString
	var score sql.NullFloat64
	err := r.pool.QueryRow(ctx, query, key.StudentID, key.CourseID, key.Date).Scan(
		&entry.ID,
		&entry.AttemptID,
		&entry.ActorID,
		&entry.ActorRole,
		&entry.Method,
		&entry.Outcome,
		&status,
		&reason,
		&score,
		&prevID,
		&entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last audit entry: %w", err)
	}
	entry.Status = attendance.Status(status.String)
	entry.Reason = reason.String
	entry.PrevID = prevID.String
	if score.Valid {
		entry.Score = &score.Float64
	}
	return &entry, nil
}
