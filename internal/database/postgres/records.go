package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
)

// RecordRepository provides PostgreSQL-backed attendance record storage.
// Put enforces the expected revision so a lost race surfaces as
// attendance.ErrConcurrentConflict instead of a silent overwrite.
type RecordRepository struct {
	pool *Pool
}

// NewRecordRepository creates a new PostgreSQL record repository.
func NewRecordRepository(pool *Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// Get retrieves the authoritative record for a key, nil when absent.
func (r *RecordRepository) Get(ctx context.Context, key attendance.Key) (*attendance.Record, error) {
	query := `
		SELECT status, method, marked_by, marked_at, confidence, label, geo_lat, geo_lng, revision
		FROM attendance_records
		WHERE student_id = $1 AND course_id = $2 AND date = $3
	`

	rec := attendance.Record{Key: key}
	var confidence sql.NullFloat64
	var label sql.NullString
	var lat, lng sql.NullFloat64
	err := r.pool.QueryRow(ctx, query, key.StudentID, key.CourseID, key.Date).Scan(
		&rec.Status,
		&rec.Method,
		&rec.MarkedBy,
		&rec.MarkedAt,
		&confidence,
		&label,
		&lat,
		&lng,
		&rec.Revision,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	if confidence.Valid {
		rec.Confidence = &confidence.Float64
	}
	if label.Valid {
		rec.Label = label.String
	}
	if lat.Valid && lng.Valid {
		rec.Geo = &attendance.Geo{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &rec, nil
}

// Put inserts (expectedRevision 0) or replaces the record, guarded by the
// stored revision. Zero rows affected means another writer got there first.
func (r *RecordRepository) Put(ctx context.Context, rec *attendance.Record, expectedRevision int) error {
	var lat, lng sql.NullFloat64
	if rec.Geo != nil {
		lat = sql.NullFloat64{Float64: rec.Geo.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: rec.Geo.Lng, Valid: true}
	}
	var confidence sql.NullFloat64
	if rec.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *rec.Confidence, Valid: true}
	}
	var label sql.NullString
	if rec.Label != "" {
		label = sql.NullString{String: rec.Label, Valid: true}
	}

	if expectedRevision == 0 {
		query := `
			INSERT INTO attendance_records
				(student_id, course_id, date, status, method, marked_by, marked_at, confidence, label, geo_lat, geo_lng, revision)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (student_id, course_id, date) DO NOTHING
		`
		result, err := r.pool.Exec(ctx, query,
			rec.Key.StudentID, rec.Key.CourseID, rec.Key.Date,
			rec.Status, rec.Method, rec.MarkedBy, rec.MarkedAt,
			confidence, label, lat, lng, rec.Revision,
		)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("getting rows affected: %w", err)
		}
		if affected == 0 {
			return attendance.ErrConcurrentConflict
		}
		return nil
	}

	query := `
		UPDATE attendance_records
		SET status = $4, method = $5, marked_by = $6, marked_at = $7,
		    confidence = $8, label = $9, geo_lat = $10, geo_lng = $11,
		    revision = $12, updated_at = NOW()
		WHERE student_id = $1 AND course_id = $2 AND date = $3 AND revision = $13
	`
	result, err := r.pool.Exec(ctx, query,
		rec.Key.StudentID, rec.Key.CourseID, rec.Key.Date,
		rec.Status, rec.Method, rec.MarkedBy, rec.MarkedAt,
		confidence, label, lat, lng, rec.Revision, expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return attendance.ErrConcurrentConflict
	}
	return nil
}

// ListByCourseDate returns all authoritative records for a course on a date.
func (r *RecordRepository) ListByCourseDate(ctx context.Context, courseID, date string) ([]attendance.Record, error) {
	query := `
		SELECT student_id, status, method, marked_by, marked_at, confidence, label, geo_lat, geo_lng, revision
		FROM attendance_records
		WHERE course_id = $1 AND date = $2
		ORDER BY student_id
	`

	rows, err := r.pool.Query(ctx, query, courseID, date)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec := attendance.Record{Key: attendance.Key{CourseID: courseID, Date: date}}
		var confidence sql.NullFloat64
		var label sql.NullString
		var lat, lng sql.NullFloat64
		if err := rows.Scan(
			&rec.Key.StudentID,
			&rec.Status,
			&rec.Method,
			&rec.MarkedBy,
			&rec.MarkedAt,
			&confidence,
			&label,
			&lat,
			&lng,
			&rec.Revision,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if confidence.Valid {
			rec.Confidence = &confidence.Float64
		}
		if label.Valid {
			rec.Label = label.String
		}
		if lat.Valid && lng.Valid {
			rec.Geo = &attendance.Geo{Lat: lat.Float64, Lng: lng.Float64}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
