package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/attendance-engine/internal/roster"
)

// RosterRepository serves roster reads from the local cache tables, which
// `roster sync` refreshes from the institution's student information system.
type RosterRepository struct {
	pool *Pool
}

// NewRosterRepository creates a new PostgreSQL roster cache repository.
func NewRosterRepository(pool *Pool) *RosterRepository {
	return &RosterRepository{pool: pool}
}

// GetEnrolled returns the students enrolled in a course, keyed by id.
func (r *RosterRepository) GetEnrolled(ctx context.Context, courseID string) (map[string]roster.Student, error) {
	var known bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM roster_enrollments WHERE course_id = $1)", courseID,
	).Scan(&known)
	if err != nil {
		return nil, fmt.Errorf("check course: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("course %q not found", courseID)
	}

	query := `
		SELECT s.id, s.name, s.roll_number, s.department, s.template_ref
		FROM roster_students s
		JOIN roster_enrollments e ON e.student_id = s.id
		WHERE e.course_id = $1
	`
	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	defer rows.Close()

	enrolled := make(map[string]roster.Student)
	for rows.Next() {
		var s roster.Student
		var department, templateRef sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNumber, &department, &templateRef); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		s.Department = department.String
		s.TemplateRef = templateRef.String
		enrolled[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return enrolled, nil
}

// GetStudent returns a student by id, nil when not found.
func (r *RosterRepository) GetStudent(ctx context.Context, id string) (*roster.Student, error) {
	query := `
		SELECT id, name, roll_number, department, template_ref
		FROM roster_students
		WHERE id = $1
	`

	var s roster.Student
	var department, templateRef sql.NullString
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.RollNumber, &department, &templateRef)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	s.Department = department.String
	s.TemplateRef = templateRef.String
	return &s, nil
}

// CoursesForActor returns the course ids an actor teaches.
func (r *RosterRepository) CoursesForActor(ctx context.Context, actorID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT course_id FROM roster_teaching WHERE actor_id = $1 ORDER BY course_id", actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses for actor: %w", err)
	}
	defer rows.Close()

	var courses []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan course id: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

// UpsertStudent writes one student into the cache.
func (r *RosterRepository) UpsertStudent(ctx context.Context, s roster.Student) error {
	query := `
		INSERT INTO roster_students (id, name, roll_number, department, template_ref, synced_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			roll_number = EXCLUDED.roll_number,
			department = EXCLUDED.department,
			template_ref = EXCLUDED.template_ref,
			synced_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.RollNumber, s.Department, s.TemplateRef)
	if err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

// ReplaceEnrollments replaces the enrollment rows for a course.
func (r *RosterRepository) ReplaceEnrollments(ctx context.Context, courseID string, studentIDs []string) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM roster_enrollments WHERE course_id = $1", courseID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear enrollments: %w", err)
	}
	for _, id := range studentIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO roster_enrollments (course_id, student_id) VALUES ($1, $2)", courseID, id,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert enrollment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollments: %w", err)
	}
	return nil
}

// ReplaceTeaching replaces the course associations for an actor.
func (r *RosterRepository) ReplaceTeaching(ctx context.Context, actorID string, courseIDs []string) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM roster_teaching WHERE actor_id = $1", actorID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear teaching: %w", err)
	}
	for _, c := range courseIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO roster_teaching (actor_id, course_id) VALUES ($1, $2)", actorID, c,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert teaching: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit teaching: %w", err)
	}
	return nil
}
