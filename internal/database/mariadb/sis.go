package mariadb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/attendance-engine/internal/roster"
)

// Enrollment links one student to one course in the SIS.
type Enrollment struct {
	CourseID  string
	StudentID string
}

// Teaching links one faculty member to one course in the SIS.
type Teaching struct {
	ActorID  string
	CourseID string
}

// ListStudents returns every active student known to the SIS.
func (p *Pool) ListStudents(ctx context.Context) ([]roster.Student, error) {
	query := `
		SELECT id, full_name, roll_number, department, face_template_ref
		FROM students
		WHERE active = 1
		ORDER BY id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []roster.Student
	for rows.Next() {
		var s roster.Student
		var department, templateRef sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNumber, &department, &templateRef); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		s.Department = department.String
		s.TemplateRef = templateRef.String
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// ListEnrollments returns every active course enrollment.
func (p *Pool) ListEnrollments(ctx context.Context) ([]Enrollment, error) {
	query := `
		SELECT course_id, student_id
		FROM enrollments
		WHERE dropped_at IS NULL
		ORDER BY course_id, student_id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.CourseID, &e.StudentID); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return enrollments, nil
}

// ListTeaching returns every faculty course association.
func (p *Pool) ListTeaching(ctx context.Context) ([]Teaching, error) {
	query := `
		SELECT faculty_id, course_id
		FROM course_faculty
		ORDER BY faculty_id, course_id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query teaching assignments: %w", err)
	}
	defer rows.Close()

	var teaching []Teaching
	for rows.Next() {
		var t Teaching
		if err := rows.Scan(&t.ActorID, &t.CourseID); err != nil {
			return nil, fmt.Errorf("scan teaching assignment: %w", err)
		}
		teaching = append(teaching, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teaching assignments: %w", err)
	}
	return teaching, nil
}
