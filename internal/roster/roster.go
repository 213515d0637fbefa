// Package roster provides read access to student enrollment data. The
// engine never owns this data; it is sourced from the institution's student
// information system and only read here.
package roster

import "context"

// Student is an immutable identity record owned by the roster collaborator.
type Student struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RollNumber  string `json:"roll_number"`
	Department  string `json:"department,omitempty"`
	TemplateRef string `json:"template_ref,omitempty"` // biometric template reference, optional
}

// Provider resolves students and course enrollment.
type Provider interface {
	// GetEnrolled returns the students enrolled in a course, keyed by id.
	// Returns an empty map for a known course with no enrollment and an
	// error for an unknown course.
	GetEnrolled(ctx context.Context, courseID string) (map[string]Student, error)

	// GetStudent returns a student by id, or nil when not found.
	GetStudent(ctx context.Context, id string) (*Student, error)

	// CoursesForActor returns the course ids an actor is associated with.
	// Used to populate faculty course associations at the access boundary.
	CoursesForActor(ctx context.Context, actorID string) ([]string, error)
}
