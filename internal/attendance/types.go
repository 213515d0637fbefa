// Package attendance implements the verification engine that turns raw
// identity-match signals into durable, non-duplicated, auditable attendance
// records.
package attendance

import (
	"fmt"
	"time"
)

// Status is the visible state of an attendance record.
type Status string

const (
	StatusPresent       Status = "present"
	StatusAbsent        Status = "absent"
	StatusLate          Status = "late"
	StatusPendingReview Status = "pending_review"
	StatusRejected      Status = "rejected"
)

// Terminal reports whether the status is stable unless explicitly corrected.
func (s Status) Terminal() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusLate || s == StatusRejected
}

// ParseStatus validates a status string against the closed enum.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPresent, StatusAbsent, StatusLate, StatusPendingReview, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unrecognized status %q", s)
}

// Method identifies how an attendance record was produced.
type Method string

const (
	MethodFace   Method = "face"
	MethodManual Method = "manual"
	MethodSelf   Method = "self"
)

// ParseMethod validates a marking method string against the closed enum.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodFace, MethodManual, MethodSelf:
		return Method(s), nil
	}
	return "", fmt.Errorf("unrecognized marking method %q", s)
}

// Role is a closed actor role enum. Unrecognized values are rejected at the
// access boundary, never defaulted silently.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role string against the closed enum.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unrecognized role %q", s)
}

// Actor is an authenticated caller attempting a marking operation.
type Actor struct {
	ID      string
	Role    Role
	Courses []string // courses the actor is associated with (faculty)
}

// AssociatedWith reports whether the actor is associated with a course.
// Admins administer every course and are always associated.
func (a Actor) AssociatedWith(courseID string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, c := range a.Courses {
		if c == courseID {
			return true
		}
	}
	return false
}

// Key is the composite key identifying the authoritative attendance record
// for one student in one course on one date.
type Key struct {
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
	Date      string `json:"date"` // YYYY-MM-DD
}

// NewKey builds a record key from a capture timestamp.
func NewKey(studentID, courseID string, at time.Time) Key {
	return Key{StudentID: studentID, CourseID: courseID, Date: at.Format("2006-01-02")}
}

func (k Key) String() string {
	return k.StudentID + "/" + k.CourseID + "/" + k.Date
}

// Candidate is a single identity candidate produced by the biometric matcher.
type Candidate struct {
	StudentID string  `json:"student_id"`
	Score     float64 `json:"score"` // similarity in [0, 1]
}

// Geo is an optional capture location.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Capture is the transient per-attempt input to identity resolution.
// Either StudentID is set (manual or self-authenticated entry) or Candidates
// carries the matcher output ordered by score descending.
type Capture struct {
	StudentID  string
	Candidates []Candidate
	CapturedAt time.Time
	Geo        *Geo
}

// Record is the durable attendance entity. Exactly one record is
// authoritative per key at any time; later valid writes supersede earlier
// ones only through the explicit correction path.
type Record struct {
	Key        Key       `json:"key"`
	Status     Status    `json:"status"`
	Method     Method    `json:"method"`
	MarkedBy   string    `json:"marked_by"`
	MarkedAt   time.Time `json:"marked_at"`
	Confidence *float64  `json:"confidence,omitempty"`
	Label      string    `json:"confidence_label,omitempty"`
	Geo        *Geo      `json:"geo,omitempty"`
	Revision   int       `json:"revision"`
}

// AuditEntry records one marking attempt and the decision reached. Entries
// are append-only: never mutated, never deleted. PrevID chains each entry to
// the prior one for the same key.
type AuditEntry struct {
	ID        string    `json:"id"`
	AttemptID string    `json:"attempt_id"`
	Key       Key       `json:"key"`
	ActorID   string    `json:"actor_id"`
	ActorRole Role      `json:"actor_role"`
	Method    Method    `json:"method"`
	Outcome   string    `json:"outcome"` // committed, duplicate, rejected, denied, corrected, superseded
	Status    Status    `json:"status,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Score     *float64  `json:"score,omitempty"`
	PrevID    string    `json:"prev_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Attempt outcome values recorded in audit entries and mark results.
const (
	OutcomeCommitted  = "committed"
	OutcomeDuplicate  = "duplicate"
	OutcomeRejected   = "rejected"
	OutcomeDenied     = "denied"
	OutcomeCorrected  = "corrected"
	OutcomeSuperseded = "superseded"
)
