package attendance

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the engine. Handlers map these to response
// codes with errors.Is; none of them leaves the ledger partially committed.
var (
	// ErrUnknownStudent means the referenced student is not in the roster
	// or not enrolled in the course. No record is created.
	ErrUnknownStudent = errors.New("unknown student")

	// ErrUnknownCourse means the course id resolved to no roster or session.
	ErrUnknownCourse = errors.New("unknown course")

	// ErrRecordNotFound means no attendance record exists for the key.
	ErrRecordNotFound = errors.New("attendance record not found")

	// ErrMatchTimeout means the external matcher did not answer in time.
	// It is handled as a no-match rejection, never left pending.
	ErrMatchTimeout = errors.New("match timeout")

	// ErrConcurrentConflict means a commit lost a revision race. The
	// orchestrator retries once before surfacing the attempt as superseded.
	ErrConcurrentConflict = errors.New("concurrent commit conflict")
)

// AuthorizationError means the actor lacks permission for the attempted
// action. The attempt is still audited with the denial reason.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized: %s", e.Reason)
}

// Reason codes attached to rejections, denials, and audit entries.
const (
	ReasonNoMatch           = "no_match"
	ReasonMatchTimeout      = "match_timeout"
	ReasonAmbiguousMatch    = "ambiguous_match"
	ReasonOutsideWindow     = "outside_window"
	ReasonUnknownStudent    = "unknown_student"
	ReasonIdentityMismatch  = "identity_mismatch"
	ReasonDuplicateFinal    = "duplicate_final"
	ReasonSuperseded        = "superseded"
	ReasonManualAbsent      = "manual_absent"
	ReasonCorrection        = "correction"
	ReasonInvalidRole       = "invalid_role"
	ReasonSelfOnly          = "self_only"
	ReasonMethodForbidden   = "method_forbidden"
	ReasonCourseUnassigned  = "course_unassigned"
	ReasonOverrideForbidden = "override_forbidden"
)
