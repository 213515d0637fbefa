package attendance

// Decision is the result of an authorization check. Denials carry a reason
// code and are audited; they never raise uncaught faults to the caller.
type Decision struct {
	Allowed bool
	Reason  string
}

var allowed = Decision{Allowed: true}

func denied(reason string) Decision {
	return Decision{Reason: reason}
}

// AuthorizeMark decides whether an actor may mark attendance for a subject.
//
// Students may only self-mark their own identity through the face or self
// path; they are denied proxy-marking any other student and denied the
// manual method entirely. Faculty and admins may mark any student in a
// course they are associated with, via face or manual.
func AuthorizeMark(actor Actor, subjectID, courseID string, method Method) Decision {
	switch actor.Role {
	case RoleStudent:
		if method == MethodManual {
			return denied(ReasonMethodForbidden)
		}
		if subjectID != "" && subjectID != actor.ID {
			return denied(ReasonSelfOnly)
		}
		return allowed
	case RoleFaculty, RoleAdmin:
		if method == MethodSelf && subjectID != actor.ID {
			return denied(ReasonSelfOnly)
		}
		if !actor.AssociatedWith(courseID) {
			return denied(ReasonCourseUnassigned)
		}
		return allowed
	default:
		return denied(ReasonInvalidRole)
	}
}

// AuthorizeRead decides whether an actor may read records or the audit trail
// for a subject in a course. Students see only their own entries; faculty
// and admins need course association.
func AuthorizeRead(actor Actor, subjectID, courseID string) Decision {
	switch actor.Role {
	case RoleStudent:
		if subjectID != actor.ID {
			return denied(ReasonSelfOnly)
		}
		return allowed
	case RoleFaculty, RoleAdmin:
		if !actor.AssociatedWith(courseID) {
			return denied(ReasonCourseUnassigned)
		}
		return allowed
	default:
		return denied(ReasonInvalidRole)
	}
}

// AuthorizeCorrect decides whether an actor may correct a record currently
// holding the given status. Faculty may correct pending_review and rejected
// records in their courses; only admins may override terminal present,
// absent, or late records.
func AuthorizeCorrect(actor Actor, courseID string, current Status) Decision {
	switch actor.Role {
	case RoleStudent:
		return denied(ReasonSelfOnly)
	case RoleFaculty:
		if !actor.AssociatedWith(courseID) {
			return denied(ReasonCourseUnassigned)
		}
		if current == StatusPendingReview || current == StatusRejected {
			return allowed
		}
		return denied(ReasonOverrideForbidden)
	case RoleAdmin:
		return allowed
	default:
		return denied(ReasonInvalidRole)
	}
}
