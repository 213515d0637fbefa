package attendance

import "testing"

func TestAuthorizeMark(t *testing.T) {
	student := Actor{ID: "stu-1", Role: RoleStudent}
	faculty := Actor{ID: "fac-1", Role: RoleFaculty, Courses: []string{"cs101"}}
	admin := Actor{ID: "adm-1", Role: RoleAdmin}

	tests := []struct {
		name    string
		actor   Actor
		subject string
		course  string
		method  Method
		allowed bool
		reason  string
	}{
		{"StudentSelfFace", student, "stu-1", "cs101", MethodFace, true, ""},
		{"StudentSelfEntry", student, "stu-1", "cs101", MethodSelf, true, ""},
		{"StudentProxyDenied", student, "stu-2", "cs101", MethodFace, false, ReasonSelfOnly},
		{"StudentManualDenied", student, "stu-1", "cs101", MethodManual, false, ReasonMethodForbidden},
		{"FacultyOwnCourse", faculty, "stu-1", "cs101", MethodManual, true, ""},
		{"FacultyFaceCapture", faculty, "", "cs101", MethodFace, true, ""},
		{"FacultyOtherCourse", faculty, "stu-1", "ma201", MethodManual, false, ReasonCourseUnassigned},
		{"FacultySelfMethodForOther", faculty, "stu-1", "cs101", MethodSelf, false, ReasonSelfOnly},
		{"AdminAnyCourse", admin, "stu-1", "ma201", MethodManual, true, ""},
		{"UnknownRole", Actor{ID: "x", Role: Role("root")}, "stu-1", "cs101", MethodManual, false, ReasonInvalidRole},
		{"EmptyRole", Actor{ID: "x"}, "stu-1", "cs101", MethodFace, false, ReasonInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := AuthorizeMark(tt.actor, tt.subject, tt.course, tt.method)
			if dec.Allowed != tt.allowed {
				t.Fatalf("Expected allowed=%v, got %v (reason %s)", tt.allowed, dec.Allowed, dec.Reason)
			}
			if !tt.allowed && dec.Reason != tt.reason {
				t.Errorf("Expected reason %s, got %s", tt.reason, dec.Reason)
			}
		})
	}
}

func TestAuthorizeRead(t *testing.T) {
	student := Actor{ID: "stu-1", Role: RoleStudent}
	faculty := Actor{ID: "fac-1", Role: RoleFaculty, Courses: []string{"cs101"}}
	admin := Actor{ID: "adm-1", Role: RoleAdmin}

	if dec := AuthorizeRead(student, "stu-1", "cs101"); !dec.Allowed {
		t.Errorf("Student should read own record: %s", dec.Reason)
	}
	if dec := AuthorizeRead(student, "stu-2", "cs101"); dec.Allowed || dec.Reason != ReasonSelfOnly {
		t.Errorf("Student must not read another student's record, got %+v", dec)
	}
	if dec := AuthorizeRead(faculty, "stu-1", "cs101"); !dec.Allowed {
		t.Errorf("Faculty should read records in own course: %s", dec.Reason)
	}
	if dec := AuthorizeRead(faculty, "stu-1", "ma201"); dec.Allowed || dec.Reason != ReasonCourseUnassigned {
		t.Errorf("Faculty must not read outside assigned courses, got %+v", dec)
	}
	if dec := AuthorizeRead(admin, "stu-1", "ma201"); !dec.Allowed {
		t.Errorf("Admin should read any record: %s", dec.Reason)
	}
}

func TestAuthorizeCorrect(t *testing.T) {
	student := Actor{ID: "stu-1", Role: RoleStudent}
	faculty := Actor{ID: "fac-1", Role: RoleFaculty, Courses: []string{"cs101"}}
	admin := Actor{ID: "adm-1", Role: RoleAdmin}

	tests := []struct {
		name    string
		actor   Actor
		course  string
		current Status
		allowed bool
		reason  string
	}{
		{"StudentDenied", student, "cs101", StatusPendingReview, false, ReasonSelfOnly},
		{"FacultyResolvesPending", faculty, "cs101", StatusPendingReview, true, ""},
		{"FacultyResolvesRejected", faculty, "cs101", StatusRejected, true, ""},
		{"FacultyCannotOverridePresent", faculty, "cs101", StatusPresent, false, ReasonOverrideForbidden},
		{"FacultyCannotOverrideAbsent", faculty, "cs101", StatusAbsent, false, ReasonOverrideForbidden},
		{"FacultyCannotOverrideLate", faculty, "cs101", StatusLate, false, ReasonOverrideForbidden},
		{"FacultyOtherCourse", faculty, "ma201", StatusPendingReview, false, ReasonCourseUnassigned},
		{"AdminOverridesTerminal", admin, "cs101", StatusPresent, true, ""},
		{"AdminResolvesPending", admin, "ma201", StatusPendingReview, true, ""},
		{"UnknownRole", Actor{ID: "x", Role: Role("owner")}, "cs101", StatusPendingReview, false, ReasonInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := AuthorizeCorrect(tt.actor, tt.course, tt.current)
			if dec.Allowed != tt.allowed {
				t.Fatalf("Expected allowed=%v, got %v (reason %s)", tt.allowed, dec.Allowed, dec.Reason)
			}
			if !tt.allowed && dec.Reason != tt.reason {
				t.Errorf("Expected reason %s, got %s", tt.reason, dec.Reason)
			}
		})
	}
}
