package handlers

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
)

func TestMarkHandler(t *testing.T) {
	student := attendance.Actor{ID: "stu-1", Role: attendance.RoleStudent}
	faculty := attendance.Actor{ID: "fac-1", Role: attendance.RoleFaculty, Courses: []string{"cs101"}}
	capturedAt := testSessionStart.Add(5 * time.Minute).Format(time.RFC3339)

	t.Run("FaceMarkCommitted", func(t *testing.T) {
		f := newTestFixture(t)
		f.matcher.Candidates = []attendance.Candidate{{StudentID: "stu-1", Score: 0.92}}
		handler := NewAttendanceHandler(f.engine)

		body := MarkRequest{
			CourseID:   "cs101",
			Method:     "face",
			Probe:      base64.StdEncoding.EncodeToString([]byte("capture")),
			CapturedAt: capturedAt,
		}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", body, student)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var result attendance.MarkResult
		parseJSONResponse(t, recorder, &result)
		if result.Outcome != attendance.OutcomeCommitted {
			t.Fatalf("Expected committed, got %s (%s)", result.Outcome, result.Reason)
		}
		if result.Status != attendance.StatusPresent {
			t.Errorf("Expected present, got %s", result.Status)
		}
		if result.Record == nil || result.Record.Revision != 1 {
			t.Errorf("Unexpected record: %+v", result.Record)
		}
	})

	t.Run("RejectedNoMatch", func(t *testing.T) {
		f := newTestFixture(t)
		f.matcher.Candidates = []attendance.Candidate{{StudentID: "stu-1", Score: 0.2}}
		handler := NewAttendanceHandler(f.engine)

		body := MarkRequest{
			CourseID:   "cs101",
			Method:     "face",
			Probe:      base64.StdEncoding.EncodeToString([]byte("capture")),
			CapturedAt: capturedAt,
		}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", body, student)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var result attendance.MarkResult
		parseJSONResponse(t, recorder, &result)
		if result.Outcome != attendance.OutcomeRejected || result.Reason != attendance.ReasonNoMatch {
			t.Errorf("Expected no_match rejection, got %+v", result)
		}
	})

	t.Run("ManualAbsent", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		body := MarkRequest{
			CourseID:   "cs101",
			StudentID:  "stu-2",
			Method:     "manual",
			Absent:     true,
			CapturedAt: capturedAt,
		}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", body, faculty)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var result attendance.MarkResult
		parseJSONResponse(t, recorder, &result)
		if result.Status != attendance.StatusAbsent {
			t.Errorf("Expected absent, got %s", result.Status)
		}
	})

	t.Run("ProxyDenied", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		body := MarkRequest{
			CourseID:   "cs101",
			StudentID:  "stu-2",
			Method:     "self",
			CapturedAt: capturedAt,
		}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", body, student)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)

		assertStatusCode(t, recorder, http.StatusForbidden)
		assertJSONError(t, recorder, attendance.ReasonSelfOnly)
	})

	t.Run("UnknownCourse", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		body := MarkRequest{CourseID: "nope", Method: "self", CapturedAt: capturedAt}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", body, student)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)

		assertStatusCode(t, recorder, http.StatusNotFound)
	})

	t.Run("InvalidMethod", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		body := MarkRequest{CourseID: "cs101", Method: "telepathy"}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", body, student)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)

		assertStatusCode(t, recorder, http.StatusBadRequest)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", nil, student)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)

		assertStatusCode(t, recorder, http.StatusBadRequest)
	})

	t.Run("MissingCourse", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		body := MarkRequest{Method: "self"}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", body, student)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)

		assertStatusCode(t, recorder, http.StatusBadRequest)
		assertJSONError(t, recorder, "course_id is required")
	})
}

func TestCorrectHandler(t *testing.T) {
	capturedAt := testSessionStart.Add(5 * time.Minute).Format(time.RFC3339)
	student := attendance.Actor{ID: "stu-1", Role: attendance.RoleStudent}
	admin := attendance.Actor{ID: "adm-1", Role: attendance.RoleAdmin}

	markPending := func(t *testing.T, f *testFixture) attendance.Key {
		t.Helper()
		f.matcher.Candidates = []attendance.Candidate{{StudentID: "stu-1", Score: 0.6}}
		handler := NewAttendanceHandler(f.engine)
		body := MarkRequest{
			CourseID:   "cs101",
			Method:     "face",
			Probe:      base64.StdEncoding.EncodeToString([]byte("capture")),
			CapturedAt: capturedAt,
		}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", body, student)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)
		assertStatusCode(t, recorder, http.StatusOK)

		var result attendance.MarkResult
		parseJSONResponse(t, recorder, &result)
		if result.Status != attendance.StatusPendingReview {
			t.Fatalf("Setup expected pending_review, got %s", result.Status)
		}
		return result.Record.Key
	}

	t.Run("AdminCorrectsPending", func(t *testing.T) {
		f := newTestFixture(t)
		key := markPending(t, f)
		handler := NewAttendanceHandler(f.engine)

		body := CorrectRequest{StudentID: key.StudentID, CourseID: key.CourseID, Date: key.Date, Status: "present"}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/correct", body, admin)
		recorder := httptest.NewRecorder()
		handler.Correct(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var rec attendance.Record
		parseJSONResponse(t, recorder, &rec)
		if rec.Status != attendance.StatusPresent || rec.Revision != 2 {
			t.Errorf("Unexpected corrected record: %+v", rec)
		}
	})

	t.Run("StudentDenied", func(t *testing.T) {
		f := newTestFixture(t)
		key := markPending(t, f)
		handler := NewAttendanceHandler(f.engine)

		body := CorrectRequest{StudentID: key.StudentID, CourseID: key.CourseID, Date: key.Date, Status: "present"}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/correct", body, student)
		recorder := httptest.NewRecorder()
		handler.Correct(recorder, req)

		assertStatusCode(t, recorder, http.StatusForbidden)
	})

	t.Run("MissingRecord", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		body := CorrectRequest{StudentID: "stu-1", CourseID: "cs101", Date: "2026-09-14", Status: "present"}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/correct", body, admin)
		recorder := httptest.NewRecorder()
		handler.Correct(recorder, req)

		assertStatusCode(t, recorder, http.StatusNotFound)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		body := CorrectRequest{StudentID: "stu-1", CourseID: "cs101", Date: "2026-09-14", Status: "vanished"}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/correct", body, admin)
		recorder := httptest.NewRecorder()
		handler.Correct(recorder, req)

		assertStatusCode(t, recorder, http.StatusBadRequest)
	})
}

func TestGetAndAuditHandlers(t *testing.T) {
	capturedAt := testSessionStart.Add(5 * time.Minute).Format(time.RFC3339)
	student := attendance.Actor{ID: "stu-1", Role: attendance.RoleStudent}
	other := attendance.Actor{ID: "stu-2", Role: attendance.RoleStudent}
	params := map[string]string{"courseId": "cs101", "date": "2026-09-14", "studentId": "stu-1"}

	setup := func(t *testing.T) (*testFixture, *AttendanceHandler) {
		t.Helper()
		f := newTestFixture(t)
		f.matcher.Candidates = []attendance.Candidate{{StudentID: "stu-1", Score: 0.92}}
		handler := NewAttendanceHandler(f.engine)

		body := MarkRequest{
			CourseID:   "cs101",
			Method:     "face",
			Probe:      base64.StdEncoding.EncodeToString([]byte("capture")),
			CapturedAt: capturedAt,
		}
		req := requestWithActor(t, http.MethodPost, "/api/v1/attendance/mark", body, student)
		recorder := httptest.NewRecorder()
		handler.Mark(recorder, req)
		assertStatusCode(t, recorder, http.StatusOK)
		return f, handler
	}

	t.Run("GetOwnRecord", func(t *testing.T) {
		_, handler := setup(t)

		req := requestWithActor(t, http.MethodGet, "/api/v1/attendance/cs101/2026-09-14/stu-1", nil, student)
		req = requestWithChiParams(req, params)
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var rec attendance.Record
		parseJSONResponse(t, recorder, &rec)
		if rec.Status != attendance.StatusPresent {
			t.Errorf("Expected present, got %s", rec.Status)
		}
	})

	t.Run("OtherStudentForbidden", func(t *testing.T) {
		_, handler := setup(t)

		req := requestWithActor(t, http.MethodGet, "/api/v1/attendance/cs101/2026-09-14/stu-1", nil, other)
		req = requestWithChiParams(req, params)
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		assertStatusCode(t, recorder, http.StatusForbidden)
		assertJSONError(t, recorder, attendance.ReasonSelfOnly)
	})

	t.Run("RecordNotFound", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		req := requestWithActor(t, http.MethodGet, "/api/v1/attendance/cs101/2026-09-14/stu-1", nil, student)
		req = requestWithChiParams(req, params)
		recorder := httptest.NewRecorder()
		handler.Get(recorder, req)

		assertStatusCode(t, recorder, http.StatusNotFound)
	})

	t.Run("AuditTrail", func(t *testing.T) {
		_, handler := setup(t)

		req := requestWithActor(t, http.MethodGet, "/api/v1/attendance/cs101/2026-09-14/stu-1/audit", nil, student)
		req = requestWithChiParams(req, params)
		recorder := httptest.NewRecorder()
		handler.Audit(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var response struct {
			Key     attendance.Key          `json:"key"`
			Entries []attendance.AuditEntry `json:"entries"`
		}
		parseJSONResponse(t, recorder, &response)
		if len(response.Entries) != 1 {
			t.Fatalf("Expected 1 audit entry, got %d", len(response.Entries))
		}
		if response.Entries[0].Outcome != attendance.OutcomeCommitted {
			t.Errorf("Expected committed entry, got %s", response.Entries[0].Outcome)
		}
	})

	t.Run("EmptyAuditTrail", func(t *testing.T) {
		f := newTestFixture(t)
		handler := NewAttendanceHandler(f.engine)

		req := requestWithActor(t, http.MethodGet, "/api/v1/attendance/cs101/2026-09-14/stu-1/audit", nil, student)
		req = requestWithChiParams(req, params)
		recorder := httptest.NewRecorder()
		handler.Audit(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var response struct {
			Entries []attendance.AuditEntry `json:"entries"`
		}
		parseJSONResponse(t, recorder, &response)
		if response.Entries == nil || len(response.Entries) != 0 {
			t.Errorf("Expected empty entries array, got %v", response.Entries)
		}
	})
}
