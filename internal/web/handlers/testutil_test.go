package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
	"github.com/kozaktomas/attendance-engine/internal/database/mock"
	"github.com/kozaktomas/attendance-engine/internal/roster"
	"github.com/kozaktomas/attendance-engine/internal/web/middleware"
)

var testSessionStart = time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)

// testFixture bundles an engine over in-memory collaborators for handler tests.
type testFixture struct {
	engine  *attendance.Engine
	matcher *mock.MockMatcher
	audit   *mock.MockAuditLog
}

// newTestFixture creates an engine with two students enrolled in cs101 and a
// session window starting at testSessionStart.
func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	provider := roster.NewStaticProvider()
	provider.AddStudent(roster.Student{ID: "stu-1", Name: "Jan Novak", RollNumber: "R001"})
	provider.AddStudent(roster.Student{ID: "stu-2", Name: "Petra Svobodova", RollNumber: "R002"})
	provider.Enroll("cs101", "stu-1")
	provider.Enroll("cs101", "stu-2")
	provider.Associate("fac-1", "cs101")

	matcher := &mock.MockMatcher{}
	audit := mock.NewMockAuditLog()
	windows := mock.NewMockWindowProvider()
	windows.SetWindow("cs101", attendance.Window{
		Start: testSessionStart,
		End:   testSessionStart.Add(90 * time.Minute),
		Grace: 15 * time.Minute,
	})

	engine := attendance.NewEngine(
		attendance.Resolver{High: 0.85, Low: 0.55},
		attendance.NewLedger(mock.NewMockRecordStore()),
		audit,
		provider,
		windows,
		matcher,
		func(float64) string { return "HIGH" },
	)
	return &testFixture{engine: engine, matcher: matcher, audit: audit}
}

// requestWithActor creates a JSON request with an actor in context.
func requestWithActor(t *testing.T, method, path string, body any, actor attendance.Actor) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.SetActorInContext(req.Context(), actor))
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type.
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code.
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message.
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
