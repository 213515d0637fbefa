package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
	"github.com/kozaktomas/attendance-engine/internal/roster"
)

func authTestHandler(t *testing.T, captured *attendance.Actor) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActorFromContext(r.Context())
		if !ok {
			t.Error("Actor missing from context")
		}
		*captured = actor
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	provider := roster.NewStaticProvider()
	provider.Associate("fac-1", "cs101")
	provider.Associate("fac-1", "ma201")

	tests := []struct {
		name       string
		token      string
		authHeader string
		actorID    string
		actorRole  string
		wantStatus int
	}{
		{"ValidStudent", "secret", "Bearer secret", "stu-1", "student", http.StatusOK},
		{"ValidAdmin", "secret", "Bearer secret", "adm-1", "admin", http.StatusOK},
		{"MissingToken", "secret", "", "stu-1", "student", http.StatusUnauthorized},
		{"WrongToken", "secret", "Bearer nope", "stu-1", "student", http.StatusUnauthorized},
		{"NotBearer", "secret", "Basic secret", "stu-1", "student", http.StatusUnauthorized},
		{"MissingActorID", "secret", "Bearer secret", "", "student", http.StatusUnauthorized},
		{"UnknownRole", "secret", "Bearer secret", "stu-1", "superuser", http.StatusForbidden},
		{"EmptyRole", "secret", "Bearer secret", "stu-1", "", http.StatusForbidden},
		{"NoTokenConfigured", "", "", "stu-1", "student", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured attendance.Actor
			handler := RequireAuth(tt.token, provider)(authTestHandler(t, &captured))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			req.Header.Set("X-Actor-ID", tt.actorID)
			req.Header.Set("X-Actor-Role", tt.actorRole)

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, recorder.Code)
			}
			if tt.wantStatus == http.StatusOK && captured.ID != tt.actorID {
				t.Errorf("Expected actor %s in context, got %s", tt.actorID, captured.ID)
			}
		})
	}
}

func TestRequireAuthLoadsFacultyCourses(t *testing.T) {
	provider := roster.NewStaticProvider()
	provider.Associate("fac-1", "cs101")
	provider.Associate("fac-1", "ma201")

	var captured attendance.Actor
	handler := RequireAuth("secret", provider)(authTestHandler(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Actor-ID", "fac-1")
	req.Header.Set("X-Actor-Role", "faculty")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", recorder.Code)
	}
	if len(captured.Courses) != 2 {
		t.Errorf("Expected 2 course associations, got %v", captured.Courses)
	}
}
