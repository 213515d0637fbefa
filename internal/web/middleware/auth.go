package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
	"github.com/kozaktomas/attendance-engine/internal/roster"
)

type contextKey string

const actorContextKey contextKey = "actor"

// RequireAuth validates the bearer API token and the actor identity headers.
// The actor arrives as X-Actor-ID and X-Actor-Role; an unrecognized role is
// rejected, never defaulted. Faculty course associations are loaded from the
// roster so handlers receive a fully populated actor.
func RequireAuth(apiToken string, rosterProvider roster.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiToken != "" {
				header := r.Header.Get("Authorization")
				token, ok := strings.CutPrefix(header, "Bearer ")
				if !ok || token != apiToken {
					http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
					return
				}
			}

			actorID := r.Header.Get("X-Actor-ID")
			if actorID == "" {
				http.Error(w, `{"error": "missing actor identity"}`, http.StatusUnauthorized)
				return
			}

			role, err := attendance.ParseRole(r.Header.Get("X-Actor-Role"))
			if err != nil {
				http.Error(w, `{"error": "unrecognized actor role"}`, http.StatusForbidden)
				return
			}

			actor := attendance.Actor{ID: actorID, Role: role}
			if role == attendance.RoleFaculty {
				courses, err := rosterProvider.CoursesForActor(r.Context(), actorID)
				if err != nil {
					http.Error(w, `{"error": "failed to load course associations"}`, http.StatusInternalServerError)
					return
				}
				actor.Courses = courses
			}

			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActorFromContext retrieves the authenticated actor from the context.
func GetActorFromContext(ctx context.Context) (attendance.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(attendance.Actor)
	return actor, ok
}

// SetActorInContext adds an actor to the context.
// This is primarily for testing - use RequireAuth middleware in production.
func SetActorInContext(ctx context.Context, actor attendance.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}
