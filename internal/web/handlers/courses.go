package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
	"github.com/kozaktomas/attendance-engine/internal/web/middleware"
)

// CoursesHandler handles per-course aggregate endpoints.
type CoursesHandler struct {
	engine *attendance.Engine
}

// NewCoursesHandler creates a new courses handler.
func NewCoursesHandler(engine *attendance.Engine) *CoursesHandler {
	return &CoursesHandler{engine: engine}
}

// Summary handles GET /api/v1/courses/{courseId}/summary?date=YYYY-MM-DD.
// The date defaults to today. Students cannot see other students' records,
// so the endpoint is faculty and admin only.
func (h *CoursesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	courseID := chi.URLParam(r, "courseId")
	if courseID == "" {
		respondError(w, http.StatusBadRequest, "course is required")
		return
	}

	if actor.Role == attendance.RoleStudent {
		respondError(w, http.StatusForbidden, attendance.ReasonInvalidRole)
		return
	}
	if !actor.AssociatedWith(courseID) {
		respondError(w, http.StatusForbidden, attendance.ReasonCourseUnassigned)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	summary, err := h.engine.CourseSummary(r.Context(), courseID, date)
	if err != nil {
		log.Printf("Failed to summarize course %s on %s: %v", sanitizeForLog(courseID), sanitizeForLog(date), err)
		respondError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
