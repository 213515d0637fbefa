package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
	"github.com/kozaktomas/attendance-engine/internal/web/middleware"
)

// AttendanceHandler handles marking, correction, record, and audit endpoints.
type AttendanceHandler struct {
	engine *attendance.Engine
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(engine *attendance.Engine) *AttendanceHandler {
	return &AttendanceHandler{engine: engine}
}

// MarkRequest is the request body for marking attendance.
type MarkRequest struct {
	CourseID    string          `json:"course_id"`
	StudentID   string          `json:"student_id,omitempty"`
	StudentName string          `json:"student_name,omitempty"` // manual entry fallback, matched against the roster
	Method      string          `json:"method"`
	Probe       string          `json:"probe,omitempty"` // base64-encoded capture
	CapturedAt  string          `json:"captured_at,omitempty"`
	Geo         *attendance.Geo `json:"geo,omitempty"`
	Absent      bool            `json:"absent,omitempty"`
}

// CorrectRequest is the request body for correcting a record.
type CorrectRequest struct {
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

// Mark handles POST /api/v1/attendance/mark.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req MarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.CourseID == "" {
		respondError(w, http.StatusBadRequest, "course_id is required")
		return
	}

	method, err := attendance.ParseMethod(req.Method)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var probe []byte
	if req.Probe != "" {
		probe, err = base64.StdEncoding.DecodeString(req.Probe)
		if err != nil {
			respondError(w, http.StatusBadRequest, "probe must be base64-encoded")
			return
		}
	}

	var capturedAt time.Time
	if req.CapturedAt != "" {
		capturedAt, err = time.Parse(time.RFC3339, req.CapturedAt)
		if err != nil {
			respondError(w, http.StatusBadRequest, "captured_at must be RFC 3339")
			return
		}
	}

	result, err := h.engine.MarkAttendance(r.Context(), actor, attendance.MarkRequest{
		CourseID:    req.CourseID,
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Method:      method,
		Probe:       probe,
		CapturedAt:  capturedAt,
		Geo:         req.Geo,
		Absent:      req.Absent,
	})
	if err != nil {
		h.respondMarkError(w, req.CourseID, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Correct handles POST /api/v1/attendance/correct.
func (h *AttendanceHandler) Correct(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CorrectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.StudentID == "" || req.CourseID == "" || req.Date == "" {
		respondError(w, http.StatusBadRequest, "student_id, course_id and date are required")
		return
	}

	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := attendance.Key{StudentID: req.StudentID, CourseID: req.CourseID, Date: req.Date}
	rec, err := h.engine.CorrectAttendance(r.Context(), actor, key, status)
	if err != nil {
		var authErr *attendance.AuthorizationError
		switch {
		case errors.As(err, &authErr):
			respondError(w, http.StatusForbidden, authErr.Reason)
		case errors.Is(err, attendance.ErrRecordNotFound):
			respondError(w, http.StatusNotFound, "record not found")
		case errors.Is(err, attendance.ErrConcurrentConflict):
			respondError(w, http.StatusConflict, "concurrent update, retry")
		default:
			log.Printf("Failed to correct attendance for %s: %v", sanitizeForLog(key.String()), err)
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Get handles GET /api/v1/attendance/{courseId}/{date}/{studentId}.
func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, key, ok := h.readRequestKey(w, r)
	if !ok {
		return
	}

	rec, err := h.engine.GetRecord(r.Context(), key)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "record not found")
			return
		}
		log.Printf("Failed to get record %s for %s: %v", sanitizeForLog(key.String()), sanitizeForLog(actor.ID), err)
		respondError(w, http.StatusInternalServerError, "failed to load record")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Audit handles GET /api/v1/attendance/{courseId}/{date}/{studentId}/audit.
func (h *AttendanceHandler) Audit(w http.ResponseWriter, r *http.Request) {
	actor, key, ok := h.readRequestKey(w, r)
	if !ok {
		return
	}

	entries, err := h.engine.ListAudit(r.Context(), key)
	if err != nil {
		log.Printf("Failed to list audit for %s requested by %s: %v", sanitizeForLog(key.String()), sanitizeForLog(actor.ID), err)
		respondError(w, http.StatusInternalServerError, "failed to load audit trail")
		return
	}
	if entries == nil {
		entries = []attendance.AuditEntry{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"key":     key,
		"entries": entries,
	})
}

// readRequestKey extracts the record key from the URL and enforces read access.
func (h *AttendanceHandler) readRequestKey(w http.ResponseWriter, r *http.Request) (attendance.Actor, attendance.Key, bool) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return attendance.Actor{}, attendance.Key{}, false
	}

	key := attendance.Key{
		StudentID: chi.URLParam(r, "studentId"),
		CourseID:  chi.URLParam(r, "courseId"),
		Date:      chi.URLParam(r, "date"),
	}
	if key.StudentID == "" || key.CourseID == "" || key.Date == "" {
		respondError(w, http.StatusBadRequest, "course, date and student are required")
		return attendance.Actor{}, attendance.Key{}, false
	}

	if dec := attendance.AuthorizeRead(actor, key.StudentID, key.CourseID); !dec.Allowed {
		respondError(w, http.StatusForbidden, dec.Reason)
		return attendance.Actor{}, attendance.Key{}, false
	}
	return actor, key, true
}

// respondMarkError maps marking pipeline errors onto HTTP statuses.
func (h *AttendanceHandler) respondMarkError(w http.ResponseWriter, courseID string, err error) {
	var authErr *attendance.AuthorizationError
	switch {
	case errors.As(err, &authErr):
		respondError(w, http.StatusForbidden, authErr.Reason)
	case errors.Is(err, attendance.ErrUnknownCourse):
		respondError(w, http.StatusNotFound, "course not found or no session scheduled")
	case errors.Is(err, attendance.ErrUnknownStudent):
		respondError(w, http.StatusNotFound, "student not found in course roster")
	case errors.Is(err, attendance.ErrConcurrentConflict):
		respondError(w, http.StatusConflict, "concurrent update, retry")
	default:
		log.Printf("Failed to mark attendance in course %s: %v", sanitizeForLog(courseID), err)
		respondError(w, http.StatusBadRequest, err.Error())
	}
}
