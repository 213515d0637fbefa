package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance-engine/internal/web/handlers"
	"github.com/kozaktomas/attendance-engine/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Create handlers
	attendanceHandler := handlers.NewAttendanceHandler(s.engine)
	coursesHandler := handlers.NewCoursesHandler(s.engine)
	configHandler := handlers.NewConfigHandler(s.config)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.config.Server.APIToken, s.roster))

		// Attendance
		r.Post("/attendance/mark", attendanceHandler.Mark)
		r.Post("/attendance/correct", attendanceHandler.Correct)
		r.Get("/attendance/{courseId}/{date}/{studentId}", attendanceHandler.Get)
		r.Get("/attendance/{courseId}/{date}/{studentId}/audit", attendanceHandler.Audit)

		// Courses
		r.Get("/courses/{courseId}/summary", coursesHandler.Summary)

		// Config
		r.Get("/config", configHandler.Get)
	})
}
