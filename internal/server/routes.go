package server

import (
	"github.com/inferbatch/inferbatch/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	health := handlers.NewHealthManager(handlers.AppVersion)
	if s.manager != nil {
		health.RegisterChecker("jobs", s.manager)
	}

	s.router.Get("/health", health.HealthHandler)
	s.router.Get("/health/live", health.LivenessHandler)
	s.router.Get("/health/ready", health.ReadinessHandler)

	s.router.Get("/version", handlers.VersionHandler)

	jobsHandler := &handlers.JobsHandler{Manager: s.manager}
	s.router.Post("/jobs", jobsHandler.Submit)
	s.router.Get("/jobs", jobsHandler.List)
	s.router.Get("/jobs/{id}", jobsHandler.Get)
}
