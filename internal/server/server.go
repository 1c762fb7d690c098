// Package server hosts the batch job HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/inferbatch/inferbatch/internal/jobs"
	"github.com/inferbatch/inferbatch/internal/server/handlers"
	servermw "github.com/inferbatch/inferbatch/internal/server/middleware"
)

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	logger  *zap.Logger
	manager *jobs.Manager
	host    string
	port    int
}

// New creates a new HTTP server instance
func New(host string, port int, manager *jobs.Manager, logger *zap.Logger) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)

	// Custom middleware in order: RequestID → Logging → Recovery
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestLogging(logger))
	r.Use(servermw.Recovery(logger))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handlers.RespondError(w, req, http.StatusNotFound, "NOT_FOUND", "the requested resource was not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handlers.RespondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "the requested method is not allowed for this resource")
	})

	s := &Server{
		router:  r,
		logger:  logger,
		manager: manager,
		host:    host,
		port:    port,
	}

	s.registerRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if s.logger != nil {
		s.logger.Info("starting HTTP server",
			zap.String("host", s.host),
			zap.Int("port", s.port),
			zap.String("addr", addr))
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.port
}
