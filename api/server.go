package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"regsim/app"
)

// Server exposes the experiment service over REST
type Server struct {
	router  *chi.Mux
	service *app.ExperimentService
}

// NewServer creates a new API server around the given service
func NewServer(service *app.ExperimentService) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	// Experiment endpoints
	s.router.Post("/api/experiments", s.handleRunExperiment)
	s.router.Get("/api/experiments", s.handleListExperiments)
	s.router.Get("/api/experiments/{id}", s.handleGetExperiment)
	s.router.Get("/api/experiments/{id}/results", s.handleGetResults)
	s.router.Get("/api/experiments/{id}/summary", s.handleGetSummary)
	s.router.Get("/api/experiments/{id}/calibration", s.handleGetCalibration)
	s.router.Post("/api/experiments/{id}/replay", s.handleReplayExperiment)

	// Equivalence audit endpoints
	s.router.Post("/api/audits/equivalence", s.handleRunAudit)
	s.router.Get("/api/audits", s.handleListAudits)
}

// Handler returns the underlying HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	log.Printf("Starting regsim API server on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
