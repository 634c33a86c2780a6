// Package server provides HTTP server management and lifecycle handling for
// the MedLinkr gateway. It includes server setup, middleware configuration,
// route management, and graceful shutdown with proper error handling and
// logging.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medlinkr/medlinkr-api/config"
	"github.com/medlinkr/medlinkr-api/handlers"
	"github.com/medlinkr/medlinkr-api/interfaces"
	"github.com/medlinkr/medlinkr-api/logging"
	"github.com/medlinkr/medlinkr-api/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP gateway server
type Server struct {
	server  *http.Server
	router  chi.Router
	handler *handlers.Handler
	health  interfaces.HealthChecker
	config  *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler *handlers.Handler, health interfaces.HealthChecker) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second, // upload + OCR can be slow
			IdleTimeout:  60 * time.Second,
		},
		router:  router,
		handler: handler,
		health:  health,
		config:  cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	var requestLogger *slog.Logger
	if logging.DefaultLoggingService != nil {
		requestLogger = logging.DefaultLoggingService.Logger
	}
	s.router.Use(logging.LoggingMiddleware(requestLogger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Metrics)
	s.router.Use(RequestSizeMiddleware(s.config))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(RateLimitHandler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Post("/prescription", s.handler.StartPrescription)
	s.router.Get("/prescription/{sessionId}", s.handler.GetPrescription)
	s.router.Post("/prescription/{sessionId}/confirm", s.handler.ConfirmPrescription)
	s.router.Post("/prescription/{sessionId}/cancel", s.handler.CancelPrescription)

	s.router.Post("/search", s.handler.Search)

	s.router.Post("/contact-us", s.handler.ContactUs)
	s.router.Post("/rating-review/add", s.handler.AddReview)

	s.router.Get("/location", s.handler.Location)

	s.router.Post("/auth/signin", s.handler.SignIn)
	s.router.Post("/auth/signout", s.handler.SignOut)

	s.router.Get("/health", s.healthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// healthCheck serves the health endpoint from the injected checker.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := s.health.HealthCheck()
	payload := map[string]any{"status": status}
	for k, v := range details {
		payload[k] = v
	}
	respondWithJSON(w, httpStatus, payload)
}

// Start starts the server
func (s *Server) Start() error {
	logging.Info("Starting server", "address", s.config.Address, "port", s.config.Port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// Router exposes the configured router, used by tests.
func (s *Server) Router() chi.Router {
	return s.router
}
