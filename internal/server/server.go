// Package server provides the HTTP servers of the synthesis service: the
// API server and the metrics endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/labsonar/synthesis/internal/config"
	"github.com/labsonar/synthesis/internal/dataset"
	apierrors "github.com/labsonar/synthesis/internal/errors"
	"github.com/labsonar/synthesis/internal/handler"
	"github.com/labsonar/synthesis/internal/health"
	"github.com/labsonar/synthesis/internal/job"
	"github.com/labsonar/synthesis/internal/metrics"
	"github.com/labsonar/synthesis/internal/middleware"
)

// Server is the synthesis API server.
type Server struct {
	router       *mux.Router
	httpServer   *http.Server
	handlers     *handler.Handlers
	healthCheck  *health.HealthCheck
	errorHandler *apierrors.Handler
	metrics      *metrics.Metrics
	logger       *zap.Logger
	cfg          *config.Config
}

// NewServer creates the API server around a job service and a run writer.
func NewServer(
	cfg *config.Config,
	jobs *job.Service,
	runs *dataset.Writer,
	guard *dataset.DiskGuard,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	router := mux.NewRouter()
	errorHandler := apierrors.NewHandler(logger)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		handlers:     handler.NewHandlers(jobs, runs, errorHandler, logger),
		healthCheck:  health.NewHealthCheck(guard, logger),
		errorHandler: errorHandler,
		metrics:      m,
		logger:       logger,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger),
		middleware.Observe(s.metrics),
		middleware.CORS(s.cfg.Server.AllowedOrigins),
		middleware.Timeout(s.cfg.Server.RequestTimeout),
	}
	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}

	chain := middleware.Chain(middlewareChain...)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	s.router.HandleFunc("/health", s.healthCheck.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.healthCheck.ReadinessHandler).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/jobs", s.handlers.SubmitJob).Methods(http.MethodPost)
	v1.HandleFunc("/jobs", s.handlers.ListJobs).Methods(http.MethodGet)
	v1.HandleFunc("/jobs/{job_id}", s.handlers.GetJob).Methods(http.MethodGet)
	v1.HandleFunc("/runs", s.handlers.ListRuns).Methods(http.MethodGet)
	v1.HandleFunc("/runs/{run_id}", s.handlers.GetRun).Methods(http.MethodGet)
	v1.HandleFunc("/conditions", s.handlers.ListConditions).Methods(http.MethodGet)
	v1.HandleFunc("/spectrum", s.handlers.GetSpectrum).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.WriteError(w, http.StatusNotFound, apierrors.ErrCodeInvalidArgument,
			"endpoint not found", r.Header.Get("X-Request-ID"))
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.WriteError(w, http.StatusMethodNotAllowed, apierrors.ErrCodeInvalidArgument,
			"method not allowed", r.Header.Get("X-Request-ID"))
	})
	// Subrouters do not inherit these from the parent; an unmatched method
	// under /v1 would otherwise fall through to the 404 handler.
	s.router.NotFoundHandler = notFound
	s.router.MethodNotAllowedHandler = methodNotAllowed
	v1.NotFoundHandler = notFound
	v1.MethodNotAllowedHandler = methodNotAllowed
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting API server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying router, used in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
