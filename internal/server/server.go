// Package server is the HTTP transport over the serving runtime: prediction
// endpoints, model introspection, health probes, and the metrics listener.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/internal/config"
	"github.com/inferstack/mlserve/internal/inference"
	"github.com/inferstack/mlserve/internal/monitor"
	"github.com/inferstack/mlserve/internal/registry"
)

// Dependencies are the runtime components the transport exposes.
type Dependencies struct {
	State     *inference.ModelState
	Predictor *inference.Predictor
	Buffer    *monitor.PredictionBuffer
	Monitor   *monitor.DriftMonitor
	Pointers  *registry.PointerManager
}

// Server owns the main HTTP listener and, when enabled, a separate metrics
// listener.
type Server struct {
	httpServer    *http.Server
	metricsServer *http.Server
	router        *mux.Router
	logger        *logrus.Logger
	config        *config.Config
	handlers      *Handlers
	limiter       *rateLimiter
}

// NewServer wires routes and middleware over the runtime components.
func NewServer(cfg *config.Config, deps Dependencies, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	s := &Server{
		router:   mux.NewRouter(),
		logger:   logger,
		config:   cfg,
		handlers: NewHandlers(cfg, deps, logger),
	}
	if cfg.API.RateLimitEnabled {
		s.limiter = newRateLimiter(cfg.API.RequestsPerSecond, cfg.API.RateLimitBurst)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	if cfg.Server.EnableMetrics {
		s.setupMetricsServer()
	}
	return s
}

// Start runs the listeners. Blocks until the main listener exits.
func (s *Server) Start(ctx context.Context) error {
	if s.metricsServer != nil {
		go func() {
			s.logger.WithField("address", s.metricsServer.Addr).Info("Starting metrics server")
			if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	s.logger.WithField("address", s.httpServer.Addr).Info("Starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("Error shutting down metrics server")
		}
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) setupRoutes() {
	// OPTIONS is listed so preflight requests match a route; mux only runs
	// middleware, including CORS, on matched routes.
	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/health/ready", s.handlers.Ready).Methods("GET", "OPTIONS")
	s.router.HandleFunc("/version", s.handlers.Version).Methods("GET", "OPTIONS")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/predict", s.handlers.Predict).Methods("POST", "OPTIONS")
	api.HandleFunc("/predict/batch", s.handlers.PredictBatch).Methods("POST", "OPTIONS")
	api.HandleFunc("/model", s.handlers.ModelInfo).Methods("GET", "OPTIONS")
	api.HandleFunc("/model/history", s.handlers.PromotionHistory).Methods("GET", "OPTIONS")
	api.HandleFunc("/monitoring/buffer", s.handlers.BufferStats).Methods("GET", "OPTIONS")

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
	if s.config.Server.EnableCORS {
		s.router.Use(s.corsMiddleware)
	}
	s.router.Use(s.requestSizeLimitMiddleware)
	if s.limiter != nil {
		s.router.Use(s.rateLimitMiddleware)
	}
}

func (s *Server) setupMetricsServer() {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/health", s.handlers.Health)

	s.metricsServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.MetricsPort),
		Handler:      metricsMux,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}
