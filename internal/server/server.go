// Package server provides the HTTP server exposing the fusion engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rankfuse/rankfuse/internal/bus"
	"github.com/rankfuse/rankfuse/internal/config"
	"github.com/rankfuse/rankfuse/internal/metrics"
	"github.com/rankfuse/rankfuse/internal/pkg/logger"
	"github.com/rankfuse/rankfuse/internal/pkg/middleware"
	"github.com/rankfuse/rankfuse/internal/pkg/security"
)

// Server is the HTTP server that wires the fusion engine, event bus, and
// instrumentation together.
type Server struct {
	cfg        Config
	appCfg     *config.Config
	log        *logger.Logger
	httpServer *http.Server

	bus     bus.Bus
	metrics *metrics.Metrics

	mu      sync.RWMutex
	started bool
}

// Config configures the server.
type Config struct {
	// Host is the address to bind to.
	Host string

	// Port is the HTTP port.
	Port int

	// Version is the application version.
	Version string

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration

	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Version:         "dev",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// New creates a new server with all dependencies.
func New(cfg Config, appCfg *config.Config, log *logger.Logger) (*Server, error) {
	if cfg.Port == 0 {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg:     cfg,
		appCfg:  appCfg,
		log:     log,
		metrics: metrics.New(),
	}

	// Initialize event bus
	b, err := bus.NewBus(appCfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	s.bus = bus.NewLoggedBus(b, log)

	return s, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.mu.Unlock()

	// Setup routes
	handler := s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info("Starting HTTP server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.log.Info("Shutting down server...")

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("HTTP shutdown error", "error", err)
	}

	if s.bus != nil {
		s.bus.Close()
	}

	s.started = false
	s.log.Info("Server stopped")

	return nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/fuse", s.handleFuse)
	mux.HandleFunc("POST /v1/fuse/explain", s.handleFuseExplain)
	mux.HandleFunc("POST /v1/fuse/batch", s.handleFuseBatch)
	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("GET /v1/methods", s.handleMethods)
	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.appCfg.Observability.MetricsEnabled {
		mux.Handle("GET "+s.appCfg.Observability.MetricsPath, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = ResponseWrapperMiddleware(handler)
	handler = corsMiddleware(handler, s.appCfg.Security.CORSOrigins)

	if s.appCfg.Security.RateLimit > 0 {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(s.appCfg.Security.RateLimit),
			Burst:             s.appCfg.Security.RateLimit * 2,
			CleanupInterval:   time.Minute,
		})
		handler = rl.Middleware(handler)
	}

	return wrapWithLogging(handler, s.log)
}

// corsMiddleware sets CORS headers and answers preflight requests.
func corsMiddleware(next http.Handler, origins string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// wrapWithLogging returns a handler with request logging.
func wrapWithLogging(handler http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response writer wrapper to capture status
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		handler.ServeHTTP(wrapped, r)

		log.Debug("HTTP request",
			"method", r.Method,
			"path", security.SanitizeForLog(r.URL.Path),
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Health returns the server health status.
func (s *Server) Health() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
