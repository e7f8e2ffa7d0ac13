// Package server exposes normalization, preview rendering and solving over
// HTTP for `dgl serve`.
package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/msto63/dglrechner/internal/history"
	"github.com/msto63/dglrechner/internal/keypad"
	"github.com/msto63/dglrechner/internal/render"
	"github.com/msto63/dglrechner/internal/solver"
	"github.com/msto63/dglrechner/pkg/core/health"
	"github.com/msto63/dglrechner/pkg/core/logging"
	"github.com/msto63/dglrechner/pkg/core/version"
)

// Server is the dglrechner HTTP server
type Server struct {
	httpServer *http.Server
	handler    *Handler
	health     *health.Registry
	logger     *logging.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   120 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

// Deps are the collaborators the handlers work with. Solver must already be
// started. Runtime, History and Keypad are optional.
type Deps struct {
	Solver   solver.Solver
	Runtime  *solver.Runtime
	Renderer render.Renderer
	History  history.Store
	Keypad   *keypad.Layout
}

// New creates a new server
func New(cfg Config, deps Deps, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.New("server")
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = DefaultConfig().MaxRequestSize
	}

	registry := health.NewRegistry("dglrechner", version.App)
	registry.RegisterFunc("http", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Name:    "http",
			Status:  health.StatusHealthy,
			Message: "HTTP server is running",
		}
	})
	if deps.Runtime != nil {
		registry.Register(health.PingCheck("solver", health.StatusUnhealthy, deps.Runtime.Check))
	}
	if deps.History != nil {
		registry.Register(health.PingCheck("history", health.StatusDegraded, deps.History.Ping))
	}

	h := NewHandler(deps, registry, cfg.MaxRequestSize, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/preview/ws", NewPreviewSocket(deps.Renderer, logger))
	mux.Handle("/", h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      loggingMiddleware(logger, recoverMiddleware(logger, mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		handler:    h,
		health:     registry,
		logger:     logger,
		config:     cfg,
	}
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// recoverMiddleware turns handler panics into 500 responses
func recoverMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic in handler",
					"path", r.URL.Path,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting dglrechner API",
		"host", s.config.Host,
		"port", s.config.Port,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping dglrechner API")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server address
func (s *Server) Address() string {
	return s.httpServer.Addr
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
