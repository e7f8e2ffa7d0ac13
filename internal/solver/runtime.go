package solver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/msto63/dglrechner/pkg/core/logging"
)

// Backend names accepted by NewRuntime
const (
	BackendPython = "python"
	BackendHTTP   = "http"
)

// RuntimeConfig selects and configures the backend
type RuntimeConfig struct {
	Backend string
	Python  PythonConfig
	HTTP    HTTPConfig

	// ProbeTimeout bounds the one-time availability check
	ProbeTimeout time.Duration
}

// prober is implemented by backends that can check their availability
type prober interface {
	Probe(ctx context.Context) error
}

// Runtime owns process-wide backend initialization. Start runs exactly once;
// callers receive the Solver from Start and never check readiness again.
type Runtime struct {
	cfg     RuntimeConfig
	log     *logging.Logger
	backend Solver

	once     sync.Once
	startErr error
}

// NewRuntime creates a runtime for the configured backend
func NewRuntime(cfg RuntimeConfig, log *logging.Logger) (*Runtime, error) {
	if log == nil {
		log = logging.Discard()
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 30 * time.Second
	}

	r := &Runtime{cfg: cfg, log: log}
	switch cfg.Backend {
	case "", BackendPython:
		r.backend = NewPythonSolver(cfg.Python, log)
	case BackendHTTP:
		if cfg.HTTP.BaseURL == "" {
			return nil, fmt.Errorf("solver backend %q needs a URL", BackendHTTP)
		}
		r.backend = NewHTTPSolver(cfg.HTTP)
	default:
		return nil, fmt.Errorf("unknown solver backend %q", cfg.Backend)
	}
	return r, nil
}

// NewRuntimeWith wraps an existing solver, e.g. a fake in tests
func NewRuntimeWith(s Solver, log *logging.Logger) *Runtime {
	if log == nil {
		log = logging.Discard()
	}
	return &Runtime{backend: s, log: log, cfg: RuntimeConfig{ProbeTimeout: 30 * time.Second}}
}

// Start initializes the backend once and returns it. Later calls return the
// same solver and the same error.
func (r *Runtime) Start(ctx context.Context) (Solver, error) {
	r.once.Do(func() {
		start := time.Now()
		r.startErr = r.check(ctx)
		if r.startErr != nil {
			r.log.LogError("Solver-Backend nicht verfügbar", r.startErr)
			return
		}
		r.log.Info("Solver-Backend bereit", "backend", r.backendName(), "duration", time.Since(start))
	})
	if r.startErr != nil {
		return nil, r.startErr
	}
	return r.backend, nil
}

// Check re-probes the backend without affecting Start. Used by health checks.
func (r *Runtime) Check(ctx context.Context) error {
	return r.check(ctx)
}

func (r *Runtime) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	switch b := r.backend.(type) {
	case prober:
		return b.Probe(ctx)
	case *HTTPSolver:
		return b.Health(ctx)
	}
	return nil
}

func (r *Runtime) backendName() string {
	switch r.backend.(type) {
	case *PythonSolver:
		return BackendPython
	case *HTTPSolver:
		return BackendHTTP
	default:
		return fmt.Sprintf("%T", r.backend)
	}
}
