package cmd

import (
	"context"
	"time"

	"github.com/msto63/dglrechner/internal/history"
	"github.com/msto63/dglrechner/internal/keypad"
	"github.com/msto63/dglrechner/internal/render"
	"github.com/msto63/dglrechner/internal/solver"
	"github.com/msto63/dglrechner/pkg/core/cache"
	"github.com/msto63/dglrechner/pkg/core/config"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

func runtimeConfig(cfg *config.Config) solver.RuntimeConfig {
	return solver.RuntimeConfig{
		Backend: cfg.Solver.Backend,
		Python: solver.PythonConfig{
			Interpreter:    cfg.Solver.Interpreter,
			Timeout:        cfg.Solver.Timeout.Duration,
			AttemptTimeout: cfg.Solver.AttemptTimeout.Duration,
		},
		HTTP: solver.HTTPConfig{
			BaseURL: cfg.Solver.URL,
			Timeout: cfg.Solver.Timeout.Duration,
		},
	}
}

// startSolver creates the runtime and starts the backend once. The runtime is
// returned even when starting fails, so callers can report and re-check it.
func startSolver(ctx context.Context, cfg *config.Config) (*solver.Runtime, solver.Solver, error) {
	rt, err := solver.NewRuntime(runtimeConfig(cfg), logging.New("solver"))
	if err != nil {
		return nil, nil, err
	}
	s, err := rt.Start(ctx)
	return rt, s, err
}

func cacheConfig(cfg *config.Config) cache.Config {
	return cache.Config{
		MaxItems:        cfg.Render.CacheSize,
		TTL:             cfg.Render.CacheTTL.Duration,
		CleanupInterval: time.Minute,
	}
}

func newPNGRenderer(cfg *config.Config) (*render.PNGRenderer, error) {
	return render.NewPNGRenderer(render.PNGConfig{
		FontPath: cfg.Render.FontPath,
		FontSize: cfg.Render.FontSize,
		Padding:  cfg.Render.Padding,
	}, logging.New("render"))
}

// openHistory opens the configured store. Disabled history yields nil.
func openHistory(cfg *config.Config) (history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.NewSQLiteStore(cfg.History.Path)
}

func loadKeypad(cfg *config.Config) (*keypad.Layout, error) {
	return keypad.Load(cfg.Keypad.Layout)
}
