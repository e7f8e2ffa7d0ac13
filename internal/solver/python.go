package solver

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

//go:embed bridge.py
var bridgeScript string

// PythonConfig configures the SymPy subprocess backend
type PythonConfig struct {
	Interpreter    string
	Timeout        time.Duration
	AttemptTimeout time.Duration
}

// DefaultPythonConfig returns default configuration
func DefaultPythonConfig() PythonConfig {
	return PythonConfig{
		Interpreter:    "python3",
		Timeout:        60 * time.Second,
		AttemptTimeout: 8 * time.Second,
	}
}

// PythonSolver runs the embedded bridge script once per solve
type PythonSolver struct {
	cfg PythonConfig
	log *logging.Logger
}

type bridgeRequest struct {
	Equation       string             `json:"equation"`
	ICs            *InitialConditions `json:"ics"`
	AttemptTimeout int                `json:"attempt_timeout"`
}

type bridgeResponse struct {
	OK       bool   `json:"ok"`
	Solution string `json:"solution"`
	LaTeX    string `json:"latex"`
	Hint     string `json:"hint"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

// NewPythonSolver creates a solver backed by a local Python interpreter
func NewPythonSolver(cfg PythonConfig, log *logging.Logger) *PythonSolver {
	def := DefaultPythonConfig()
	if cfg.Interpreter == "" {
		cfg.Interpreter = def.Interpreter
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if log == nil {
		log = logging.Discard()
	}
	return &PythonSolver{cfg: cfg, log: log}
}

// Solve implements Solver
func (s *PythonSolver) Solve(ctx context.Context, canonical, initialConditions string) (*Result, error) {
	const op = "python.solve"
	start := time.Now()

	if strings.TrimSpace(canonical) == "" {
		return nil, dglerrors.New("empty equation").
			WithCode(dglerrors.CodeInvalidInput).
			WithOperation(op)
	}

	ics, warning := prepareConditions(initialConditions)
	if warning != "" {
		s.log.Info("Anfangsbedingung ignoriert", "input", initialConditions)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.run(ctx, bridgeRequest{
		Equation:       canonical,
		ICs:            ics,
		AttemptTimeout: max(1, int(s.cfg.AttemptTimeout/time.Second)),
	})
	if err != nil {
		return nil, err
	}

	if !resp.OK {
		code := dglerrors.CodeUnsolvable
		if resp.Kind == "parse" {
			code = dglerrors.CodeInvalidInput
		}
		return nil, dglerrors.New(resp.Error).
			WithCode(code).
			WithOperation(op).
			WithDetail("equation", canonical)
	}

	s.log.Debug("Lösung gefunden", "hint", resp.Hint, "duration", time.Since(start))

	return &Result{
		Canonical:   canonical,
		Explanation: Explain(ics, warning, resp.Solution),
		LaTeX:       resp.LaTeX,
		Solution:    resp.Solution,
		Hint:        resp.Hint,
		Conditions:  ics,
		Warning:     warning,
		Duration:    time.Since(start),
	}, nil
}

func (s *PythonSolver) run(ctx context.Context, req bridgeRequest) (*bridgeResponse, error) {
	const op = "python.run"

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, dglerrors.Wrap(err, "failed to marshal request").
			WithCode(dglerrors.CodeInternal)
	}

	cmd := exec.CommandContext(ctx, s.cfg.Interpreter, "-c", bridgeScript)
	cmd.WaitDelay = time.Second
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cerr := classifyContext(ctx, op); cerr != nil {
			return nil, cerr
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, dglerrors.Wrap(err, "python interpreter not found").
				WithCode(dglerrors.CodeServiceUnavailable).
				WithOperation(op).
				WithDetail("interpreter", s.cfg.Interpreter)
		}
		return nil, dglerrors.Wrap(err, "solver bridge failed").
			WithCode(dglerrors.CodeExternalServiceError).
			WithOperation(op).
			WithDetail("stderr", tail(stderr.String(), 512))
	}

	var resp bridgeResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, dglerrors.Wrap(err, "invalid bridge response").
			WithCode(dglerrors.CodeExternalServiceError).
			WithOperation(op).
			WithDetail("stdout", tail(stdout.String(), 512))
	}
	return &resp, nil
}

// Probe checks that the interpreter starts and can import sympy
func (s *PythonSolver) Probe(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.cfg.Interpreter, "-c", "import sympy")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return dglerrors.Wrap(err, "sympy not available").
			WithCode(dglerrors.CodeServiceUnavailable).
			WithOperation("python.probe").
			WithDetail("interpreter", s.cfg.Interpreter).
			WithDetail("stderr", tail(stderr.String(), 512))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n:]
}
