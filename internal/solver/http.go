package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
)

// SolveRequest is the body of POST /api/v1/solve. When Canonical is empty
// the server normalizes Input first.
type SolveRequest struct {
	Input             string `json:"input,omitempty"`
	Canonical         string `json:"canonical,omitempty"`
	InitialConditions string `json:"initial_conditions,omitempty"`
}

// ErrorBody is the JSON error envelope of the HTTP API
type ErrorBody struct {
	Error struct {
		Code    dglerrors.Code `json:"code"`
		Message string         `json:"message"`
	} `json:"error"`
}

// HTTPConfig holds remote solver configuration
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPSolver delegates to a remote `dgl serve` instance
type HTTPSolver struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSolver creates a remote solver client
func NewHTTPSolver(cfg HTTPConfig) *HTTPSolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &HTTPSolver{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Solve implements Solver
func (s *HTTPSolver) Solve(ctx context.Context, canonical, initialConditions string) (*Result, error) {
	const op = "http.solve"

	body, err := json.Marshal(SolveRequest{Canonical: canonical, InitialConditions: initialConditions})
	if err != nil {
		return nil, dglerrors.Wrap(err, "failed to marshal request").WithCode(dglerrors.CodeInternal)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/solve", bytes.NewReader(body))
	if err != nil {
		return nil, dglerrors.Wrap(err, "failed to create request").WithCode(dglerrors.CodeInternal)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if cerr := classifyContext(ctx, op); cerr != nil {
			return nil, cerr
		}
		return nil, dglerrors.Wrap(err, "solver service unreachable").
			WithCode(dglerrors.CodeServiceUnavailable).
			WithOperation(op).
			WithDetail("url", s.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp, op)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, dglerrors.Wrap(err, "failed to decode response").
			WithCode(dglerrors.CodeExternalServiceError).
			WithOperation(op)
	}
	return &result, nil
}

// Health checks the remote /health endpoint
func (s *HTTPSolver) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return dglerrors.Wrap(err, "solver service unreachable").
			WithCode(dglerrors.CodeServiceUnavailable).
			WithOperation("http.health")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return dglerrors.Newf("solver service unhealthy: status %d", resp.StatusCode).
			WithCode(dglerrors.CodeServiceUnavailable).
			WithOperation("http.health")
	}
	return nil
}

// decodeError rebuilds a classified error from an API error envelope
func decodeError(resp *http.Response, op string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body ErrorBody
	if err := json.Unmarshal(data, &body); err != nil || body.Error.Code == "" {
		return dglerrors.New(fmt.Sprintf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))).
			WithCode(dglerrors.CodeExternalServiceError).
			WithOperation(op)
	}
	return dglerrors.New(body.Error.Message).
		WithCode(body.Error.Code).
		WithOperation(op).
		WithDetail("status", resp.StatusCode)
}
