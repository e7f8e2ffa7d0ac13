package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/msto63/dglrechner/internal/history"
	"github.com/msto63/dglrechner/internal/keypad"
	"github.com/msto63/dglrechner/internal/normalize"
	"github.com/msto63/dglrechner/internal/render"
	"github.com/msto63/dglrechner/internal/solver"
	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
	"github.com/msto63/dglrechner/pkg/core/health"
	"github.com/msto63/dglrechner/pkg/core/logging"
	"github.com/msto63/dglrechner/pkg/core/version"
)

// NormalizeRequest is the body of POST /api/v1/normalize
type NormalizeRequest struct {
	Input string `json:"input"`
	Trace bool   `json:"trace,omitempty"`
}

// NormalizeResponse carries the canonical form and, on request, every
// intermediate step
type NormalizeResponse struct {
	Input     string           `json:"input"`
	Canonical string           `json:"canonical"`
	Markup    string           `json:"markup"`
	Steps     []normalize.Step `json:"steps,omitempty"`
}

// HistoryResponse is a page of recorded solves
type HistoryResponse struct {
	Entries []*history.Entry `json:"entries"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// Handler handles HTTP requests for the API
type Handler struct {
	solver   solver.Solver
	renderer render.Renderer
	history  history.Store
	recorder *history.Recorder
	keypad   *keypad.Layout
	health   *health.Registry
	logger   *logging.Logger
	maxBody  int64
}

// NewHandler creates a new API handler
func NewHandler(deps Deps, registry *health.Registry, maxBody int64, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewTextRenderer(logger)
	}
	if deps.Keypad == nil {
		deps.Keypad = keypad.Default()
	}
	return &Handler{
		solver:   deps.Solver,
		renderer: deps.Renderer,
		history:  deps.History,
		recorder: history.NewRecorder(deps.History, logger),
		keypad:   deps.Keypad,
		health:   registry,
		logger:   logger,
		maxBody:  maxBody,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.URL.Path == "/health" || r.URL.Path == "/health/" {
		h.handleHealth(w, r)
		return
	}

	if !strings.HasPrefix(r.URL.Path, "/api/v1") {
		h.writeError(w, notFound("endpoint not found"))
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = strings.Trim(path, "/")

	switch {
	case path == "":
		h.handleRoot(w, r)
	case path == "health":
		h.handleHealth(w, r)
	case path == "version":
		h.handleVersion(w, r)
	case path == "normalize":
		h.handleNormalize(w, r)
	case path == "solve":
		h.handleSolve(w, r)
	case path == "render.png":
		h.handleRenderPNG(w, r)
	case path == "keypad":
		h.handleKeypad(w, r)
	case path == "history":
		h.handleHistory(w, r)
	case path == "history/stats":
		h.handleHistoryStats(w, r)
	case strings.HasPrefix(path, "history/"):
		h.handleHistoryEntry(w, r, strings.TrimPrefix(path, "history/"))
	default:
		h.writeError(w, notFound("endpoint not found"))
	}
}

// handleRoot lists the endpoints
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "dglrechner API",
		"version": version.App,
		"endpoints": []string{
			"GET  /health",
			"GET  /api/v1/version",
			"POST /api/v1/normalize",
			"POST /api/v1/solve",
			"GET  /api/v1/render.png?expr=",
			"GET  /api/v1/keypad",
			"GET  /api/v1/history",
			"GET  /api/v1/history/stats",
			"GET  /api/v1/history/{id}",
			"DELETE /api/v1/history/{id}",
			"WS   /api/v1/preview/ws",
		},
	}
	h.writeJSON(w, http.StatusOK, info)
}

// handleHealth runs the health registry. Degraded still answers 200.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	report := h.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, report)
}

func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	h.writeJSON(w, http.StatusOK, version.Get())
}

func (h *Handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}

	var req NormalizeRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	canonical := normalize.Normalize(req.Input)
	resp := NormalizeResponse{
		Input:     req.Input,
		Canonical: canonical,
		Markup:    render.Typeset(canonical),
	}
	if req.Trace || r.URL.Query().Get("trace") == "true" {
		resp.Steps = normalize.Trace(req.Input)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleSolve normalizes Input unless a canonical form is given, solves and
// records the outcome
func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}

	var req solver.SolveRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	canonical := strings.TrimSpace(req.Canonical)
	if canonical == "" {
		canonical = normalize.Normalize(req.Input)
	}
	if canonical == "" {
		h.writeError(w, dglerrors.New("input or canonical is required").WithCode(dglerrors.CodeInvalidInput))
		return
	}
	if h.solver == nil {
		h.writeError(w, dglerrors.New("solver not available").WithCode(dglerrors.CodeServiceUnavailable))
		return
	}

	start := time.Now()
	res, err := h.solver.Solve(r.Context(), canonical, req.InitialConditions)

	entry := &history.Entry{
		Source:            "api",
		Input:             req.Input,
		Canonical:         canonical,
		InitialConditions: req.InitialConditions,
		Duration:          time.Since(start),
	}
	if res != nil {
		entry.Explanation = res.Explanation
		entry.LaTeX = res.LaTeX
	}
	h.recorder.Record(r.Context(), entry, err)

	if err != nil {
		h.logger.Warn("solve failed", "canonical", canonical, "code", string(dglerrors.CodeOf(err)))
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// handleRenderPNG renders ?expr= (canonical or raw input) or ?markup= (LaTeX)
func (h *Handler) handleRenderPNG(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	markup := q.Get("markup")
	if markup == "" {
		expr := q.Get("expr")
		if expr == "" {
			h.writeError(w, dglerrors.New("expr or markup is required").WithCode(dglerrors.CodeInvalidInput))
			return
		}
		markup = render.Typeset(normalize.Normalize(expr))
	}

	v := h.renderer.Render(markup)
	if len(v.PNG) == 0 {
		h.writeError(w, dglerrors.New("markup could not be rendered").
			WithCode(dglerrors.CodeRenderFailed).
			WithDetail("markup", markup))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(v.PNG)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(v.PNG)
}

func (h *Handler) handleKeypad(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	h.writeJSON(w, http.StatusOK, h.keypad)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !h.requireHistory(w) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		entries, err := h.history.List(r.Context(), limit, offset)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if entries == nil {
			entries = []*history.Entry{}
		}
		h.writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Limit: limit, Offset: offset})

	case http.MethodDelete:
		if err := h.history.Clear(r.Context()); err != nil {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		h.methodNotAllowed(w, "GET, DELETE")
	}
}

func (h *Handler) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	if !h.requireHistory(w) || !h.allow(w, r, http.MethodGet) {
		return
	}
	stats, err := h.history.Statistics(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleHistoryEntry(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireHistory(w) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := h.history.Get(r.Context(), id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, e)

	case http.MethodDelete:
		if err := h.history.Delete(r.Context(), id); err != nil {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		h.methodNotAllowed(w, "GET, DELETE")
	}
}

// Helper methods

func (h *Handler) requireHistory(w http.ResponseWriter) bool {
	if h.history == nil {
		h.writeError(w, dglerrors.New("history is disabled").WithCode(dglerrors.CodeServiceUnavailable))
		return false
	}
	return true
}

func (h *Handler) allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		h.methodNotAllowed(w, method)
		return false
	}
	return true
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	var body solver.ErrorBody
	body.Error.Code = "METHOD_NOT_ALLOWED"
	body.Error.Message = "use " + allowed
	h.writeJSON(w, http.StatusMethodNotAllowed, body)
}

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dglerrors.Wrap(err, "invalid request body").WithCode(dglerrors.CodeInvalidInput)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the error envelope with the status matching its code
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := dglerrors.CodeOf(err)
	message := err.Error()
	var e *dglerrors.Error
	if dglerrors.As(err, &e) {
		message = e.Message()
	}

	var body solver.ErrorBody
	body.Error.Code = code
	body.Error.Message = message
	h.writeJSON(w, code.HTTPStatus(), body)
}

func notFound(msg string) error {
	return dglerrors.New(msg).WithCode(dglerrors.CodeNotFound)
}
