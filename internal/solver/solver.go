// ============================================================================
// dglrechner - ODE-Eingabe, Vorschau und Lösung
// ============================================================================
//
// Package:     solver
// Description: Boundary to the symbolic ODE backend. The mathematics is
//              delegated; this package prepares requests, classifies
//              failures and composes the explanation text.
// License:     MIT
// ============================================================================

package solver

import (
	"context"
	"strconv"
	"strings"
	"time"

	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
)

// Solver solves a canonical ODE, optionally as an initial value problem.
// initialConditions has the form "x0,y0" or is empty.
type Solver interface {
	Solve(ctx context.Context, canonical, initialConditions string) (*Result, error)
}

// InitialConditions is a parsed "x0,y0" pair meaning y(x0) = y0
type InitialConditions struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
}

// String formats the condition as y(x0) = y0
func (c InitialConditions) String() string {
	return "y(" + formatFloat(c.X0) + ") = " + formatFloat(c.Y0)
}

// Result is a successful solve
type Result struct {
	Canonical   string             `json:"canonical" yaml:"canonical"`
	Explanation string             `json:"explanation" yaml:"explanation"`
	LaTeX       string             `json:"latex" yaml:"latex"`
	Solution    string             `json:"solution" yaml:"solution"`
	Hint        string             `json:"hint,omitempty" yaml:"hint,omitempty"`
	Conditions  *InitialConditions `json:"initial_conditions,omitempty" yaml:"initial_conditions,omitempty"`
	Warning     string             `json:"warning,omitempty" yaml:"warning,omitempty"`
	Duration    time.Duration      `json:"duration" yaml:"duration"`
}

// ParseInitialConditions parses "x0,y0". Empty input yields nil without an
// error.
func ParseInitialConditions(s string) (*InitialConditions, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	x0Str, y0Str, ok := strings.Cut(s, ",")
	if !ok {
		return nil, invalidConditions(s)
	}
	x0, err := strconv.ParseFloat(strings.TrimSpace(x0Str), 64)
	if err != nil {
		return nil, invalidConditions(s)
	}
	y0, err := strconv.ParseFloat(strings.TrimSpace(y0Str), 64)
	if err != nil {
		return nil, invalidConditions(s)
	}
	return &InitialConditions{X0: x0, Y0: y0}, nil
}

func invalidConditions(s string) error {
	return dglerrors.Newf("invalid initial conditions %q, expected x0,y0", s).
		WithCode(dglerrors.CodeInvalidInput)
}

// warnInvalidConditions is shown when the initial conditions are ignored
const warnInvalidConditions = "Warnung: ungültige Anfangsbedingung, sie wird ignoriert. Format x0,y0 (z. B. 0,1)."

// prepareConditions parses initial conditions leniently: invalid input is
// dropped with a warning instead of failing the solve.
func prepareConditions(s string) (*InitialConditions, string) {
	ics, err := ParseInitialConditions(s)
	if err != nil {
		return nil, warnInvalidConditions
	}
	return ics, ""
}

// Explain composes the explanation shown above the typeset solution
func Explain(ics *InitialConditions, warning, solution string) string {
	var lines []string
	if ics != nil {
		lines = append(lines, "Anfangsbedingung: "+ics.String(), "")
	}
	if warning != "" {
		lines = append(lines, warning, "")
	}
	lines = append(lines, "=== LÖSUNG ===", "y(x) = "+solution)
	return strings.Join(lines, "\n")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// classifyContext maps a finished context to a solver error, or nil when the
// context is still live
func classifyContext(ctx context.Context, op string) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return dglerrors.Wrap(ctx.Err(), "solve timed out").
			WithCode(dglerrors.CodeTimeout).
			WithOperation(op)
	case context.Canceled:
		return dglerrors.Wrap(ctx.Err(), "solve canceled").
			WithCode(dglerrors.CodeCanceled).
			WithOperation(op)
	}
	return nil
}
