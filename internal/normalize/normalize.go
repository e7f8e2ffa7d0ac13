// Package normalize rewrites user-typed ODE shorthand into the canonical
// expression grammar accepted by the symbolic backend: `**` for powers,
// `diff(y(x),x)` / `diff(y(x),x,2)` for derivatives, `y(x)` for the unknown
// function and explicit `*` for multiplication.
//
// The rewrite is a fixed, ordered list of rules. Later rules assume the
// earlier ones already ran: `y''` must be rewritten before `y'`, and the
// dx/dy step must run before bare `y` is expanded to `y(x)`. Normalize is
// not idempotent, because every bare `y` is rewritten unconditionally.
package normalize

import (
	"regexp"
	"strings"
)

// placeholder protects existing y(x) occurrences while bare y is expanded.
// It must not contain a lowercase y.
const placeholder = "YFUNC_TMP"

var (
	primeReplacer = strings.NewReplacer("′", "'", "’", "'", "‵", "'")
	dashReplacer  = strings.NewReplacer("−", "-", "–", "-", "—", "-")
	dotReplacer   = strings.NewReplacer("·", "*", "⋅", "*", "×", "*", `\cdot`, "*")

	// [\s\v] also matches the vertical tab, which \s alone does not in RE2
	reSpacedEquals  = regexp.MustCompile(`[\s\v]*=[\s\v]*`)
	reWhitespace    = regexp.MustCompile(`[\s\v]+`)
	reDigitX        = regexp.MustCompile(`(\d)(x)`)
	reDigitY        = regexp.MustCompile(`(\d)(y\(x\))`)
	reXYGlued       = regexp.MustCompile(`xy\(x\)`)
	reXYSpaced      = regexp.MustCompile(`x[\s\v]*y\(x\)`)
	implicitProduct = "${1}*${2}"
)

// Rule is a single named rewrite step
type Rule struct {
	Name  string
	Apply func(string) string
}

// Step is the result of applying one rule during Trace
type Step struct {
	Rule   string `json:"rule" yaml:"rule"`
	Output string `json:"output" yaml:"output"`
}

// rules is the rewrite pipeline. Order is load-bearing.
var rules = []Rule{
	{"trim", strings.TrimSpace},
	{"primes", primeReplacer.Replace},
	{"dashes", dashReplacer.Replace},
	{"multiplication-dots", dotReplacer.Replace},
	{"whitespace", func(s string) string {
		s = reSpacedEquals.ReplaceAllString(s, "=")
		return collapse(s)
	}},
	{"power", func(s string) string {
		return strings.ReplaceAll(s, "^", "**")
	}},
	{"derivatives", func(s string) string {
		s = strings.ReplaceAll(s, "y''", "diff(y(x),x,2)")
		return strings.ReplaceAll(s, "y'", "diff(y(x),x)")
	}},
	{"differential-form", differentialForm},
	{"unknown-function", func(s string) string {
		s = strings.ReplaceAll(s, "y(x)", placeholder)
		s = strings.ReplaceAll(s, "y", "y(x)")
		return strings.ReplaceAll(s, placeholder, "y(x)")
	}},
	{"implicit-multiplication", func(s string) string {
		s = reDigitX.ReplaceAllString(s, implicitProduct)
		s = reDigitY.ReplaceAllString(s, implicitProduct)
		s = reXYGlued.ReplaceAllString(s, "x*y(x)")
		return reXYSpaced.ReplaceAllString(s, "x*y(x)")
	}},
	{"final-whitespace", collapse},
}

// Normalize converts freeform user input into a canonical expression string.
// It never fails; validity is left to the symbolic backend.
func Normalize(raw string) string {
	s := raw
	for _, r := range rules {
		s = r.Apply(s)
	}
	return s
}

// Trace runs the pipeline and records the string after every rule
func Trace(raw string) []Step {
	steps := make([]Step, 0, len(rules))
	s := raw
	for _, r := range rules {
		s = r.Apply(s)
		steps = append(steps, Step{Rule: r.Name, Output: s})
	}
	return steps
}

// Rules returns the names of the rewrite rules in application order
func Rules() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

// differentialForm handles `A dx + B dy = 0`: dividing by dx turns `B dy`
// into `B*diff(y(x),x)` and drops dx.
func differentialForm(s string) string {
	if !strings.Contains(s, "dx") && !strings.Contains(s, "dy") {
		return s
	}
	s = strings.ReplaceAll(s, "dy", "*diff(y(x),x)")
	s = strings.ReplaceAll(s, "dx", "")
	return collapse(s)
}

func collapse(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}
