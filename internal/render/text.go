package render

import (
	"fmt"
	"strings"
	"unicode"

	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

var symbols = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"zeta": "ζ", "eta": "η", "theta": "θ", "kappa": "κ", "lambda": "λ",
	"mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π", "rho": "ρ", "sigma": "σ",
	"tau": "τ", "phi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Pi": "Π",
	"Sigma": "Σ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
	"int": "∫", "sum": "∑", "prod": "∏", "infty": "∞", "partial": "∂",
	"cdot": "·", "times": "×", "pm": "±", "mp": "∓", "le": "≤", "leq": "≤",
	"ge": "≥", "geq": "≥", "neq": "≠", "ne": "≠", "approx": "≈", "to": "→",
	"rightarrow": "→", "cdots": "⋯", "ldots": "…",
	"sin": "sin", "cos": "cos", "tan": "tan", "cot": "cot", "sinh": "sinh",
	"cosh": "cosh", "tanh": "tanh", "exp": "exp", "ln": "ln", "log": "log",
	"arcsin": "arcsin", "arccos": "arccos", "arctan": "arctan",
	",": " ", ";": " ", ":": " ", " ": " ", "!": "", "quad": "  ", "qquad": "    ",
	"left": "", "right": "", "{": "{", "}": "}",
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶',
	'7': '⁷', '8': '⁸', '9': '⁹', '+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽',
	')': '⁾', 'n': 'ⁿ', 'i': 'ⁱ', 'x': 'ˣ', 'y': 'ʸ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆',
	'7': '₇', '8': '₈', '9': '₉', '+': '₊', '-': '₋', '=': '₌', '(': '₍',
	')': '₎', 'a': 'ₐ', 'e': 'ₑ', 'o': 'ₒ', 'x': 'ₓ', 'i': 'ᵢ', 'n': 'ₙ',
}

// TextRenderer renders markup as plain Unicode text for terminals
type TextRenderer struct {
	log *logging.Logger
}

// NewTextRenderer creates a text renderer
func NewTextRenderer(log *logging.Logger) *TextRenderer {
	if log == nil {
		log = logging.Discard()
	}
	return &TextRenderer{log: log}
}

// Render implements Renderer
func (r *TextRenderer) Render(markup string) Visual {
	text, err := ToUnicode(markup)
	if err != nil {
		r.log.Debug("Preview nicht darstellbar", "markup", markup, "error", err)
		return Visual{}
	}
	return Visual{Text: text}
}

// ToUnicode converts LaTeX markup to Unicode text. It fails on unbalanced
// braces and on a dangling backslash, sub- or superscript marker.
func ToUnicode(markup string) (string, error) {
	p := &texParser{src: []rune(markup)}
	out, err := p.sequence(false)
	if err != nil {
		return "", dglerrors.Wrap(err, "invalid markup").
			WithCode(dglerrors.CodeRenderFailed).
			WithDetail("position", p.pos)
	}
	return strings.TrimSpace(out), nil
}

type texParser struct {
	src []rune
	pos int
}

func (p *texParser) eof() bool { return p.pos >= len(p.src) }

// sequence reads until the end of input or, inside a group, the closing brace
func (p *texParser) sequence(inGroup bool) (string, error) {
	var b strings.Builder
	for !p.eof() {
		r := p.src[p.pos]
		switch r {
		case '}':
			if !inGroup {
				return "", fmt.Errorf("unexpected '}' at %d", p.pos)
			}
			p.pos++
			return b.String(), nil
		case '{':
			p.pos++
			inner, err := p.sequence(true)
			if err != nil {
				return "", err
			}
			b.WriteString(inner)
		case '\\':
			s, err := p.command()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case '^', '_':
			p.pos++
			arg, err := p.argument()
			if err != nil {
				return "", err
			}
			if r == '^' {
				b.WriteString(script(arg, superscripts, "^"))
			} else {
				b.WriteString(script(arg, subscripts, "_"))
			}
		default:
			b.WriteRune(r)
			p.pos++
		}
	}
	if inGroup {
		return "", fmt.Errorf("missing '}'")
	}
	return b.String(), nil
}

// argument reads a braced group or a single token
func (p *texParser) argument() (string, error) {
	if p.eof() {
		return "", fmt.Errorf("missing argument at %d", p.pos)
	}
	switch r := p.src[p.pos]; r {
	case '{':
		p.pos++
		return p.sequence(true)
	case '\\':
		return p.command()
	case '}':
		return "", fmt.Errorf("missing argument at %d", p.pos)
	default:
		p.pos++
		return string(r), nil
	}
}

func (p *texParser) command() (string, error) {
	p.pos++ // backslash
	if p.eof() {
		return "", fmt.Errorf("dangling backslash")
	}

	start := p.pos
	if !unicode.IsLetter(p.src[p.pos]) {
		p.pos++
	} else {
		for !p.eof() && unicode.IsLetter(p.src[p.pos]) {
			p.pos++
		}
	}
	name := string(p.src[start:p.pos])

	switch name {
	case "frac", "dfrac", "tfrac":
		num, err := p.argument()
		if err != nil {
			return "", err
		}
		den, err := p.argument()
		if err != nil {
			return "", err
		}
		return "(" + num + ")/(" + den + ")", nil
	case "sqrt":
		arg, err := p.argument()
		if err != nil {
			return "", err
		}
		return "√(" + arg + ")", nil
	case "text", "mathrm", "operatorname", "mathit", "mathbf":
		return p.argument()
	}

	if s, ok := symbols[name]; ok {
		return s, nil
	}
	return name, nil
}

// script maps every rune of s through table; when a rune has no mapping
// the caret notation is used instead
func script(s string, table map[rune]rune, marker string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		m, ok := table[r]
		if !ok {
			if len([]rune(s)) == 1 {
				return marker + s
			}
			return marker + "(" + s + ")"
		}
		b.WriteRune(m)
	}
	return b.String()
}
