package render

import (
	"regexp"
	"strings"
)

var (
	typesetReplacer = strings.NewReplacer(
		"diff(y(x),x,2)", "y''",
		"diff(y(x),x)", "y'",
		"y(x)", "y",
	)
	reSpaces = regexp.MustCompile(`\s+`)
)

// Typeset converts a canonical expression back into LaTeX markup for the
// preview. Input that already contains LaTeX commands is returned as is.
func Typeset(canonical string) string {
	if strings.Contains(canonical, `\`) {
		return canonical
	}

	s := typesetReplacer.Replace(canonical)
	s = powers(s)
	s = strings.ReplaceAll(s, "*", ` \cdot `)
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// powers rewrites `**e` as `^{e}`. The exponent is either a parenthesised
// group, whose outer parentheses are dropped, or a run of letters, digits
// and dots. A leading minus sign belongs to the exponent.
func powers(s string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, "**")
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		rest := s[i+2:]

		exp, n := exponent(rest)
		b.WriteString("^{")
		b.WriteString(exp)
		b.WriteString("}")
		s = rest[n:]
	}
}

func exponent(s string) (string, int) {
	if strings.HasPrefix(s, "(") {
		depth := 0
		for i, r := range s {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return s[1:i], i + 1
				}
			}
		}
		return s, len(s)
	}

	n := 0
	if strings.HasPrefix(s, "-") {
		n = 1
	}
	for n < len(s) && isOperandByte(s[n]) {
		n++
	}
	return s[:n], n
}

func isOperandByte(c byte) bool {
	return c == '.' || c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}
