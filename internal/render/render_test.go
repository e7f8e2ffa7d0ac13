package render

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/msto63/dglrechner/internal/normalize"
	"github.com/msto63/dglrechner/pkg/core/cache"
)

func TestTypeset(t *testing.T) {
	tests := []struct {
		canonical string
		want      string
	}{
		{"diff(y(x),x,2)+diff(y(x),x)=0", "y''+y'=0"},
		{"x**2+y(x)**2", "x^{2}+y^{2}"},
		{"2*x+3*y(x)=5", `2 \cdot x+3 \cdot y=5`},
		{"2 + y(x) *diff(y(x),x)", `2 + y \cdot y'`},
		{"exp(x)**(x+1)", "exp(x)^{x+1}"},
		{"x**-1", "x^{-1}"},
		{"x**", "x^{}"},
		{`\frac{1}{x}`, `\frac{1}{x}`},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.canonical, func(t *testing.T) {
			if got := Typeset(tt.canonical); got != tt.want {
				t.Errorf("Typeset(%q) = %q, want %q", tt.canonical, got, tt.want)
			}
		})
	}
}

func TestToUnicode(t *testing.T) {
	tests := []struct {
		markup string
		want   string
	}{
		{"y''+y'=0", "y''+y'=0"},
		{"x^{2}+y^{2}", "x²+y²"},
		{"x^{10}", "x¹⁰"},
		{"e^{ax}", "e^(ax)"},
		{"x_{1}", "x₁"},
		{"x^2", "x²"},
		{`\frac{1}{x}`, "(1)/(x)"},
		{`\sqrt{x+1}`, "√(x+1)"},
		{`2 \cdot x`, "2 · x"},
		{`\alpha + \beta`, "α + β"},
		{`\int x\,dx`, "∫ x dx"},
		{`\sum k`, "∑ k"},
		{`\text{für } x`, "für  x"},
		{`\left( x \right)`, "( x )"},
		{`\frac{}{}`, "()/()"},
		{"x^{}", "x"},
		{`\unknown`, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.markup, func(t *testing.T) {
			got, err := ToUnicode(tt.markup)
			if err != nil {
				t.Fatalf("ToUnicode(%q) error = %v", tt.markup, err)
			}
			if got != tt.want {
				t.Errorf("ToUnicode(%q) = %q, want %q", tt.markup, got, tt.want)
			}
		})
	}
}

func TestToUnicode_Errors(t *testing.T) {
	for _, markup := range []string{`\frac{1}{x`, "x}", "{{x}", `x\`, "x^", `\frac{1}`} {
		t.Run(markup, func(t *testing.T) {
			if _, err := ToUnicode(markup); err == nil {
				t.Errorf("ToUnicode(%q) expected error", markup)
			}
		})
	}
}

func TestTextRenderer_FailureIsBlank(t *testing.T) {
	r := NewTextRenderer(nil)

	if v := r.Render(`\frac{1}{`); !v.Empty() {
		t.Errorf("Render(unbalanced) = %+v, want empty visual", v)
	}
	if v := r.Render("y'"); v.Empty() || v.Text != "y'" {
		t.Errorf("Render(y') = %+v", v)
	}
}

func TestPreview(t *testing.T) {
	r := NewTextRenderer(nil)
	v := Preview(r, normalize.Normalize("y''+2y'+y^2=0"))
	if v.Text != "y''+2y'+y²=0" {
		t.Errorf("Preview() = %q", v.Text)
	}
}

func TestPNGRenderer(t *testing.T) {
	r, err := NewPNGRenderer(PNGConfig{Padding: 8}, nil)
	if err != nil {
		t.Fatalf("NewPNGRenderer() error = %v", err)
	}

	v := r.Render(`y'' + 2 \cdot y = 0`)
	if v.Empty() || len(v.PNG) == 0 {
		t.Fatal("Render() returned no PNG")
	}

	img, err := png.Decode(bytes.NewReader(v.PNG))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if img.Bounds().Dx() != v.Width || img.Bounds().Dy() != v.Height {
		t.Errorf("image %v, visual %dx%d", img.Bounds(), v.Width, v.Height)
	}
	if v.Width <= 16 || v.Height <= 16 {
		t.Errorf("image too small: %dx%d", v.Width, v.Height)
	}

	if v := r.Render("x}"); !v.Empty() {
		t.Error("bad markup should give an empty visual")
	}
	if v := r.Render(""); !v.Empty() {
		t.Error("empty markup should give an empty visual")
	}
}

func TestNewPNGRenderer_MissingFont(t *testing.T) {
	_, err := NewPNGRenderer(PNGConfig{FontPath: filepath.Join(t.TempDir(), "none.ttf")}, nil)
	if err == nil {
		t.Error("NewPNGRenderer() expected error for missing font")
	}
}

type countingRenderer struct {
	calls int
}

func (c *countingRenderer) Render(markup string) Visual {
	c.calls++
	if markup == "bad" {
		return Visual{}
	}
	return Visual{Text: markup}
}

func TestCachedRenderer(t *testing.T) {
	inner := &countingRenderer{}
	r := NewCachedRenderer(inner, cache.Config{MaxItems: 10, TTL: time.Minute})
	defer r.Close()

	r.Render("y'")
	r.Render("y'")
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	r.Render("bad")
	r.Render("bad")
	if inner.calls != 3 {
		t.Errorf("empty visuals must not be cached, calls = %d", inner.calls)
	}

	hits, _, _ := r.Stats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}
