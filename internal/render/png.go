package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/msto63/dglrechner/pkg/core/logging"
)

// PNGConfig configures the raster renderer
type PNGConfig struct {
	// FontPath points to a TTF file. Empty uses the built-in bitmap font,
	// which only covers Latin-1.
	FontPath string
	FontSize float64
	Padding  int
}

// PNGRenderer draws the Unicode rendering of the markup onto a white
// canvas sized to fit the text.
type PNGRenderer struct {
	// truetype faces cache glyphs and are not safe for concurrent use
	mu      sync.Mutex
	face    font.Face
	padding int
	log     *logging.Logger
}

// NewPNGRenderer creates a PNG renderer, loading the configured font
func NewPNGRenderer(cfg PNGConfig, log *logging.Logger) (*PNGRenderer, error) {
	if log == nil {
		log = logging.Discard()
	}
	if cfg.Padding < 0 {
		cfg.Padding = 0
	}

	face := font.Face(basicfont.Face7x13)
	if cfg.FontPath != "" {
		size := cfg.FontSize
		if size <= 0 {
			size = 24
		}
		f, err := loadFontFace(cfg.FontPath, size)
		if err != nil {
			return nil, err
		}
		face = f
	}

	return &PNGRenderer{face: face, padding: cfg.Padding, log: log}, nil
}

// Render implements Renderer
func (r *PNGRenderer) Render(markup string) Visual {
	text, err := ToUnicode(markup)
	if err != nil {
		r.log.Debug("Preview nicht darstellbar", "markup", markup, "error", err)
		return Visual{}
	}
	if text == "" {
		return Visual{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	measure := gg.NewContext(1, 1)
	measure.SetFontFace(r.face)
	tw, th := measure.MeasureString(text)

	w := int(math.Ceil(tw)) + 2*r.padding
	h := int(math.Ceil(th)) + 2*r.padding

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(r.face)
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(text, float64(w)/2, float64(h)/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		r.log.Warn("PNG-Kodierung fehlgeschlagen", "error", err)
		return Visual{}
	}

	return Visual{Text: text, PNG: buf.Bytes(), Width: w, Height: h}
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
