// Package render turns preview markup into something a surface can show.
//
// Renderers never fail towards the caller: bad markup is logged and yields
// an empty Visual, which surfaces display as a blank preview.
package render

// Visual is a rendered preview. Text is always set for a non-empty visual;
// PNG is set by raster renderers only.
type Visual struct {
	Text   string
	PNG    []byte
	Width  int
	Height int
}

// Empty reports whether there is nothing to display
func (v Visual) Empty() bool {
	return v.Text == "" && len(v.PNG) == 0
}

// Renderer converts LaTeX-style markup into a Visual
type Renderer interface {
	Render(markup string) Visual
}

// Preview typesets a canonical expression and renders it
func Preview(r Renderer, canonical string) Visual {
	return r.Render(Typeset(canonical))
}
