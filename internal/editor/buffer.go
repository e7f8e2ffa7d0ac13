// Package editor holds the equation input buffer. Positions are rune
// offsets; a selection is an anchor and a caret in either order.
package editor

import "strings"

// Buffer is a single-line text buffer with a selection
type Buffer struct {
	text   []rune
	anchor int
	caret  int
}

// New creates a buffer holding text with the caret at the end
func New(text string) *Buffer {
	b := &Buffer{}
	b.SetText(text)
	return b
}

// Text returns the buffer content
func (b *Buffer) Text() string { return string(b.text) }

// Len returns the length in runes
func (b *Buffer) Len() int { return len(b.text) }

// Cursor returns the caret position
func (b *Buffer) Cursor() int { return b.caret }

// Selection returns the ordered selection range [start, end)
func (b *Buffer) Selection() (start, end int) {
	return min(b.anchor, b.caret), max(b.anchor, b.caret)
}

// HasSelection reports whether a non-empty range is selected
func (b *Buffer) HasSelection() bool { return b.anchor != b.caret }

// SetText replaces the content and moves the caret to the end
func (b *Buffer) SetText(text string) {
	b.text = []rune(text)
	b.anchor = len(b.text)
	b.caret = len(b.text)
}

// Clear empties the buffer
func (b *Buffer) Clear() { b.SetText("") }

// Select sets the selection. Both ends are clamped to [0, Len()].
func (b *Buffer) Select(anchor, caret int) {
	b.anchor = b.clamp(anchor)
	b.caret = b.clamp(caret)
}

// SelectAll selects the whole content
func (b *Buffer) SelectAll() { b.Select(0, len(b.text)) }

// InsertAtCursor replaces the selection with fragment and leaves the caret
// right after the inserted text.
func (b *Buffer) InsertAtCursor(fragment string) {
	start := b.replaceSelection(fragment)
	b.setCaret(start + len([]rune(fragment)))
}

// InsertTemplate works like InsertAtCursor but puts the caret inside the
// first empty brace pair, so `\frac{}{}` leaves it at `\frac{|}{}`.
func (b *Buffer) InsertTemplate(fragment string) {
	i := strings.Index(fragment, "{}")
	if i < 0 {
		b.InsertAtCursor(fragment)
		return
	}
	start := b.replaceSelection(fragment)
	b.setCaret(start + len([]rune(fragment[:i])) + 1)
}

// Backspace deletes the selection, or the rune before the caret when
// nothing is selected. It reports whether the text changed.
func (b *Buffer) Backspace() bool {
	start, end := b.Selection()
	if start != end {
		b.delete(start, end)
		b.setCaret(start)
		return true
	}
	if start > 0 {
		b.delete(start-1, start)
		b.setCaret(start - 1)
		return true
	}
	return false
}

// Delete removes the selection, or the rune after the caret
func (b *Buffer) Delete() bool {
	start, end := b.Selection()
	if start != end {
		b.delete(start, end)
		b.setCaret(start)
		return true
	}
	if start < len(b.text) {
		b.delete(start, start+1)
		b.setCaret(start)
		return true
	}
	return false
}

// MoveLeft collapses a selection to its start, otherwise steps left
func (b *Buffer) MoveLeft() {
	start, end := b.Selection()
	if start != end {
		b.setCaret(start)
		return
	}
	b.setCaret(b.caret - 1)
}

// MoveRight collapses a selection to its end, otherwise steps right
func (b *Buffer) MoveRight() {
	start, end := b.Selection()
	if start != end {
		b.setCaret(end)
		return
	}
	b.setCaret(b.caret + 1)
}

// ExtendLeft moves the caret left keeping the anchor
func (b *Buffer) ExtendLeft() { b.caret = b.clamp(b.caret - 1) }

// ExtendRight moves the caret right keeping the anchor
func (b *Buffer) ExtendRight() { b.caret = b.clamp(b.caret + 1) }

// Home moves the caret to the start
func (b *Buffer) Home() { b.setCaret(0) }

// End moves the caret to the end
func (b *Buffer) End() { b.setCaret(len(b.text)) }

// replaceSelection swaps the ordered selection for fragment and returns the
// insertion offset
func (b *Buffer) replaceSelection(fragment string) int {
	start, end := b.Selection()
	ins := []rune(fragment)

	out := make([]rune, 0, len(b.text)-(end-start)+len(ins))
	out = append(out, b.text[:start]...)
	out = append(out, ins...)
	out = append(out, b.text[end:]...)
	b.text = out
	return start
}

func (b *Buffer) delete(start, end int) {
	b.text = append(b.text[:start], b.text[end:]...)
}

func (b *Buffer) setCaret(pos int) {
	pos = b.clamp(pos)
	b.anchor = pos
	b.caret = pos
}

func (b *Buffer) clamp(pos int) int {
	return max(0, min(pos, len(b.text)))
}
