package editor

import "testing"

func TestInsertAtCursor(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		anchor     int
		caret      int
		fragment   string
		wantText   string
		wantCursor int
	}{
		{"append", "y'", 2, 2, "=0", "y'=0", 4},
		{"middle", "y+y", 1, 1, "'", "y'+y", 2},
		{"replace selection", "y''+y", 0, 3, "x", "x+y", 1},
		{"reversed selection", "y''+y", 3, 0, "x", "x+y", 1},
		{"clamped selection", "abc", -5, 99, "z", "z", 1},
		{"empty fragment deletes selection", "abc", 1, 2, "", "ac", 1},
		{"unicode", "y′", 2, 2, "′", "y′′", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.text)
			b.Select(tt.anchor, tt.caret)
			b.InsertAtCursor(tt.fragment)

			if b.Text() != tt.wantText {
				t.Errorf("Text() = %q, want %q", b.Text(), tt.wantText)
			}
			if b.Cursor() != tt.wantCursor {
				t.Errorf("Cursor() = %d, want %d", b.Cursor(), tt.wantCursor)
			}
			if b.HasSelection() {
				t.Error("insertion should collapse the selection")
			}
		})
	}
}

func TestInsertTemplate(t *testing.T) {
	tests := []struct {
		fragment   string
		wantCursor int
	}{
		{`\frac{}{}`, 6},
		{`^{}`, 2},
		{`\sqrt{}`, 6},
		{`\int `, 5},
	}

	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			b := New("")
			b.InsertTemplate(tt.fragment)
			if b.Text() != tt.fragment {
				t.Errorf("Text() = %q", b.Text())
			}
			if b.Cursor() != tt.wantCursor {
				t.Errorf("Cursor() = %d, want %d", b.Cursor(), tt.wantCursor)
			}
		})
	}

	// typing continues inside the braces
	b := New("y=")
	b.InsertTemplate(`\frac{}{}`)
	b.InsertAtCursor("1")
	if b.Text() != `y=\frac{1}{}` {
		t.Errorf("Text() = %q", b.Text())
	}
}

func TestBackspace(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		anchor     int
		caret      int
		wantText   string
		wantCursor int
		wantChange bool
	}{
		{"previous rune", "y''", 3, 3, "y'", 2, true},
		{"selection", "y''+y", 1, 3, "y+y", 1, true},
		{"reversed selection", "y''+y", 3, 1, "y+y", 1, true},
		{"at start", "y", 0, 0, "y", 0, false},
		{"empty", "", 0, 0, "", 0, false},
		{"unicode rune", "x·y", 2, 2, "xy", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.text)
			b.Select(tt.anchor, tt.caret)
			changed := b.Backspace()

			if changed != tt.wantChange {
				t.Errorf("Backspace() = %v, want %v", changed, tt.wantChange)
			}
			if b.Text() != tt.wantText {
				t.Errorf("Text() = %q, want %q", b.Text(), tt.wantText)
			}
			if b.Cursor() != tt.wantCursor {
				t.Errorf("Cursor() = %d, want %d", b.Cursor(), tt.wantCursor)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	b := New("xy")
	b.Home()
	if !b.Delete() || b.Text() != "y" || b.Cursor() != 0 {
		t.Errorf("Delete() -> %q @%d", b.Text(), b.Cursor())
	}
	b.End()
	if b.Delete() {
		t.Error("Delete() at end should not change anything")
	}
}

func TestMovement(t *testing.T) {
	b := New("abc")

	b.MoveRight()
	if b.Cursor() != 3 {
		t.Errorf("MoveRight at end: Cursor() = %d", b.Cursor())
	}
	b.Home()
	b.MoveLeft()
	if b.Cursor() != 0 {
		t.Errorf("MoveLeft at start: Cursor() = %d", b.Cursor())
	}

	b.ExtendRight()
	b.ExtendRight()
	if start, end := b.Selection(); start != 0 || end != 2 {
		t.Errorf("Selection() = %d, %d", start, end)
	}
	b.MoveLeft()
	if b.HasSelection() || b.Cursor() != 0 {
		t.Errorf("MoveLeft should collapse to start, got %d", b.Cursor())
	}

	b.SelectAll()
	b.MoveRight()
	if b.HasSelection() || b.Cursor() != 3 {
		t.Errorf("MoveRight should collapse to end, got %d", b.Cursor())
	}
}

func TestClear(t *testing.T) {
	b := New("y'=y")
	b.Clear()
	if b.Len() != 0 || b.Cursor() != 0 {
		t.Errorf("Clear() left %q @%d", b.Text(), b.Cursor())
	}
}
