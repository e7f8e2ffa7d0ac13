package keypad

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	l := Default()

	if l.Name != "standard" {
		t.Errorf("Name = %q", l.Name)
	}

	// every key of the original keypad is present
	inserts := map[string]bool{}
	for _, k := range l.Keys {
		inserts[k.Insert] = true
	}
	want := []string{
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", ".", "x", "y",
		"+", "-", "*", "/", "=", "(", ")", "y'", "y''", "^", "dx", "dy",
		`\frac{}{}`, "^{}", "_{}", `\sqrt{}`, `\int `, `\sum `, `\alpha `, `\beta `, `\pi `,
	}
	for _, w := range want {
		if !inserts[w] {
			t.Errorf("default layout misses %q", w)
		}
	}

	if _, ok := l.Key("del"); !ok {
		t.Error("default layout misses DEL")
	}
	if k, ok := l.Key("solve"); !ok || k.Action != ActionSolve {
		t.Error("default layout misses the solve key")
	}
}

func TestLookup(t *testing.T) {
	l := Default()

	tests := []struct {
		shortcut string
		wantID   string
		action   Action
	}{
		{"alt+f", "frac", ActionTemplate},
		{"alt+x", "dx", ActionInsert},
		{"backspace", "del", ActionBackspace},
		{"ctrl+s", "solve", ActionSolve},
	}

	for _, tt := range tests {
		t.Run(tt.shortcut, func(t *testing.T) {
			k, ok := l.Lookup(tt.shortcut)
			if !ok {
				t.Fatalf("Lookup(%q) found nothing", tt.shortcut)
			}
			if k.ID != tt.wantID || k.Action != tt.action {
				t.Errorf("Lookup(%q) = %+v", tt.shortcut, k)
			}
		})
	}

	if _, ok := l.Lookup("ctrl+q"); ok {
		t.Error("Lookup(ctrl+q) should find nothing")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no keys", "name: empty\n", "no keys"},
		{"missing id", "keys:\n  - {label: a, insert: a}\n", "no id"},
		{"duplicate id", "keys:\n  - {id: a, insert: a}\n  - {id: a, insert: b}\n", "duplicate key id"},
		{"duplicate shortcut", "keys:\n  - {id: a, insert: a, shortcut: alt+a}\n  - {id: b, insert: b, shortcut: alt+a}\n", "shortcut"},
		{"insert without text", "keys:\n  - {id: a}\n", "needs insert text"},
		{"unknown action", "keys:\n  - {id: a, action: explode}\n", "unknown action"},
		{"bad yaml", "keys: [", "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	l, err := Parse([]byte("keys:\n  - {id: x, insert: x}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	k, _ := l.Key("x")
	if k.Action != ActionInsert || k.Label != "x" {
		t.Errorf("defaults not applied: %+v", k)
	}
	if l.Columns != 8 {
		t.Errorf("Columns = %d, want 8", l.Columns)
	}
}

func TestLoad(t *testing.T) {
	l, err := Load("")
	if err != nil || l.Name != "standard" {
		t.Fatalf("Load(\"\") = %v, %v", l, err)
	}

	path := filepath.Join(t.TempDir(), "mini.yaml")
	os.WriteFile(path, []byte("name: mini\ncolumns: 2\nkeys:\n  - {id: a, insert: a}\n  - {id: b, insert: b}\n  - {id: c, insert: c}\n"), 0644)

	l, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	rows := l.Rows()
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Errorf("Rows() = %v", rows)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
