// Package keypad describes the symbolic keypad: which keys exist, what they
// insert into the equation buffer and which terminal shortcut triggers them.
// Layouts are YAML documents; a default layout is compiled in.
package keypad

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultLayout []byte

// Action is what a key does when pressed
type Action string

const (
	ActionInsert    Action = "insert"
	ActionTemplate  Action = "template"
	ActionBackspace Action = "backspace"
	ActionSolve     Action = "solve"
)

// Key is a single keypad key
type Key struct {
	ID       string `yaml:"id" json:"id"`
	Label    string `yaml:"label" json:"label"`
	Insert   string `yaml:"insert,omitempty" json:"insert,omitempty"`
	Action   Action `yaml:"action,omitempty" json:"action"`
	Shortcut string `yaml:"shortcut,omitempty" json:"shortcut,omitempty"`
}

// Layout is an ordered set of keys laid out in a grid
type Layout struct {
	Name    string `yaml:"name" json:"name"`
	Columns int    `yaml:"columns" json:"columns"`
	Keys    []Key  `yaml:"keys" json:"keys"`

	byID       map[string]int
	byShortcut map[string]int
}

// Default returns the built-in layout
func Default() *Layout {
	l, err := Parse(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("keypad: invalid built-in layout: %v", err))
	}
	return l
}

// Load reads a layout from a YAML file. An empty path yields the default.
func Load(path string) (*Layout, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypad layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse decodes and validates a YAML layout
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse keypad layout: %w", err)
	}
	if err := l.init(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Layout) init() error {
	if len(l.Keys) == 0 {
		return fmt.Errorf("keypad layout %q has no keys", l.Name)
	}
	if l.Columns <= 0 {
		l.Columns = 8
	}

	l.byID = make(map[string]int, len(l.Keys))
	l.byShortcut = make(map[string]int)

	for i := range l.Keys {
		k := &l.Keys[i]
		if k.Action == "" {
			k.Action = ActionInsert
		}
		if k.ID == "" {
			return fmt.Errorf("key %d has no id", i)
		}
		if k.Label == "" {
			k.Label = k.Insert
		}

		switch k.Action {
		case ActionInsert, ActionTemplate:
			if k.Insert == "" {
				return fmt.Errorf("key %q: action %s needs insert text", k.ID, k.Action)
			}
		case ActionBackspace, ActionSolve:
		default:
			return fmt.Errorf("key %q: unknown action %q", k.ID, k.Action)
		}

		if _, dup := l.byID[k.ID]; dup {
			return fmt.Errorf("duplicate key id %q", k.ID)
		}
		l.byID[k.ID] = i

		if k.Shortcut != "" {
			if other, dup := l.byShortcut[k.Shortcut]; dup {
				return fmt.Errorf("shortcut %q used by %q and %q", k.Shortcut, l.Keys[other].ID, k.ID)
			}
			l.byShortcut[k.Shortcut] = i
		}
	}
	return nil
}

// Lookup finds the key bound to a terminal shortcut such as "alt+f"
func (l *Layout) Lookup(shortcut string) (Key, bool) {
	i, ok := l.byShortcut[shortcut]
	if !ok {
		return Key{}, false
	}
	return l.Keys[i], true
}

// Key returns the key with the given id
func (l *Layout) Key(id string) (Key, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Key{}, false
	}
	return l.Keys[i], true
}

// Rows splits the keys into grid rows of Columns keys
func (l *Layout) Rows() [][]Key {
	var rows [][]Key
	for start := 0; start < len(l.Keys); start += l.Columns {
		end := min(start+l.Columns, len(l.Keys))
		rows = append(rows, l.Keys[start:end])
	}
	return rows
}
