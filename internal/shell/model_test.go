package shell

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msto63/dglrechner/internal/history"
	"github.com/msto63/dglrechner/internal/render"
	"github.com/msto63/dglrechner/internal/solver"
	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
)

type fakeSolver struct {
	mu    sync.Mutex
	calls []string
	ics   []string
	res   *solver.Result
	err   error
}

func (f *fakeSolver) Solve(ctx context.Context, canonical, ics string) (*solver.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, canonical)
	f.ics = append(f.ics, ics)
	return f.res, f.err
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func alt(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Alt: true}
}

// send feeds msg to the model and returns the updated model and command
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// collect runs cmd and returns the messages it produces, skipping spinner
// ticks and expanding batches
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case nil:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

func solveMsg(t *testing.T, cmd tea.Cmd) solveResultMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if r, ok := msg.(solveResultMsg); ok {
			return r
		}
	}
	t.Fatal("command produced no solve result")
	return solveResultMsg{}
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, cmd := send(t, m, runes(s))
	for _, msg := range collect(cmd) {
		m, _ = send(t, m, msg)
	}
	return m
}

func TestModel_TypingUpdatesPreview(t *testing.T) {
	m := NewModel(Options{Solver: &fakeSolver{}})

	m = typeText(t, m, "y''+y=0")

	if got := m.Buffer().Text(); got != "y''+y=0" {
		t.Fatalf("buffer = %q", got)
	}
	if m.canonical != "diff(y(x),x,2)+y(x)=0" {
		t.Errorf("canonical = %q", m.canonical)
	}
	if m.preview.Empty() || !strings.Contains(m.preview.Text, "y''") {
		t.Errorf("preview = %q", m.preview.Text)
	}
}

func TestModel_StalePreviewDiscarded(t *testing.T) {
	m := NewModel(Options{Solver: &fakeSolver{}})

	m, first := send(t, m, runes("x"))
	m, second := send(t, m, runes("y"))

	stale := collect(first)
	fresh := collect(second)

	m, _ = send(t, m, fresh[0])
	want := m.preview
	m, _ = send(t, m, stale[0])

	if m.preview.Text != want.Text {
		t.Errorf("stale preview replaced fresh one: %q -> %q", want.Text, m.preview.Text)
	}
}

func TestModel_KeypadShortcuts(t *testing.T) {
	m := NewModel(Options{Solver: &fakeSolver{}})

	m, _ = send(t, m, alt("f"))
	if got := m.Buffer().Text(); got != `\frac{}{}` {
		t.Fatalf("buffer = %q", got)
	}
	if got := m.Buffer().Cursor(); got != 6 {
		t.Errorf("caret = %d, want 6 (inside first braces)", got)
	}

	m, _ = send(t, m, runes("1"))
	if got := m.Buffer().Text(); got != `\frac{1}{}` {
		t.Errorf("buffer = %q", got)
	}

	m, _ = send(t, m, key(tea.KeyBackspace))
	if got := m.Buffer().Text(); got != `\frac{}{}` {
		t.Errorf("after backspace buffer = %q", got)
	}
}

func TestModel_KeypadNavigation(t *testing.T) {
	m := NewModel(Options{Solver: &fakeSolver{}})

	m, _ = send(t, m, key(tea.KeyTab))
	m, _ = send(t, m, key(tea.KeyTab))
	if m.focus != FocusKeypad {
		t.Fatalf("focus = %v, want keypad", m.focus)
	}

	// first key of the default layout is "7", one to the right is "8"
	m, _ = send(t, m, key(tea.KeyRight))
	m, _ = send(t, m, key(tea.KeyEnter))
	if got := m.Buffer().Text(); got != "8" {
		t.Errorf("buffer = %q, want 8", got)
	}
}

func TestModel_SubmitSuccess(t *testing.T) {
	fs := &fakeSolver{res: &solver.Result{
		Explanation: "=== LÖSUNG ===\ny(x) = C1*exp(x)",
		LaTeX:       `y{\left(x \right)} = C_{1} e^{x}`,
	}}
	mem := history.NewMemoryStore()
	m := NewModel(Options{Solver: fs, Recorder: history.NewRecorder(mem, nil)})

	m = typeText(t, m, "y'=y")
	m, _ = send(t, m, key(tea.KeyTab))
	m, _ = send(t, m, runes("0,1"))

	m, cmd := send(t, m, key(tea.KeyEnter))
	if !m.Solving() {
		t.Fatal("Solving() = false after submit")
	}

	m, _ = send(t, m, solveMsg(t, cmd))

	if m.Solving() {
		t.Error("Solving() = true after result")
	}
	if m.resultErr {
		t.Error("result marked as error")
	}
	if !strings.Contains(m.resultText, "y(x) = C1*exp(x)") {
		t.Errorf("resultText = %q", m.resultText)
	}
	if len(fs.calls) != 1 || fs.calls[0] != "diff(y(x),x)=y(x)" || fs.ics[0] != "0,1" {
		t.Errorf("solver calls = %v ics = %v", fs.calls, fs.ics)
	}

	entries, _ := mem.List(context.Background(), 10, 0)
	if len(entries) != 1 || entries[0].Source != "tui" || entries[0].Input != "y'=y" {
		t.Errorf("history = %+v", entries)
	}
}

func TestModel_SubmitDisabledWhileSolving(t *testing.T) {
	fs := &fakeSolver{res: &solver.Result{Explanation: "ok"}}
	m := NewModel(Options{Solver: fs, Initial: "y'=y"})

	m, first := send(t, m, key(tea.KeyEnter))
	m, second := send(t, m, key(tea.KeyCtrlS))

	if second != nil {
		t.Error("second submit returned a command while solving")
	}

	m, _ = send(t, m, solveMsg(t, first))
	if len(fs.calls) != 1 {
		t.Errorf("solver called %d times, want 1", len(fs.calls))
	}

	// submit is available again
	_, third := send(t, m, key(tea.KeyCtrlS))
	if third == nil {
		t.Error("submit not re-enabled after result")
	}
}

func TestModel_SubmitFailureKeepsBuffer(t *testing.T) {
	fs := &fakeSolver{err: dglerrors.New("no closed form").WithCode(dglerrors.CodeUnsolvable)}
	m := NewModel(Options{Solver: fs, Initial: "y'=sin(y)*x"})
	before := m.Buffer().Text()

	m, cmd := send(t, m, key(tea.KeyEnter))
	m, _ = send(t, m, solveMsg(t, cmd))

	if got := m.Buffer().Text(); got != before {
		t.Errorf("buffer changed: %q -> %q", before, got)
	}
	if !m.resultErr {
		t.Error("result not marked as error")
	}
	if m.Status() != "Keine geschlossene Lösung gefunden" {
		t.Errorf("status = %q", m.Status())
	}
	if !strings.Contains(m.resultText, "no closed form") {
		t.Errorf("resultText = %q", m.resultText)
	}
	if m.Solving() {
		t.Error("submit not re-enabled after failure")
	}
}

func TestModel_EmptyInputNotSubmitted(t *testing.T) {
	fs := &fakeSolver{}
	m := NewModel(Options{Solver: fs})

	m, cmd := send(t, m, key(tea.KeyEnter))
	if cmd != nil || m.Solving() {
		t.Error("empty input started a solve")
	}
	if len(fs.calls) != 0 {
		t.Error("solver called for empty input")
	}
}

func TestModel_NoSolver(t *testing.T) {
	startErr := dglerrors.New("sympy not available").WithCode(dglerrors.CodeServiceUnavailable)
	m := NewModel(Options{SolverErr: startErr, Initial: "y'=y"})

	m, cmd := send(t, m, key(tea.KeyEnter))
	if cmd != nil {
		t.Error("submit without solver returned a command")
	}
	if m.Status() != "Solver nicht verfügbar" {
		t.Errorf("status = %q", m.Status())
	}
}

func TestModel_RendererFailureBlankPreview(t *testing.T) {
	m := NewModel(Options{Solver: &fakeSolver{}, Renderer: render.NewTextRenderer(nil)})

	m = typeText(t, m, `\frac{`)
	if !m.preview.Empty() {
		t.Errorf("preview = %q, want blank for unbalanced braces", m.preview.Text)
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		code dglerrors.Code
		want string
	}{
		{dglerrors.CodeInvalidInput, "Eingabe konnte nicht gelesen werden"},
		{dglerrors.CodeTimeout, "Zeitüberschreitung beim Lösen"},
		{dglerrors.CodeUnsolvable, "Keine geschlossene Lösung gefunden"},
		{dglerrors.CodeServiceUnavailable, "Solver nicht verfügbar"},
		{dglerrors.CodeExternalServiceError, "Solver-Fehler"},
		{dglerrors.CodeCanceled, "Lösen abgebrochen"},
		{dglerrors.CodeInternal, "Fehler beim Lösen"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := dglerrors.New("x").WithCode(tt.code)
			if got := StatusText(err); got != tt.want {
				t.Errorf("StatusText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModel_View(t *testing.T) {
	m := NewModel(Options{Solver: &fakeSolver{}, Initial: "y'=y"})
	if got := m.View(); got != "Lade..." {
		t.Errorf("View() before size = %q", got)
	}

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	for _, want := range []string{"DGL-Rechner", "Gleichung", "Vorschau", "Lösen"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
