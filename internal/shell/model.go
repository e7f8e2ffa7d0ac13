// Package shell is the interactive terminal surface: an equation editor with
// live preview, a symbolic keypad and an asynchronous solve.
package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/dglrechner/internal/editor"
	"github.com/msto63/dglrechner/internal/history"
	"github.com/msto63/dglrechner/internal/keypad"
	"github.com/msto63/dglrechner/internal/normalize"
	"github.com/msto63/dglrechner/internal/render"
	"github.com/msto63/dglrechner/internal/solver"
	dglerrors "github.com/msto63/dglrechner/pkg/core/errors"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

// Focus is the widget receiving keystrokes
type Focus int

const (
	FocusEquation Focus = iota
	FocusConditions
	FocusKeypad
)

const focusCount = 3

// Options wires the shell to its collaborators
type Options struct {
	// Solver is the started backend. When nil, SolverErr explains why and
	// submitting only reports it.
	Solver    solver.Solver
	SolverErr error

	Renderer render.Renderer
	Keypad   *keypad.Layout
	Recorder *history.Recorder
	Log      *logging.Logger

	SolveTimeout time.Duration
	Initial      string
}

// Model is the main TUI model
type Model struct {
	// State
	focus  Focus
	width  int
	height int
	ready  bool

	// Components
	buffer     *editor.Buffer
	conditions textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model

	// Collaborators
	solver       solver.Solver
	solverErr    error
	renderer     render.Renderer
	layout       *keypad.Layout
	recorder     *history.Recorder
	log          *logging.Logger
	solveTimeout time.Duration

	// Preview state
	canonical  string
	preview    render.Visual
	previewSeq uint64

	// Solve state
	solving     bool
	solveStart  time.Time
	result      *solver.Result
	resultErr   bool
	resultText  string
	status      string
	statusStyle lipgloss.Style

	keyIndex int
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "x0,y0 (optional, z. B. 0,1)"
	ti.CharLimit = 64
	ti.Width = 30
	ti.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	if opts.Renderer == nil {
		opts.Renderer = render.NewTextRenderer(opts.Log)
	}
	if opts.Keypad == nil {
		opts.Keypad = keypad.Default()
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.SolveTimeout <= 0 {
		opts.SolveTimeout = 90 * time.Second
	}

	m := Model{
		focus:        FocusEquation,
		buffer:       editor.New(opts.Initial),
		conditions:   ti,
		viewport:     viewport.New(80, 8),
		spinner:      sp,
		solver:       opts.Solver,
		solverErr:    opts.SolverErr,
		renderer:     opts.Renderer,
		layout:       opts.Keypad,
		recorder:     opts.Recorder,
		log:          opts.Log,
		solveTimeout: opts.SolveTimeout,
		status:       "Bereit",
		statusStyle:  StatusOKStyle,
	}
	if opts.Solver == nil {
		m.setStatus(StatusText(opts.SolverErr), StatusErrorStyle)
	}
	m.canonical = normalize.Normalize(m.buffer.Text())
	m.preview = render.Preview(m.renderer, m.canonical)
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := max(3, msg.Height-24)
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, h)
			m.viewport.SetContent(m.resultText)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = h
		}
		m.conditions.Width = max(10, msg.Width-30)

	case previewMsg:
		if msg.seq != m.previewSeq {
			// a newer edit already asked for its own preview
			return m, nil
		}
		m.preview = msg.visual

	case solveResultMsg:
		m.finishSolve(msg)
		return m, nil

	case spinner.TickMsg:
		if m.solving {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	m.conditions, cmd = m.conditions.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab":
		return m, m.setFocus((m.focus + 1) % focusCount)

	case "shift+tab":
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)

	case "ctrl+l":
		m.clearResult()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if k, ok := m.layout.Lookup(key); ok && (m.focus != FocusConditions || k.Action == keypad.ActionSolve) {
		return m, m.press(k)
	}

	switch m.focus {
	case FocusConditions:
		if key == "enter" {
			return m, m.submit()
		}
		var cmd tea.Cmd
		m.conditions, cmd = m.conditions.Update(msg)
		return m, cmd

	case FocusKeypad:
		return m, m.navigateKeypad(key)
	}

	return m, m.editEquation(msg)
}

// editEquation applies a keystroke to the equation buffer
func (m *Model) editEquation(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return m.submit()
	case "left":
		m.buffer.MoveLeft()
	case "right":
		m.buffer.MoveRight()
	case "shift+left":
		m.buffer.ExtendLeft()
	case "shift+right":
		m.buffer.ExtendRight()
	case "home", "ctrl+a":
		m.buffer.Home()
	case "end", "ctrl+e":
		m.buffer.End()
	case "ctrl+x":
		m.buffer.SelectAll()
	case "backspace":
		if m.buffer.Backspace() {
			return m.textChanged()
		}
	case "delete":
		if m.buffer.Delete() {
			return m.textChanged()
		}
	case "ctrl+u":
		m.buffer.Clear()
		return m.textChanged()
	case " ":
		m.buffer.InsertAtCursor(" ")
		return m.textChanged()
	default:
		if msg.Type == tea.KeyRunes && !msg.Alt {
			m.buffer.InsertAtCursor(string(msg.Runes))
			return m.textChanged()
		}
	}
	return nil
}

func (m *Model) navigateKeypad(key string) tea.Cmd {
	n := len(m.layout.Keys)
	cols := m.layout.Columns
	switch key {
	case "left", "h":
		m.keyIndex = (m.keyIndex + n - 1) % n
	case "right", "l":
		m.keyIndex = (m.keyIndex + 1) % n
	case "up", "k":
		if m.keyIndex-cols >= 0 {
			m.keyIndex -= cols
		}
	case "down", "j":
		if m.keyIndex+cols < n {
			m.keyIndex += cols
		}
	case "enter", " ":
		return m.press(m.layout.Keys[m.keyIndex])
	}
	return nil
}

// press performs a keypad key as if it had been tapped
func (m *Model) press(k keypad.Key) tea.Cmd {
	switch k.Action {
	case keypad.ActionSolve:
		return m.submit()
	case keypad.ActionBackspace:
		if m.buffer.Backspace() {
			return m.textChanged()
		}
		return nil
	case keypad.ActionTemplate:
		m.buffer.InsertTemplate(k.Insert)
	default:
		m.buffer.InsertAtCursor(k.Insert)
	}
	return m.textChanged()
}

func (m *Model) setFocus(f Focus) tea.Cmd {
	m.focus = f
	if f == FocusConditions {
		return m.conditions.Focus()
	}
	m.conditions.Blur()
	return nil
}

// textChanged normalizes the buffer and requests a preview for it
func (m *Model) textChanged() tea.Cmd {
	m.previewSeq++
	seq := m.previewSeq
	m.canonical = normalize.Normalize(m.buffer.Text())

	canonical := m.canonical
	r := m.renderer
	return func() tea.Msg {
		return previewMsg{seq: seq, visual: render.Preview(r, canonical)}
	}
}

// submit starts a solve unless one is already running
func (m *Model) submit() tea.Cmd {
	if m.solving {
		return nil
	}
	if m.solver == nil {
		m.setStatus(StatusText(m.solverErr), StatusErrorStyle)
		return nil
	}

	input := m.buffer.Text()
	canonical := normalize.Normalize(input)
	if canonical == "" {
		m.setStatus("Bitte zuerst eine Gleichung eingeben", StatusErrorStyle)
		return nil
	}

	m.solving = true
	m.solveStart = time.Now()
	m.setStatus("Löse Gleichung...", StatusBusyStyle)

	return tea.Batch(m.spinner.Tick, m.solveCmd(input, canonical, m.conditions.Value()))
}

func (m *Model) solveCmd(input, canonical, ics string) tea.Cmd {
	s := m.solver
	rec := m.recorder
	timeout := m.solveTimeout
	log := m.log

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		res, err := s.Solve(ctx, canonical, ics)
		elapsed := time.Since(start)
		if err != nil {
			log.Warn("Lösen fehlgeschlagen", "canonical", canonical, "code", string(dglerrors.CodeOf(err)))
		}

		entry := &history.Entry{
			Source:            "tui",
			Input:             input,
			Canonical:         canonical,
			InitialConditions: ics,
			Duration:          elapsed,
		}
		if res != nil {
			entry.Explanation = res.Explanation
			entry.LaTeX = res.LaTeX
		}
		rec.Record(ctx, entry, err)

		return solveResultMsg{result: res, err: err, elapsed: elapsed}
	}
}

func (m *Model) finishSolve(msg solveResultMsg) {
	m.solving = false

	if msg.err == nil && msg.result == nil {
		msg.err = dglerrors.New("solver returned no result").WithCode(dglerrors.CodeInternal)
	}
	if msg.err != nil {
		m.result = nil
		m.resultErr = true
		m.setStatus(StatusText(msg.err), StatusErrorStyle)
		m.setResult(RenderError(errorMessage(msg.err)))
		return
	}

	m.result = msg.result
	m.resultErr = false
	m.setStatus(fmt.Sprintf("Gelöst in %s", msg.elapsed.Round(10*time.Millisecond)), StatusOKStyle)

	text := msg.result.Explanation
	if v := m.renderer.Render(msg.result.LaTeX); !v.Empty() {
		text += "\n\n" + PreviewStyle.Render(v.Text)
	}
	m.setResult(text)
}

func (m *Model) clearResult() {
	m.result = nil
	m.resultErr = false
	m.setResult("")
	if !m.solving {
		m.setStatus("Bereit", StatusOKStyle)
	}
}

func (m *Model) setResult(text string) {
	m.resultText = text
	m.viewport.SetContent(text)
	m.viewport.GotoTop()
}

func (m *Model) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

// Buffer exposes the equation buffer
func (m Model) Buffer() *editor.Buffer { return m.buffer }

// Solving reports whether a solve is in flight
func (m Model) Solving() bool { return m.solving }

// Status returns the current status line text
func (m Model) Status() string { return m.status }

// Message types for async operations
type previewMsg struct {
	seq    uint64
	visual render.Visual
}

type solveResultMsg struct {
	result  *solver.Result
	err     error
	elapsed time.Duration
}

// StatusText maps a solve error to the German status line
func StatusText(err error) string {
	if err == nil {
		return "Solver nicht verfügbar"
	}
	switch dglerrors.CodeOf(err) {
	case dglerrors.CodeInvalidInput:
		return "Eingabe konnte nicht gelesen werden"
	case dglerrors.CodeTimeout:
		return "Zeitüberschreitung beim Lösen"
	case dglerrors.CodeUnsolvable:
		return "Keine geschlossene Lösung gefunden"
	case dglerrors.CodeServiceUnavailable:
		return "Solver nicht verfügbar"
	case dglerrors.CodeExternalServiceError:
		return "Solver-Fehler"
	case dglerrors.CodeCanceled:
		return "Lösen abgebrochen"
	default:
		return "Fehler beim Lösen"
	}
}

func errorMessage(err error) string {
	var e *dglerrors.Error
	if dglerrors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Lade..."
	}

	var s strings.Builder

	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.renderEquation())
	s.WriteString("\n")
	s.WriteString(m.renderConditions())
	s.WriteString("\n")
	s.WriteString(m.renderKeypad())
	s.WriteString("\n")
	s.WriteString(m.renderResult())
	s.WriteString("\n")
	s.WriteString(m.renderFooter())

	return s.String()
}

func (m *Model) renderHeader() string {
	title := TitleStyle.Render("DGL-Rechner")
	sub := SubtitleStyle.Render("Gewöhnliche Differentialgleichungen eingeben, prüfen und lösen")
	return lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", sub)
}

func (m *Model) box(f Focus) lipgloss.Style {
	if m.focus == f {
		return FocusedBoxStyle.Width(max(20, m.width-4))
	}
	return BoxStyle.Width(max(20, m.width-4))
}

func (m *Model) renderEquation() string {
	var s strings.Builder
	s.WriteString(LabelStyle.Render("Gleichung"))
	s.WriteString("\n")
	s.WriteString(m.renderBuffer())
	s.WriteString("\n")

	s.WriteString(LabelStyle.Render("Vorschau "))
	if m.preview.Empty() {
		s.WriteString(SubtitleStyle.Render("(leer)"))
	} else {
		s.WriteString(PreviewStyle.Render(m.preview.Text))
	}

	return m.box(FocusEquation).Render(s.String())
}

// renderBuffer draws the buffer text with caret and selection
func (m *Model) renderBuffer() string {
	runes := []rune(m.buffer.Text())
	start, end := m.buffer.Selection()
	caret := m.buffer.Cursor()
	showCaret := m.focus == FocusEquation

	var s strings.Builder
	for i, r := range runes {
		ch := string(r)
		switch {
		case showCaret && i == caret && start == end:
			s.WriteString(CaretStyle.Render(ch))
		case i >= start && i < end:
			s.WriteString(SelectionStyle.Render(ch))
		default:
			s.WriteString(ch)
		}
	}
	if showCaret && caret == len(runes) {
		s.WriteString(CaretStyle.Render(" "))
	}
	return s.String()
}

func (m *Model) renderConditions() string {
	return m.box(FocusConditions).Render(
		LabelStyle.Render("Anfangsbedingung y(x0) = y0: ") + m.conditions.View(),
	)
}

func (m *Model) renderKeypad() string {
	var rows []string
	for r, row := range m.layout.Rows() {
		cells := make([]string, len(row))
		for c, k := range row {
			style := KeyStyle
			switch {
			case m.focus == FocusKeypad && r*m.layout.Columns+c == m.keyIndex:
				style = SelectedKeyStyle
			case k.Action == keypad.ActionSolve || k.Action == keypad.ActionBackspace:
				style = ActionKeyStyle
			}
			cells[c] = style.Render(k.Label)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return m.box(FocusKeypad).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderResult() string {
	var s strings.Builder
	s.WriteString(LabelStyle.Render("Lösung"))
	s.WriteString("\n")
	switch {
	case m.solving:
		s.WriteString(m.spinner.View())
		s.WriteString(" Berechne Lösung...")
	case m.resultText == "":
		s.WriteString(SubtitleStyle.Render("Enter oder Ctrl+S zum Lösen"))
	default:
		s.WriteString(m.viewport.View())
	}

	style := BoxStyle.Width(max(20, m.width-4))
	if m.resultErr {
		style = ErrorBoxStyle.Width(max(20, m.width-4))
	}
	return style.Render(s.String())
}

func (m *Model) renderFooter() string {
	help := "Tab: Fokus • Enter/Ctrl+S: Lösen • Ctrl+L: Leeren • Ctrl+C: Beenden"
	status := m.statusStyle.Render(m.status)

	return StatusBarStyle.Width(m.width).Render(
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			status,
			strings.Repeat(" ", max(1, m.width-lipgloss.Width(status)-lipgloss.Width(help)-4)),
			help,
		),
	)
}
