package shell

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorAccent    = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorFg        = lipgloss.Color("#F9FAFB")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Bold(true)

	// Box styles
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	FocusedBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	ErrorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1)

	// Editor
	CaretStyle = lipgloss.NewStyle().
			Reverse(true)

	SelectionStyle = lipgloss.NewStyle().
			Background(colorPrimary).
			Foreground(colorFg)

	PreviewStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(colorError)

	// Status styles
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(colorFg).
			Padding(0, 1)

	StatusOKStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	StatusBusyStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(colorError)

	// Keypad
	KeyStyle = lipgloss.NewStyle().
			Width(7).
			Align(lipgloss.Center).
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorMuted)

	SelectedKeyStyle = KeyStyle.
				BorderForeground(colorPrimary).
				Foreground(colorPrimary).
				Bold(true)

	ActionKeyStyle = KeyStyle.
			Foreground(colorAccent)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// RenderError renders a German error line
func RenderError(msg string) string {
	return ErrorMessageStyle.Render("Fehler: " + msg)
}

func RenderHelp(help string) string {
	return HelpStyle.Render(help)
}
