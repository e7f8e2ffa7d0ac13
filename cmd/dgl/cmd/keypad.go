package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/msto63/dglrechner/internal/keypad"
	"github.com/msto63/dglrechner/internal/shell"
)

var keypadFormat string

var keypadCmd = &cobra.Command{
	Use:   "keypad",
	Short: "Zeigt das Tastenfeld mit Tastenkürzeln",
	Long: `Zeigt das konfigurierte Tastenfeld (keypad.layout) als Raster
zusammen mit den Tastenkürzeln der Oberfläche.

Mit --format yaml lässt sich das Standardlayout als Vorlage für
ein eigenes Layout exportieren.`,
	RunE: runKeypad,
}

func init() {
	rootCmd.AddCommand(keypadCmd)
	keypadCmd.Flags().StringVarP(&keypadFormat, "format", "f", "text", "Ausgabeformat (text, json, yaml)")
}

func runKeypad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Config nicht geladen", err)
		return err
	}
	layout, err := loadKeypad(cfg)
	if err != nil {
		printError("Tastenfeld nicht geladen", err)
		return err
	}

	out := cmd.OutOrStdout()
	if keypadFormat != "text" {
		return printStructured(out, keypadFormat, layout)
	}

	fmt.Fprintln(out, shell.TitleStyle.Render(layout.Name))
	fmt.Fprintln(out, renderKeypadGrid(layout))
	fmt.Fprintln(out)

	var lines []string
	for _, k := range layout.Keys {
		if k.Shortcut == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-12s %s", shell.KeyStyle.Render(k.Shortcut), keyEffect(k)))
	}
	if len(lines) > 0 {
		fmt.Fprintln(out, shell.LabelStyle.Render("Tastenkürzel"))
		fmt.Fprintln(out, strings.Join(lines, "\n"))
	}
	return nil
}

func renderKeypadGrid(layout *keypad.Layout) string {
	var rows []string
	for _, row := range layout.Rows() {
		cells := make([]string, 0, len(row))
		for _, k := range row {
			style := shell.KeyStyle
			if k.Action == keypad.ActionSolve || k.Action == keypad.ActionBackspace {
				style = shell.ActionKeyStyle
			}
			cells = append(cells, style.Render(k.Label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func keyEffect(k keypad.Key) string {
	switch k.Action {
	case keypad.ActionSolve:
		return "Lösen"
	case keypad.ActionBackspace:
		return "Zeichen löschen"
	default:
		return fmt.Sprintf("%s  →  %s", k.Label, k.Insert)
	}
}
