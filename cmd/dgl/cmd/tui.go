package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/msto63/dglrechner/internal/history"
	"github.com/msto63/dglrechner/internal/render"
	"github.com/msto63/dglrechner/internal/shell"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [gleichung]",
	Short: "Startet den interaktiven Rechner",
	Long: `Startet die Terminal User Interface (TUI) des DGL-Rechners.

Die TUI bietet:
  - Gleichungseditor mit Live-Vorschau
  - Tastenfeld für Sonderzeichen und LaTeX-Vorlagen
  - Eingabe einer Anfangsbedingung y(x0) = y0
  - Lösung über SymPy ohne Blockieren der Oberfläche

Navigation:
  Tab       - Fokus wechseln (Gleichung, Anfangsbedingung, Tastenfeld)
  Enter     - Lösen
  Alt+F     - Bruch \frac{}{}, weitere Kürzel siehe 'dgl keypad'
  Ctrl+L    - Lösung leeren
  Ctrl+C    - Beenden`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Config nicht geladen", err)
		return err
	}
	if err := setupLogging(cfg, true); err != nil {
		printError("Logging nicht verfügbar", err)
		return err
	}
	defer logging.Close()
	log := logging.New("tui")

	layout, err := loadKeypad(cfg)
	if err != nil {
		printError("Tastenfeld nicht geladen", err)
		return err
	}

	opts := shell.Options{
		Keypad:       layout,
		Log:          log,
		SolveTimeout: cfg.Solver.Timeout.Duration + cfg.Solver.AttemptTimeout.Duration,
	}
	if len(args) == 1 {
		opts.Initial = args[0]
	}

	renderer := render.NewCachedRenderer(render.NewTextRenderer(log), cacheConfig(cfg))
	defer renderer.Close()
	opts.Renderer = renderer

	store, err := openHistory(cfg)
	if err != nil {
		log.Warn("Verlauf nicht verfügbar", "error", err.Error())
	} else if store != nil {
		defer store.Close()
		opts.Recorder = history.NewRecorder(store, log)
	}

	fmt.Fprintln(os.Stderr, "Starte Solver-Backend...")
	_, s, err := startSolver(context.Background(), cfg)
	if err != nil {
		opts.SolverErr = err
	}
	opts.Solver = s

	p := tea.NewProgram(
		shell.NewModel(opts),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI Fehler: %v\n", err)
		return err
	}

	return nil
}
