package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/dglrechner/internal/history"
	"github.com/msto63/dglrechner/internal/normalize"
	"github.com/msto63/dglrechner/internal/shell"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

var (
	solveICs       string
	solveFormat    string
	solveNoHistory bool
)

var solveCmd = &cobra.Command{
	Use:   "solve <gleichung>",
	Short: "Löst eine gewöhnliche Differentialgleichung",
	Long: `Normalisiert die Gleichung und löst sie mit dem konfigurierten
Solver-Backend (lokales SymPy oder entfernter 'dgl serve').

Beispiele:
  dgl solve "y' = y"
  dgl solve "y'' + y = 0" --ics 0,1
  dgl solve "2x dx + 2y dy = 0" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringVar(&solveICs, "ics", "", "Anfangsbedingung x0,y0 für y(x0) = y0")
	solveCmd.Flags().StringVarP(&solveFormat, "format", "f", "text", "Ausgabeformat (text, json, yaml)")
	solveCmd.Flags().BoolVar(&solveNoHistory, "no-history", false, "Nicht im Verlauf speichern")
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Config nicht geladen", err)
		return err
	}
	if err := setupLogging(cfg, false); err != nil {
		return err
	}
	defer logging.Close()
	log := logging.New("solve")

	input := args[0]
	canonical := normalize.Normalize(input)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Solver.Timeout.Duration+cfg.Solver.AttemptTimeout.Duration)
	defer cancel()

	_, s, err := startSolver(ctx, cfg)
	if err != nil {
		printError(shell.StatusText(err), err)
		return err
	}

	start := time.Now()
	res, solveErr := s.Solve(ctx, canonical, solveICs)

	if !solveNoHistory {
		if store, err := openHistory(cfg); err != nil {
			log.Warn("Verlauf nicht verfügbar", "error", err.Error())
		} else if store != nil {
			entry := &history.Entry{
				Source:            "cli",
				Input:             input,
				Canonical:         canonical,
				InitialConditions: solveICs,
				Duration:          time.Since(start),
			}
			if res != nil {
				entry.Explanation = res.Explanation
				entry.LaTeX = res.LaTeX
			}
			history.NewRecorder(store, log).Record(ctx, entry, solveErr)
			store.Close()
		}
	}

	if solveErr != nil {
		printError(shell.StatusText(solveErr), solveErr)
		return solveErr
	}

	out := cmd.OutOrStdout()
	if solveFormat != "text" {
		return printStructured(out, solveFormat, res)
	}

	fmt.Fprintf(out, "Kanonisch: %s\n\n", canonical)
	fmt.Fprintln(out, res.Explanation)
	if res.LaTeX != "" {
		fmt.Fprintf(out, "\nLaTeX: %s\n", res.LaTeX)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "\n(Methode: %s, Dauer: %s)\n", res.Hint, res.Duration.Round(time.Millisecond))
	}
	return nil
}
