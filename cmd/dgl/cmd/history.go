package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/dglrechner/internal/history"
)

var (
	historyLimit  int
	historyOffset int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Zeigt und verwaltet den Lösungsverlauf",
	Long: `Zeigt und verwaltet den Verlauf aller gelösten Gleichungen.

Beispiele:
  dgl history list --limit 10
  dgl history show <id>
  dgl history stats
  dgl history delete <id>
  dgl history clear`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Listet die letzten Einträge",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Zeigt einen Eintrag",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Zeigt eine Statistik",
	RunE:  runHistoryStats,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Löscht einen Eintrag",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Löscht den gesamten Verlauf",
	RunE:  runHistoryClear,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyStatsCmd, historyDeleteCmd, historyClearCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Anzahl Einträge")
	historyListCmd.Flags().IntVar(&historyOffset, "offset", 0, "Einträge überspringen")
	historyCmd.PersistentFlags().StringVarP(&historyFormat, "format", "f", "text", "Ausgabeformat (text, json, yaml)")
}

// withHistory opens the store, runs fn and closes the store again
func withHistory(fn func(ctx context.Context, store history.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("Config nicht geladen", err)
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		printError("Verlauf nicht verfügbar", err)
		return err
	}
	if store == nil {
		err := errors.New("history.enabled = false")
		printError("Verlauf deaktiviert", err)
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return fn(ctx, store)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	return withHistory(func(ctx context.Context, store history.Store) error {
		entries, err := store.List(ctx, historyLimit, historyOffset)
		if err != nil {
			printError("Verlauf nicht gelesen", err)
			return err
		}

		out := cmd.OutOrStdout()
		if historyFormat != "text" {
			return printStructured(out, historyFormat, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "Keine Einträge.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tZEIT\tSTATUS\tEINGABE")
		for _, e := range entries {
			status := "ok"
			if e.Failed() {
				status = e.ErrorCode
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				e.ID[:min(8, len(e.ID))], e.CreatedAt.Local().Format("02.01.2006 15:04"), status, e.Input)
		}
		return tw.Flush()
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	return withHistory(func(ctx context.Context, store history.Store) error {
		e, err := findEntry(ctx, store, args[0])
		if err != nil {
			printError("Eintrag nicht gefunden", err)
			return err
		}

		out := cmd.OutOrStdout()
		if historyFormat != "text" {
			return printStructured(out, historyFormat, e)
		}

		fmt.Fprintf(out, "ID:         %s\n", e.ID)
		fmt.Fprintf(out, "Zeit:       %s\n", e.CreatedAt.Local().Format(time.RFC3339))
		fmt.Fprintf(out, "Quelle:     %s\n", e.Source)
		fmt.Fprintf(out, "Eingabe:    %s\n", e.Input)
		fmt.Fprintf(out, "Kanonisch:  %s\n", e.Canonical)
		if e.InitialConditions != "" {
			fmt.Fprintf(out, "AB:         %s\n", e.InitialConditions)
		}
		fmt.Fprintf(out, "Dauer:      %s\n\n", e.Duration)
		if e.Failed() {
			fmt.Fprintf(out, "Fehler (%s): %s\n", e.ErrorCode, e.Error)
			return nil
		}
		fmt.Fprintln(out, e.Explanation)
		return nil
	})
}

// findEntry accepts a full id or the 8-character prefix shown by list
func findEntry(ctx context.Context, store history.Store, id string) (*history.Entry, error) {
	if e, err := store.Get(ctx, id); err == nil {
		return e, nil
	} else if len(id) >= 36 {
		return nil, err
	}

	entries, err := store.List(ctx, 1000, 0)
	if err != nil {
		return nil, err
	}
	var match *history.Entry
	for _, e := range entries {
		if strings.HasPrefix(e.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("id-Präfix %q ist nicht eindeutig", id)
			}
			match = e
		}
	}
	if match == nil {
		return nil, fmt.Errorf("kein Eintrag mit id %q", id)
	}
	return match, nil
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	return withHistory(func(ctx context.Context, store history.Store) error {
		stats, err := store.Statistics(ctx)
		if err != nil {
			printError("Statistik nicht gelesen", err)
			return err
		}

		out := cmd.OutOrStdout()
		if historyFormat != "text" {
			return printStructured(out, historyFormat, stats)
		}
		fmt.Fprintf(out, "Gesamt:           %d\n", stats.Total)
		fmt.Fprintf(out, "Gelöst:           %d\n", stats.Solved)
		fmt.Fprintf(out, "Fehlgeschlagen:   %d\n", stats.Failed)
		fmt.Fprintf(out, "Mittlere Dauer:   %.0f ms\n", stats.AvgDurationMs)
		for code, n := range stats.ByErrorCode {
			fmt.Fprintf(out, "  %-24s %d\n", code, n)
		}
		return nil
	})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	return withHistory(func(ctx context.Context, store history.Store) error {
		e, err := findEntry(ctx, store, args[0])
		if err != nil {
			printError("Eintrag nicht gefunden", err)
			return err
		}
		if err := store.Delete(ctx, e.ID); err != nil {
			printError("Eintrag nicht gelöscht", err)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Eintrag %s gelöscht.\n", e.ID)
		return nil
	})
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	return withHistory(func(ctx context.Context, store history.Store) error {
		if err := store.Clear(ctx); err != nil {
			printError("Verlauf nicht gelöscht", err)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Verlauf gelöscht.")
		return nil
	})
}
