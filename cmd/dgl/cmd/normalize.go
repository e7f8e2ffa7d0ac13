package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/msto63/dglrechner/internal/normalize"
	"github.com/msto63/dglrechner/internal/render"
)

var (
	normalizeTrace  bool
	normalizeFormat string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [eingabe]",
	Short: "Bringt eine Eingabe in die kanonische Form",
	Long: `Wendet die Normalisierungsregeln auf die Eingabe an und gibt die
kanonische Form aus, die an den Solver geht.

Ohne Argument wird jede Zeile von stdin normalisiert.

Beispiele:
  dgl normalize "y'' + y' = 0"
  dgl normalize --trace "2x + 3y = 5"
  echo "x^2+y^2" | dgl normalize`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().BoolVarP(&normalizeTrace, "trace", "t", false, "Zwischenergebnis jeder Regel anzeigen")
	normalizeCmd.Flags().StringVarP(&normalizeFormat, "format", "f", "text", "Ausgabeformat (text, json, yaml)")
}

type normalizeOutput struct {
	Input     string           `json:"input" yaml:"input"`
	Canonical string           `json:"canonical" yaml:"canonical"`
	Markup    string           `json:"markup" yaml:"markup"`
	Steps     []normalize.Step `json:"steps,omitempty" yaml:"steps,omitempty"`
}

func runNormalize(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return printNormalized(cmd, args[0])
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := printNormalized(cmd, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Fehler beim Lesen: %v\n", err)
		return err
	}
	return nil
}

func printNormalized(cmd *cobra.Command, input string) error {
	out := cmd.OutOrStdout()
	canonical := normalize.Normalize(input)

	if normalizeFormat != "text" {
		o := normalizeOutput{Input: input, Canonical: canonical, Markup: render.Typeset(canonical)}
		if normalizeTrace {
			o.Steps = normalize.Trace(input)
		}
		return printStructured(out, normalizeFormat, o)
	}

	if !normalizeTrace {
		fmt.Fprintln(out, canonical)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "REGEL\tERGEBNIS\n")
	fmt.Fprintf(tw, "(eingabe)\t%s\n", input)
	for _, step := range normalize.Trace(input) {
		fmt.Fprintf(tw, "%s\t%s\n", step.Rule, step.Output)
	}
	return tw.Flush()
}
