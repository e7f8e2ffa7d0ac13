package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/dglrechner/internal/normalize"
	"github.com/msto63/dglrechner/internal/render"
)

var (
	renderOut    string
	renderMarkup bool
)

var renderCmd = &cobra.Command{
	Use:   "render <eingabe>",
	Short: "Gibt die Vorschau einer Eingabe aus",
	Long: `Normalisiert die Eingabe, setzt sie als LaTeX und gibt die Vorschau
als Unicode-Text aus oder schreibt sie mit --out als PNG.

Beispiele:
  dgl render "y'' + x^2 y = 0"
  dgl render --markup '\frac{dy}{dx} = \sqrt{x}'
  dgl render "y' = y" --out vorschau.png`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "PNG-Datei schreiben")
	renderCmd.Flags().BoolVar(&renderMarkup, "markup", false, "Eingabe ist bereits LaTeX")
}

func runRender(cmd *cobra.Command, args []string) error {
	markup := args[0]
	if !renderMarkup {
		markup = render.Typeset(normalize.Normalize(args[0]))
	}

	if renderOut == "" {
		text, err := render.ToUnicode(markup)
		if err != nil {
			printError("Vorschau nicht darstellbar", err)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		printError("Config nicht geladen", err)
		return err
	}
	r, err := newPNGRenderer(cfg)
	if err != nil {
		printError("Schrift nicht geladen", err)
		return err
	}

	v := r.Render(markup)
	if len(v.PNG) == 0 {
		err := fmt.Errorf("leere Vorschau für %q", markup)
		printError("Vorschau nicht darstellbar", err)
		return err
	}
	if err := os.WriteFile(renderOut, v.PNG, 0644); err != nil {
		printError("PNG nicht geschrieben", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s geschrieben (%dx%d)\n", renderOut, v.Width, v.Height)
	return nil
}
