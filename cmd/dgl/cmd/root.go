package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/msto63/dglrechner/pkg/core/config"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dgl",
	Short: "dglrechner - Gewöhnliche Differentialgleichungen eingeben und lösen",
	Long: `dglrechner nimmt gewöhnliche Differentialgleichungen in lockerer
Schreibweise entgegen (y', y'', dx/dy, ^, ·), bringt sie in eine kanonische
Form, zeigt eine Vorschau und löst sie symbolisch mit SymPy.

Befehle:
  tui        - Interaktiver Rechner mit Tastenfeld und Live-Vorschau
  normalize  - Eingabe in die kanonische Form bringen
  solve      - Gleichung lösen
  render     - Vorschau als Text oder PNG ausgeben
  serve      - HTTP-API starten
  history    - Verlauf anzeigen und verwalten
  keypad     - Tastenfeld und Tastenkürzel anzeigen
  version    - Versionsinformationen`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config-Datei (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose Output")
}

// loadConfig reads the config file, falls back to defaults when none exists
// and applies DGL_* environment overrides
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
	} else if cfg, err = config.LoadFromEnv(); err != nil {
		cfg = config.Default()
	}

	cfg.ApplyEnvOverrides()
	if verbose {
		cfg.General.LogLevel = "debug"
	}
	return cfg, nil
}

// setupLogging configures the process-wide logger. Interactive mode passes
// toFile so log lines never end up on the screen.
func setupLogging(cfg *config.Config, toFile bool) error {
	lc := logging.LoggerConfig{
		Level:  cfg.General.LogLevel,
		Format: cfg.General.LogFormat,
		File:   cfg.General.LogFile,
	}
	if toFile && lc.File == "" {
		lc.File = filepath.Join(cfg.General.DataDir, "dgl.log")
	}
	return logging.Configure(lc)
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Fehler: %s: %v\n", msg, err)
}

// printStructured writes v as json or yaml
func printStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unbekanntes Format %q (text, json, yaml)", format)
	}
}
