package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/dglrechner/pkg/core/version"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Zeigt die Versionsinformationen",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		out := cmd.OutOrStdout()
		if versionFormat != "text" {
			return printStructured(out, versionFormat, info)
		}

		fmt.Fprintf(out, "dgl %s\n\n", info.App)
		fmt.Fprintf(out, "  Normalisierer:  %s\n", info.Normalizer)
		fmt.Fprintf(out, "  Solver-Brücke:  %s\n", info.Bridge)
		fmt.Fprintf(out, "  HTTP-API:       %s\n", info.API)
		fmt.Fprintf(out, "  Commit:         %s\n", info.Commit)
		fmt.Fprintf(out, "  Build:          %s\n", info.BuildDate)
		fmt.Fprintf(out, "  Go:             %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Ausgabeformat (text, json, yaml)")
}
