// Command hypergraph is the CLI surface over a compile-time registry of
// graphs: validate prints a graph's input classification, run executes it
// with JSON-supplied values.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "hypergraph",
	Short:        "Build, validate, and run hypergraph workflows",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newRunCmd())
}
