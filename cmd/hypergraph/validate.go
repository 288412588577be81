package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gilad-rubin/hypergraph-sub004/examples"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <graph-name>",
		Short: "Build a registered graph and print its InputSpec",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	name := args[0]
	build, ok := examples.Lookup(name)
	if !ok {
		return fmt.Errorf("no such registered graph %q (known: %v)", name, examples.Names())
	}

	g, err := build()
	if err != nil {
		return fmt.Errorf("build %q: %w", name, err)
	}

	spec := g.InputSpec()
	report := map[string]any{
		"name":            g.Name(),
		"definition_hash": g.DefinitionHash(),
		"has_cycles":      g.HasCycles(),
		"has_async_nodes": g.HasAsyncNodes(),
		"required":        spec.Required,
		"optional":        spec.Optional,
		"entrypoints":     spec.Entrypoints,
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
