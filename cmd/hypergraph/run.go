package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gilad-rubin/hypergraph-sub004/emit"
	"github.com/gilad-rubin/hypergraph-sub004/examples"
	"github.com/gilad-rubin/hypergraph-sub004/node"
	"github.com/gilad-rubin/hypergraph-sub004/runner"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <graph-name>",
		Short: "Build a registered graph and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}

	cmd.Flags().String("values", "", "JSON object of input values (default: read from stdin)")
	cmd.Flags().Bool("concurrent", false, "Use the bounded-concurrent runner instead of sequential")
	cmd.Flags().Bool("log", false, "Emit a text log line per event to stderr")
	cmd.Flags().Bool("trace", false, "Emit one OpenTelemetry span per event via an in-process TracerProvider")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	name := args[0]
	build, ok := examples.Lookup(name)
	if !ok {
		return fmt.Errorf("no such registered graph %q (known: %v)", name, examples.Names())
	}

	g, err := build()
	if err != nil {
		return fmt.Errorf("build %q: %w", name, err)
	}

	raw, _ := cmd.Flags().GetString("values")
	if raw == "" {
		stdin, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading values from stdin: %w", err)
		}
		raw = string(stdin)
	}

	values := node.Values{}
	if trimmed := trimJSON(raw); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
			return fmt.Errorf("parsing values as a JSON object: %w", err)
		}
	}

	var runnerOpts []runner.Option
	var procs []emit.Processor
	if doLog, _ := cmd.Flags().GetBool("log"); doLog {
		procs = append(procs, emit.NewLogProcessor(cmd.ErrOrStderr(), false))
	}
	if doTrace, _ := cmd.Flags().GetBool("trace"); doTrace {
		tp, shutdown := emit.NewSDKTracerProvider()
		defer shutdown(context.Background())
		procs = append(procs, emit.NewOtelProcessor(tp.Tracer("hypergraph-cli")))
	}
	if len(procs) > 0 {
		runnerOpts = append(runnerOpts, runner.WithDefaultProcessors(procs...))
	}

	concurrent, _ := cmd.Flags().GetBool("concurrent")
	var r *runner.Runner
	if concurrent {
		r = runner.NewConcurrent(runnerOpts...)
	} else {
		r = runner.NewSequential(runnerOpts...)
	}

	result, runErr := r.Run(context.Background(), g, values, nil)
	out, err := json.MarshalIndent(result.ToDict(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return runErr
}

func trimJSON(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\n' || s[start] == '\t' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\n' || s[end-1] == '\t' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}
