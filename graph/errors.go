// Package graph implements the graph model and build-time validator: edge
// inference, InputSpec classification, cycle detection, gate
// wiring, output-conflict detection, optional static type checking, and the
// bind/select/entrypoint scope-narrowing transformations.
package graph

import "fmt"

// GraphConfigError covers every build-time structural defect: duplicate
// names, duplicate outputs, invalid identifiers, inconsistent defaults,
// unreachable/self-targeting gates, strict-types violations, and
// cycle-output collisions.
type GraphConfigError struct {
	Reason string
	Fix    string
}

func (e *GraphConfigError) Error() string {
	if e.Fix == "" {
		return "graph config: " + e.Reason
	}
	return fmt.Sprintf("graph config: %s (%s)", e.Reason, e.Fix)
}

func cfgErr(reason, fix string) error {
	return &GraphConfigError{Reason: reason, Fix: fix}
}

// MissingInputError lists every required input absent at run time.
type MissingInputError struct {
	Names []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing required input(s): %v; pass them in `values` or bind a default", e.Names)
}

// AmbiguousEntrypointError fires when run-time inputs satisfy more than one
// cycle entrypoint candidate in the same cycle.
type AmbiguousEntrypointError struct {
	Candidates []string
}

func (e *AmbiguousEntrypointError) Error() string {
	return fmt.Sprintf("ambiguous entrypoint: candidates %v all satisfied; pass entrypoint=\"<name>\" to disambiguate", e.Candidates)
}

// IncompatibleRunnerError fires when the graph's capabilities (async nodes,
// interrupts) exceed what the chosen runner supports.
type IncompatibleRunnerError struct {
	Reason string
}

func (e *IncompatibleRunnerError) Error() string {
	return "incompatible runner: " + e.Reason
}
