// Package node defines the node model: the abstract Node contract and the
// concrete node kinds (function, route/if-else, interrupt). GraphNode, the
// fourth kind wrapping a nested graph, lives in package graph alongside the
// Graph type it wraps so the two packages never import each other in a
// cycle: graph imports node, never the reverse, and GraphNode still
// satisfies the Node interface declared here.
package node

import (
	"context"
	"errors"
)

// Values is the heterogeneous name-to-value bag passed into and out of
// every node call. Runtime values are opaque to the engine; typing, when
// enabled, is checked at build time only.
type Values map[string]any

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Kind discriminates the four concrete node variants.
type Kind int

const (
	KindFunction Kind = iota
	KindGraph
	KindRoute
	KindInterrupt
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindGraph:
		return "graph"
	case KindRoute:
		return "route"
	case KindInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}

// RenameEntry records one step of a node's rename history: (kind, old, new,
// batch). BatchID groups renames applied by the same WithInputs/WithOutputs
// call so error messages can report "renamed together with X, Y".
type RenameEntry struct {
	Kind    string // "name", "input", "output"
	Old     string
	New     string
	BatchID int
}

// PauseRequest is returned by an InterruptNode's Call when it has no
// auto-handler attached: it asks the scheduler to halt the run and surface
// Value to the caller, to be satisfied later by re-submitting ResponseKey.
type PauseRequest struct {
	Value       any
	ResponseKey string
}

// CallResult is the full outcome of one Node.Call: either Outputs is
// populated (the node ran to completion) or Pause is non-nil (an interrupt
// without a handler asks to pause). Both are never set together.
type CallResult struct {
	Outputs Values
	Pause   *PauseRequest
}

// Node is the contract every node kind implements. It is the single
// interface the engine schedules against; kind-specific behavior (gate
// targets, map_over, …) is reached via type assertions to the concrete
// kinds in packages node and graph.
type Node interface {
	Name() string
	Inputs() []string
	Outputs() []string
	Kind() Kind
	IsAsync() bool
	IsGenerator() bool

	// DefinitionHash returns this node's 64-hex identity, or
	// hgid.ErrHashUnavailable if neither a DefinitionKey was supplied nor a
	// structural fallback exists.
	DefinitionHash() (string, error)

	RenameHistory() []RenameEntry

	// Call executes the node against in, following the canonical-input ->
	// actual-parameter mapping recorded by the node's rename history.
	Call(ctx context.Context, in Values) (CallResult, error)

	// WithName/WithInputs/WithOutputs return a new node with the renames
	// applied; the receiver is never mutated. Each rename is recorded in the
	// returned node's history so
	// that a later attempt to rename an already-superseded name produces a
	// RenameError naming the current name.
	WithName(newName string) (Node, error)
	WithInputs(mapping map[string]string) (Node, error)
	WithOutputs(mapping map[string]string) (Node, error)
}

// RenameError is returned when a rename targets a name that is no longer
// current; it names the entire chain so the caller can see what it became.
type RenameError struct {
	Requested string
	Chain     []RenameEntry
}

func (e *RenameError) Error() string {
	msg := "rename: \"" + e.Requested + "\" is not a current name"
	if len(e.Chain) > 0 {
		msg += "; it was renamed to"
		for _, c := range e.Chain {
			msg += " \"" + c.New + "\""
		}
	}
	msg += "; rename the current name instead"
	return msg
}

// ErrDuplicateIO is returned when a node's declared inputs or outputs
// contain a duplicate identifier.
var ErrDuplicateIO = errors.New("node: duplicate input or output name")

func dedupe(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return ErrDuplicateIO
		}
		seen[n] = true
	}
	return nil
}

// resolveRename walks a rename chain looking for oldName as a *currently
// live* entry of the given kind; if oldName was itself superseded by a
// later rename, a RenameError is returned naming the chain.
func resolveRename(history []RenameEntry, kind, oldName string) error {
	// Find all entries for this kind whose Old == oldName; if any such
	// entry exists, oldName was already renamed away and is not current
	// unless it is also the New of a later entry equal to oldName (a no-op
	// round trip), which we don't special-case: any prior appearance as an
	// "Old" makes it stale.
	var chain []RenameEntry
	stale := false
	for _, e := range history {
		if e.Kind == kind && e.Old == oldName {
			stale = true
		}
		if stale {
			chain = append(chain, e)
		}
	}
	if stale {
		return &RenameError{Requested: oldName, Chain: chain}
	}
	return nil
}
