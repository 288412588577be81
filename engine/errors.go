package engine

import "fmt"

// InfiniteLoopError fires when a cyclic run exceeds max_iterations
// supersteps without reaching a terminal condition.
type InfiniteLoopError struct {
	MaxIterations int
}

func (e *InfiniteLoopError) Error() string {
	return fmt.Sprintf("infinite loop: exceeded max_iterations=%d without quiescence", e.MaxIterations)
}

// AmbiguousOverrideError fires when a provided value collides with an
// internal edge under on_internal_override="error".
type AmbiguousOverrideError struct {
	Param string
	Node  string
}

func (e *AmbiguousOverrideError) Error() string {
	return fmt.Sprintf("internal override: %q was supplied but is produced by node %q, which can still run (on_internal_override=error)", e.Param, e.Node)
}

// InjectionConflictError fires in the two injection shapes the run rejects:
// a caller supplies every output of a node that remains runnable (Missing
// is empty; injection can never legally bypass a node that can still run),
// or a caller supplies only part of a node's declared outputs while that
// node cannot run to produce the rest (Missing lists them).
type InjectionConflictError struct {
	Node    string
	Missing []string
}

func (e *InjectionConflictError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("injection conflict: node %q was fully injected but can still run; exclude it (with_entrypoint/select) before injecting its outputs", e.Node)
	}
	return fmt.Sprintf("partial injection of node %q's outputs: missing %v and the node cannot run to produce them; inject all of its outputs or none", e.Node, e.Missing)
}
