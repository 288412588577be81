package engine

// contextKey is a private type for context value keys, so keys from this
// package never collide with keys from other packages.
type contextKey string

const (
	// RunIDKey carries the run's unique identifier.
	RunIDKey contextKey = "hypergraph.run_id"
	// StepKey carries the current superstep number.
	StepKey contextKey = "hypergraph.step"
	// NodeIDKey carries the node currently executing.
	NodeIDKey contextKey = "hypergraph.node_id"
)
