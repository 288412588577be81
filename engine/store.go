package engine

import "github.com/gilad-rubin/hypergraph-sub004/node"

// versioned pairs a value with the store-wide version at which it was last
// written. Versions drive staleness detection in cyclic graphs.
type versioned struct {
	value   any
	version int
}

// Store is the per-run versioned value store. Every commit (one per
// superstep's batch) advances a single monotonic version counter, so "has
// this producer produced a newer value since I last ran" is a simple integer
// comparison.
type Store struct {
	values  map[string]versioned
	version int
}

// NewStore seeds an empty store at version 0.
func NewStore() *Store {
	return &Store{values: map[string]versioned{}}
}

// Seed writes initial values (defaults/bindings/provided) at version 0,
// without advancing the version counter; these are available to the very
// first superstep's readiness computation.
func (s *Store) Seed(values node.Values) {
	for k, v := range values {
		s.values[k] = versioned{value: v, version: 0}
	}
}

// Get returns the current value and version for name.
func (s *Store) Get(name string) (any, int, bool) {
	v, ok := s.values[name]
	return v.value, v.version, ok
}

// Version returns the store-wide current version.
func (s *Store) Version() int { return s.version }

// Commit advances the store's version and writes every key in outputs at
// the new version, atomically from the caller's perspective: a whole
// superstep batch commits under one version.
func (s *Store) Commit(outputs node.Values) int {
	s.version++
	for k, v := range outputs {
		s.values[k] = versioned{value: v, version: s.version}
	}
	return s.version
}

// Drop removes name from the store entirely, blocking any consumer that
// needs it until a producer commits it again.
func (s *Store) Drop(name string) {
	delete(s.values, name)
}

// Snapshot returns every currently-held value as a plain Values map.
func (s *Store) Snapshot() node.Values {
	out := make(node.Values, len(s.values))
	for k, v := range s.values {
		out[k] = v.value
	}
	return out
}
