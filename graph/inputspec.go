package graph

import (
	"sort"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// reverseAdjacency builds consumer -> producers from g.adjacency (producer
// -> consumers).
func (g *Graph) reverseAdjacency() map[string][]string {
	rev := map[string][]string{}
	for producer, consumers := range g.adjacency {
		for _, c := range consumers {
			rev[c] = appendUnique(rev[c], producer)
		}
	}
	return rev
}

// ancestors returns every node with a data path into name, not including
// name itself even when a self-loop or an enclosing cycle makes name its
// own predecessor: WithEntrypoint drops ancestors, and the entrypoint node
// itself must stay active.
func (g *Graph) ancestors(name string) map[string]bool {
	rev := g.reverseAdjacency()
	seen := map[string]bool{}
	var walk func(string)
	walk = func(n string) {
		for _, p := range rev[n] {
			if p == name || seen[p] {
				continue
			}
			seen[p] = true
			walk(p)
		}
	}
	walk(name)
	return seen
}

// computeActiveSubgraph applies the two orthogonal narrowing operators
//: with_entrypoint drops ancestors of the
// named node; select drops descendants that do not contribute to any
// selected output, via backward reachability from the selected outputs'
// producers.
func computeActiveSubgraph(g *Graph, selection []string, entrypoint string) (map[string]bool, error) {
	active := map[string]bool{}
	for _, n := range g.order {
		active[n] = true
	}

	if entrypoint != "" {
		if _, ok := g.nodes[entrypoint]; !ok {
			return nil, cfgErr("with_entrypoint: unknown node "+entrypoint, "pass an existing node name")
		}
		// A node sharing a cycle with the entrypoint is also its own
		// ancestor by construction (the cycle loops back into it) but must
		// stay active: with_entrypoint disambiguates which node bootstraps
		// a cycle, it never prunes the cycle itself.
		entrypointInCycle := g.IsCycleNode(entrypoint)
		for a := range g.ancestors(entrypoint) {
			if entrypointInCycle && g.IsCycleNode(a) {
				continue
			}
			delete(active, a)
		}
	}

	if len(selection) > 0 {
		keep := map[string]bool{}
		for _, out := range selection {
			for _, producer := range g.producers[out] {
				if !active[producer] {
					continue
				}
				keep[producer] = true
				for a := range g.ancestors(producer) {
					if active[a] {
						keep[a] = true
					}
				}
			}
		}
		active = keep
	}

	return active, nil
}

// computeInputSpec classifies every parameter of every active node into
// exactly one of {edge-fed, required, optional, bound, cycle-entrypoint}.
func computeInputSpec(g *Graph, active map[string]bool) (InputSpec, error) {
	spec := InputSpec{
		Entrypoints: map[string][]string{},
		Bound:       map[string]any{},
	}
	requiredSet := map[string]bool{}
	optionalSet := map[string]bool{}

	for _, name := range g.order {
		if !active[name] {
			continue
		}
		n := g.nodes[name]
		for _, p := range n.Inputs() {
			producers := g.producers[p]
			hasActiveProducer := false
			for _, prod := range producers {
				if active[prod] {
					hasActiveProducer = true
					break
				}
			}

			if hasActiveProducer {
				if isEntrypointParam(g, name, p, producers) {
					spec.Entrypoints[name] = appendUnique(spec.Entrypoints[name], p)
				}
				continue // edge-fed: never required/optional (edge cancels default)
			}

			if v, bound := g.bindings[p]; bound {
				spec.Bound[p] = v
				optionalSet[p] = true
				continue
			}

			if fn, ok := n.(*node.FunctionNode); ok {
				if _, has := fn.Default(p); has {
					optionalSet[p] = true
					continue
				}
			}

			requiredSet[p] = true
		}
	}

	spec.Required = setToSortedSlice(requiredSet)
	spec.Optional = setToSortedSlice(optionalSet)
	return spec, nil
}

// isEntrypointParam reports whether `consumer` lies on a cycle and at least
// one producer of `param` lies on a cycle too; such a parameter is treated as
// needing a bootstrap value on the first pass. It does not check that the
// producer is on the same cycle as consumer, nor that every producer of
// param is a cycle node.
func isEntrypointParam(g *Graph, consumer, param string, producers []string) bool {
	if !g.IsCycleNode(consumer) {
		return false
	}
	for _, p := range producers {
		if g.IsCycleNode(p) {
			return true
		}
	}
	return false
}

func setToSortedSlice(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
