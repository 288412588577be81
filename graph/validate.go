package graph

import (
	"github.com/gilad-rubin/hypergraph-sub004/hgid"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// inferProducers builds g.producers: output name -> producing node name(s).
// A name produced by more than one node is accepted only when every pair of
// producers is provably mutex: both are the (non-multi) targets of the
// same gate, so at most one of them runs per iteration.
func (g *Graph) inferProducers() error {
	raw := map[string][]string{}
	for _, name := range g.order {
		n := g.nodes[name]
		for _, out := range n.Outputs() {
			raw[out] = append(raw[out], name)
		}
	}

	// Gate target sets, used below to prove mutex exclusivity. Computed
	// ahead of buildAdjacencyAndGates since inferProducers runs first.
	gateTargetSets := map[string]map[string]bool{} // gateName -> set(targets)
	for _, name := range g.order {
		if rn, ok := g.nodes[name].(*node.RouteNode); ok && !rn.MultiTarget() {
			set := map[string]bool{}
			for _, t := range rn.Targets() {
				set[t] = true
			}
			gateTargetSets[name] = set
		}
	}

	for out, producers := range raw {
		if len(producers) == 1 {
			g.producers[out] = producers
			continue
		}
		if !allMutex(producers, gateTargetSets) {
			return cfgErr(
				"output \""+out+"\" is produced by multiple nodes ("+joinNames(producers)+")",
				"only mutually-exclusive single-target-gate branches may share an output name",
			)
		}
		g.producers[out] = producers
	}
	return nil
}

// allMutex reports whether every pair of the given node names is provably
// mutually exclusive: both appear in the target set of some common
// non-multi-target gate.
func allMutex(names []string, gateTargetSets map[string]map[string]bool) bool {
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if !pairMutex(names[i], names[j], gateTargetSets) {
				return false
			}
		}
	}
	return true
}

func pairMutex(a, b string, gateTargetSets map[string]map[string]bool) bool {
	for _, set := range gateTargetSets {
		if set[a] && set[b] {
			return true
		}
	}
	return false
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// buildAdjacencyAndGates builds data-edge adjacency (producer -> consumer)
// from g.producers, and records each gate's declared control targets.
func (g *Graph) buildAdjacencyAndGates() error {
	for _, name := range g.order {
		n := g.nodes[name]
		for _, in := range n.Inputs() {
			for _, producer := range g.producers[in] {
				g.adjacency[producer] = appendUnique(g.adjacency[producer], name)
			}
		}
		if rn, ok := n.(*node.RouteNode); ok {
			g.gateTargets[name] = append([]string{}, rn.Targets()...)
		}
	}
	return nil
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// validateGateTargets enforces: every declared target is a known node name
// or hgid.End; no self-target; multi-target gates' distinct targets must
// not produce the same data output.
func (g *Graph) validateGateTargets() error {
	for name, targets := range g.gateTargets {
		rn := g.nodes[name].(*node.RouteNode)
		seenOutputs := map[string]string{}
		for _, t := range targets {
			if t == name {
				return cfgErr("gate "+name+" targets itself", "remove the self-target")
			}
			if t == hgid.End {
				continue
			}
			target, ok := g.nodes[t]
			if !ok {
				return cfgErr("gate "+name+" targets unknown node "+t, "declare node "+t+" or remove the target")
			}
			if rn.MultiTarget() {
				for _, out := range target.Outputs() {
					if owner, dup := seenOutputs[out]; dup {
						return cfgErr(
							"multi-target gate "+name+": targets "+owner+" and "+t+" both produce output \""+out+"\"",
							"multi-target gates cannot assume mutual exclusivity between their targets",
						)
					}
					seenOutputs[out] = t
				}
			}
		}
	}
	return nil
}

// validateConsistentDefaults enforces: a parameter appearing on multiple
// nodes must declare the same default everywhere, or none at all.
func (g *Graph) validateConsistentDefaults() error {
	type seen struct {
		has bool
		val any
	}
	defaults := map[string]seen{}
	for _, name := range g.order {
		fn, ok := g.nodes[name].(*node.FunctionNode)
		if !ok {
			continue
		}
		for _, in := range fn.Inputs() {
			d, has := fn.Default(in)
			prior, exists := defaults[in]
			if !exists {
				defaults[in] = seen{has: has, val: d}
				continue
			}
			if prior.has != has {
				return cfgErr("parameter \""+in+"\" has a default on some nodes but not others", "declare the same default everywhere or bind it explicitly")
			}
			if has && !equalAny(prior.val, d) {
				return cfgErr("parameter \""+in+"\" has inconsistent defaults across nodes", "declare the same default value everywhere")
			}
		}
	}
	return nil
}

func equalAny(a, b any) bool {
	return a == b
}
