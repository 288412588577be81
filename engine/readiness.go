package engine

import "github.com/gilad-rubin/hypergraph-sub004/node"

// computeReady builds the superstep's ready set: a node is ready iff it
// isn't blocked by an un-activated gate, every input is resolvable,
// every wait_for signal is fresh, and it isn't stable (identical consumed
// versions as its last run).
func (r *run) computeReady() []string {
	g := r.g
	active := g.ActiveNodes()
	var ready []string
	for _, name := range g.NodeNames() {
		if !active[name] || r.excluded[name] {
			continue
		}
		if r.nodeReady(name) {
			ready = append(ready, name)
		}
	}
	return ready
}

func (r *run) nodeReady(name string) bool {
	g := r.g
	n, _ := g.Node(name)

	if !r.gateAllows(name) {
		return false
	}

	sig := map[string]int{}
	if fn, ok := n.(*node.FunctionNode); ok {
		for _, w := range fn.WaitFor() {
			_, ver, ok2 := r.store.Get(w)
			if !ok2 {
				return false
			}
			if last, has := r.lastConsumed[name]; has {
				if lv, ok3 := last[w]; ok3 && ver <= lv {
					return false
				}
			}
			sig[w] = ver
		}
	}

	for _, in := range n.Inputs() {
		_, ver, ok2 := r.store.Get(in)
		if !ok2 {
			return false
		}
		sig[in] = ver
	}

	if r.ranOnce[name] && sigEqual(sig, r.lastConsumed[name]) {
		return false
	}

	if r.pendingSig == nil {
		r.pendingSig = map[string]map[string]int{}
	}
	r.pendingSig[name] = sig
	return true
}

// gateAllows reports whether every gate targeting name currently permits
// it to run. A gate whose own inputs have gone stale is about to
// re-evaluate, so its targets wait for the fresh decision rather than
// running a generation ahead; with a current decision, only the chosen
// targets run; with no decision and no pending gate, default_open targets
// may run preemptively.
func (r *run) gateAllows(name string) bool {
	g := r.g
	for _, gateName := range g.NodeNames() {
		gn, ok := g.Node(gateName)
		if !ok {
			continue
		}
		rn, isRoute := gn.(*node.RouteNode)
		if !isRoute {
			continue
		}
		targets := g.GateTargets(gateName)
		if !containsName(targets, name) {
			continue
		}
		if r.gatePending(gateName, gn) {
			return false
		}
		dec, known := r.gateDecisions[gateName]
		if !known {
			if !rn.DefaultOpen() {
				return false
			}
			continue
		}
		if !containsName(dec.targets, name) {
			return false
		}
	}
	return true
}

// gatePending reports whether the gate could run this superstep with a
// consumed-version signature it has not decided on yet: all of its inputs
// resolvable, and either it never ran or some input is newer than its last
// decision consumed. Whether the gate is itself blocked by another gate is
// deliberately not consulted, keeping the check non-recursive; the cost is
// a conservative block of targets under chained gates.
func (r *run) gatePending(gateName string, gate node.Node) bool {
	sig := map[string]int{}
	for _, in := range gate.Inputs() {
		_, ver, ok := r.store.Get(in)
		if !ok {
			return false
		}
		sig[in] = ver
	}
	if !r.ranOnce[gateName] {
		return true
	}
	return !sigEqual(sig, r.lastConsumed[gateName])
}

func containsName(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func sigEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
