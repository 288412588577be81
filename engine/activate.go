package engine

import (
	"reflect"

	"github.com/gilad-rubin/hypergraph-sub004/hgid"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// activate interprets the gate decisions made in the previous superstep:
// the chosen targets stay runnable for the current generation, their
// declared-but-not-chosen siblings are deactivated (gateAllows blocks them
// once a current decision exists), and any output a deactivated sibling
// already committed preemptively is repaired: re-committed from the chosen
// branch when it produces the same name, or dropped from the store when
// nothing chosen produces it, blocking its consumers.
func (r *run) activate() {
	if len(r.newDecisions) == 0 {
		return
	}
	decided := r.newDecisions
	r.newDecisions = nil

	reassert := node.Values{}
	for _, gateName := range decided {
		dec, ok := r.gateDecisions[gateName]
		if !ok {
			continue
		}
		if !decisionChoseNode(dec.targets) {
			// An END-only decision terminates the path through the gate
			// (gateAllows now blocks every target) but leaves the values
			// the final iteration committed in place.
			continue
		}
		for _, t := range r.g.GateTargets(gateName) {
			if containsName(dec.targets, t) || !r.ranOnce[t] {
				continue
			}
			tn, ok := r.g.Node(t)
			if !ok {
				continue
			}
			for _, o := range tn.Outputs() {
				if v, ok := r.chosenValueFor(dec.targets, o); ok {
					cur, _, has := r.store.Get(o)
					if !has || !reflect.DeepEqual(cur, v) {
						reassert[o] = v
					}
				} else {
					r.store.Drop(o)
				}
			}
		}
	}
	if len(reassert) > 0 {
		r.store.Commit(reassert)
	}
}

// decisionChoseNode reports whether the decision activated at least one
// real node target, as opposed to terminating every path with END.
func decisionChoseNode(targets []string) bool {
	for _, t := range targets {
		if t != hgid.End {
			return true
		}
	}
	return false
}

// chosenValueFor finds the value a chosen target last committed under
// output name o, if any chosen target produces it.
func (r *run) chosenValueFor(chosen []string, o string) (any, bool) {
	for _, c := range chosen {
		out, ran := r.lastOutputs[c]
		if !ran {
			continue
		}
		if v, has := out[o]; has {
			return v, true
		}
	}
	return nil, false
}
