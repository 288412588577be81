package graph

import "github.com/gilad-rubin/hypergraph-sub004/node"

// Bind returns a new Graph with the given parameter values fixed: a bound
// parameter is listed in InputSpec.Bound and InputSpec.Optional, never in
// InputSpec.Required. Binding a name
// that is edge-fed by a still-active producer is rejected: an edge always
// wins over a bound default, so a bound value could never take effect while
// its producer remains in the active subgraph. Binding a name whose only
// producer(s) have been excluded (e.g. via WithEntrypoint) is allowed; this
// is how a caller intentionally bypasses a producer by directly injecting its
// output.
func (g *Graph) Bind(values map[string]any) (*Graph, error) {
	merged := g.Bindings()
	for k, v := range values {
		for _, producer := range g.producers[k] {
			if g.activeNodes[producer] {
				return nil, cfgErr("cannot bind \""+k+"\": it is produced by node \""+producer+"\", which is still active", "exclude the producing node (e.g. via WithEntrypoint/Select) before binding its output, or remove the producing node")
			}
		}
		merged[k] = v
	}
	return g.rebuild(merged, g.selection, g.entrypointOverride)
}

// Unbind removes previously bound values, returning those parameters to
// required/optional classification as if never bound.
func (g *Graph) Unbind(names ...string) (*Graph, error) {
	merged := g.Bindings()
	for _, n := range names {
		delete(merged, n)
	}
	return g.rebuild(merged, g.selection, g.entrypointOverride)
}

// Select narrows the graph's externally visible outputs, dropping any node
// that contributes to none of them.
func (g *Graph) Select(outputs ...string) (*Graph, error) {
	for _, o := range outputs {
		if len(g.producers[o]) == 0 {
			return nil, cfgErr("select: no node produces output \""+o+"\"", "check the output name")
		}
	}
	return g.rebuild(g.Bindings(), append([]string{}, outputs...), g.entrypointOverride)
}

// WithEntrypoint disambiguates which node starts a cycle by dropping the
// ancestors of the named node from the active subgraph; ancestors that share
// a cycle with the named node stay active.
func (g *Graph) WithEntrypoint(name string) (*Graph, error) {
	if _, ok := g.nodes[name]; !ok {
		return nil, cfgErr("with_entrypoint: unknown node "+name, "pass an existing node name")
	}
	return g.rebuild(g.Bindings(), g.selection, name)
}

// rebuild re-runs New with this graph's original node set and the given
// narrowing parameters, since every transformation is a pure re-derivation
// rather than a mutation.
func (g *Graph) rebuild(bindings map[string]any, selection []string, entrypoint string) (*Graph, error) {
	nodes := make([]node.Node, len(g.order))
	for i, name := range g.order {
		nodes[i] = g.nodes[name]
	}
	opts := []Option{WithName(g.name), WithStrictTypes(g.strict)}
	if len(selection) > 0 {
		opts = append(opts, WithSelection(selection...))
	}
	if entrypoint != "" {
		opts = append(opts, WithEntrypointOverride(entrypoint))
	}
	if len(g.typeAnnotations) > 0 {
		opts = append(opts, WithTypeAnnotations(g.typeAnnotations))
	}
	if len(bindings) > 0 {
		opts = append(opts, withBindings(bindings))
	}
	return New(nodes, opts...)
}
