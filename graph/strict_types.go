package graph

import "github.com/gilad-rubin/hypergraph-sub004/hgtype"

// typeKey identifies one declared parameter (shared by both ends of an
// edge, since the producer's output name and the consumer's input name are
// the same identifier by construction).
func typeKey(nodeName, param string) string { return nodeName + "." + param }

// WithTypeAnnotations declares the hgtype.Type for specific node parameters,
// consulted only when WithStrictTypes(true) is also supplied. Keys are
// "<nodeName>.<paramName>". Parameters with no entry default to hgtype.Any{}
// when strict types are off, and are a build-time error when strict types
// are on: a strict-types edge with a missing annotation is rejected, not
// warned about.
func WithTypeAnnotations(types map[string]hgtype.Type) Option {
	return func(c *buildConfig) { c.typeAnnotations = types }
}

// validateStrictTypes checks every data edge under strict mode, wrapping a
// map_over producer's output type as a list before delegating to
// hgtype.Compatible.
func (g *Graph) validateStrictTypes() error {
	for producer, consumers := range g.adjacency {
		pNode := g.nodes[producer]
		for _, out := range pNode.Outputs() {
			if g.producers[out] == nil || !containsStr(g.producers[out], producer) {
				continue
			}
			outType, hasOut := g.declaredType(producer, out)
			if !hasOut {
				return cfgErr("node "+producer+" output \""+out+"\" has no declared type under strict_types", "declare it via WithTypeAnnotations or disable strict_types")
			}
			if gn, ok := pNode.(*GraphNode); ok && gn.mapOver != nil {
				outType = hgtype.ListOf{Elem: outType}
			}
			for _, consumer := range consumers {
				cNode := g.nodes[consumer]
				if !hasInput(cNode, out) {
					continue
				}
				inType, hasIn := g.declaredType(consumer, out)
				if !hasIn {
					return cfgErr("node "+consumer+" input \""+out+"\" has no declared type under strict_types", "declare it via WithTypeAnnotations or disable strict_types")
				}
				if r := hgtype.Compatible(outType, inType); !r.OK {
					return cfgErr(
						"edge "+producer+" -> "+consumer+" on \""+out+"\": "+outType.String()+" is not compatible with "+inType.String()+": "+r.Reason,
						"adjust the declared types or insert an adapter node",
					)
				}
			}
		}
	}
	return nil
}

func (g *Graph) declaredType(nodeName, param string) (hgtype.Type, bool) {
	t, ok := g.typeAnnotations[typeKey(nodeName, param)]
	return t, ok
}

func hasInput(n interface{ Inputs() []string }, name string) bool {
	for _, in := range n.Inputs() {
		if in == name {
			return true
		}
	}
	return false
}
