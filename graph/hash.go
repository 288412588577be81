package graph

import (
	"sort"

	"github.com/gilad-rubin/hypergraph-sub004/hgid"
)

// computeDefinitionHash hashes the graph's structural shape only: its node
// set (by name and each node's own DefinitionHash) plus its data-edge set.
// Bindings, selection, and entrypoint overrides are deliberately excluded;
// they are per-derivation narrowing, not structure, so two derivations of
// the same graph always agree on identity.
func computeDefinitionHash(g *Graph) (string, error) {
	names := g.SortedNodeNames()

	parts := []hgid.HashPart{hgid.Str("graph"), hgid.Str(g.name)}
	for _, name := range names {
		n := g.nodes[name]
		nh, err := n.DefinitionHash()
		if err != nil {
			return "", err
		}
		parts = append(parts, hgid.Str("node"), hgid.Str(name), hgid.Str(nh))
	}

	for _, producer := range names {
		consumers := append([]string{}, g.adjacency[producer]...)
		sort.Strings(consumers)
		for _, consumer := range consumers {
			parts = append(parts, hgid.Str("edge"), hgid.Str(producer), hgid.Str(consumer))
		}
	}

	return hgid.HashDefinition(parts...), nil
}
