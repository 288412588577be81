package engine

import (
	"fmt"
	"sort"

	"github.com/gilad-rubin/hypergraph-sub004/hgid"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// inputDigest canonicalizes a node's resolved inputs into a stable digest
// for cache-key lookups. Values are rendered with fmt's %v,
// which is stable for the comparable/printable types this corpus's node
// functions are expected to exchange.
func inputDigest(in node.Values) string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]hgid.HashPart, 0, len(keys)*2)
	for _, k := range keys {
		parts = append(parts, hgid.Str(k), hgid.Str(fmt.Sprintf("%v", in[k])))
	}
	return hgid.HashDefinition(parts...)
}
