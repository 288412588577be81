package graph

import (
	"context"

	"github.com/gilad-rubin/hypergraph-sub004/hgid"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// MapOver configures batch execution of a nested graph over one or more list
// parameters.
type MapOver struct {
	Params        []string // which of the inner graph's required/optional inputs are iterated
	Mode          string   // "zip" or "product"
	ErrorHandling string   // "raise" or "continue"
}

// GraphNode is the fourth node kind: a nested Graph exposed as a single Node
// to an outer graph. It lives in this package, not package node, so that
// package node never needs to import package graph.
type GraphNode struct {
	inner   *Graph
	name    string
	inputs  []string
	outputs []string
	mapOver *MapOver

	definitionKey string
	history       []node.RenameEntry
	nextBatch     int
}

// AsNode exposes g as a single Node under g's own name, whose Inputs are g's
// required+optional input-spec parameters and whose Outputs are g's
// selection (or every node's outputs, if no selection was applied).
// g must be named via WithName.
func (g *Graph) AsNode(opts ...GraphNodeOption) (node.Node, error) {
	if g.name == "" {
		return nil, cfgErr("AsNode: graph has no name", "construct it with WithName first")
	}
	spec := g.InputSpec()
	inputs := append(append([]string{}, spec.Required...), spec.Optional...)

	var outputs []string
	if len(g.selection) > 0 {
		outputs = append([]string{}, g.selection...)
	} else {
		seen := map[string]bool{}
		for _, name := range g.order {
			if !g.activeNodes[name] {
				continue
			}
			for _, o := range g.nodes[name].Outputs() {
				if !seen[o] {
					seen[o] = true
					outputs = append(outputs, o)
				}
			}
		}
	}

	gn := &GraphNode{inner: g, name: g.name, inputs: inputs, outputs: outputs}
	for _, o := range opts {
		o(gn)
	}
	return gn, nil
}

// GraphNodeOption configures a GraphNode at AsNode time.
type GraphNodeOption func(*GraphNode)

// WithMapOver wraps the nested graph's execution in zip/product batch
// semantics: every call iterates the named parameters together
// (mode "zip", requiring equal lengths) or over their cartesian product
// (mode "product"), collecting each output into a list.
func WithMapOver(mode, errorHandling string, params ...string) GraphNodeOption {
	return func(gn *GraphNode) {
		gn.mapOver = &MapOver{Params: params, Mode: mode, ErrorHandling: errorHandling}
	}
}

// WithGraphNodeDefinitionKey supplies an explicit identity for this nested
// graph node, used instead of the inner graph's own definition hash.
func WithGraphNodeDefinitionKey(key string) GraphNodeOption {
	return func(gn *GraphNode) { gn.definitionKey = key }
}

func (gn *GraphNode) Name() string      { return gn.name }
func (gn *GraphNode) Inputs() []string  { return append([]string{}, gn.inputs...) }
func (gn *GraphNode) Outputs() []string { return append([]string{}, gn.outputs...) }
func (gn *GraphNode) Kind() node.Kind   { return node.KindGraph }
func (gn *GraphNode) IsAsync() bool     { return gn.inner.hasAsyncNodes }
func (gn *GraphNode) IsGenerator() bool { return false }

// MapOverConfig returns the batch-execution configuration, or nil if this
// node runs its inner graph once per call.
func (gn *GraphNode) MapOverConfig() *MapOver { return gn.mapOver }

// Inner returns the wrapped graph, consulted by the engine to recursively
// run a nested run.
func (gn *GraphNode) Inner() *Graph { return gn.inner }

func (gn *GraphNode) RenameHistory() []node.RenameEntry { return gn.history }

func (gn *GraphNode) DefinitionHash() (string, error) {
	parts := []hgid.HashPart{hgid.Str("graphnode"), hgid.Str(gn.name), hgid.Str(gn.inner.DefinitionHash())}
	for _, e := range gn.history {
		parts = append(parts, hgid.Str(e.Kind), hgid.Str(e.Old), hgid.Str(e.New))
	}
	return hgid.DefinitionKeyOrHash(gn.definitionKey, parts...)
}

// Call never runs the inner graph: it always returns a configuration error.
// The engine executes a GraphNode itself, once or per map_over batch, by
// calling Inner()/MapOverConfig() directly.
func (gn *GraphNode) Call(ctx context.Context, in node.Values) (node.CallResult, error) {
	return node.CallResult{}, cfgErr(
		"GraphNode "+gn.name+" cannot be called directly",
		"run it through the engine, which drives nested-graph execution via Inner()",
	)
}

func (gn *GraphNode) WithName(newName string) (node.Node, error) {
	if err := hgid.ValidateIdentifier(newName); err != nil {
		return nil, err
	}
	cp := gn.clone()
	cp.history = append(cp.history, node.RenameEntry{Kind: "name", Old: gn.name, New: newName, BatchID: gn.nextBatch})
	cp.nextBatch = gn.nextBatch + 1
	cp.name = newName
	return cp, nil
}

func (gn *GraphNode) WithInputs(mapping map[string]string) (node.Node, error) {
	cp := gn.clone()
	batch := gn.nextBatch
	cp.nextBatch = batch + 1
	newInputs := append([]string{}, gn.inputs...)
	for old, neu := range mapping {
		if err := hgid.ValidateIdentifier(neu); err != nil {
			return nil, err
		}
		idx := indexOfStr(newInputs, old)
		if idx < 0 {
			return nil, &node.RenameError{Requested: old}
		}
		newInputs[idx] = neu
		cp.history = append(cp.history, node.RenameEntry{Kind: "input", Old: old, New: neu, BatchID: batch})
	}
	cp.inputs = newInputs
	return cp, nil
}

func (gn *GraphNode) WithOutputs(mapping map[string]string) (node.Node, error) {
	cp := gn.clone()
	batch := gn.nextBatch
	cp.nextBatch = batch + 1
	newOutputs := append([]string{}, gn.outputs...)
	for old, neu := range mapping {
		if err := hgid.ValidateIdentifier(neu); err != nil {
			return nil, err
		}
		idx := indexOfStr(newOutputs, old)
		if idx < 0 {
			return nil, &node.RenameError{Requested: old}
		}
		newOutputs[idx] = neu
		cp.history = append(cp.history, node.RenameEntry{Kind: "output", Old: old, New: neu, BatchID: batch})
	}
	cp.outputs = newOutputs
	return cp, nil
}

func (gn *GraphNode) clone() *GraphNode {
	cp := *gn
	cp.inputs = append([]string{}, gn.inputs...)
	cp.outputs = append([]string{}, gn.outputs...)
	cp.history = append([]node.RenameEntry{}, gn.history...)
	return &cp
}

func indexOfStr(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
