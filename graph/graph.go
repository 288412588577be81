package graph

import (
	"sort"

	"github.com/gilad-rubin/hypergraph-sub004/hgid"
	"github.com/gilad-rubin/hypergraph-sub004/hgtype"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// InputSpec classifies every parameter of every active node into exactly
// one of {edge-fed, required, optional, bound, cycle-entrypoint}.
type InputSpec struct {
	Required    []string
	Optional    []string
	Entrypoints map[string][]string // node name -> cycle-entry param names
	Bound       map[string]any
}

// Graph is the immutable, validated result of New. All transformations
// (Bind, Unbind, Select, WithEntrypoint, AsNode) return a new Graph/Node
// rather than mutating the receiver.
type Graph struct {
	name    string
	nodes   map[string]node.Node
	order   []string // insertion order, for stable output
	strict  bool

	bindings            map[string]any
	selection           []string
	entrypointOverride  string

	// producers maps an output name to the single node producing it, or to
	// the set of nodes producing it when they are proven mutex (sharing a
	// single-target gate's targets).
	producers map[string][]string

	// adjacency holds data edges: producer node -> consumer node names.
	adjacency map[string][]string

	// gateTargets maps a gate node name to its declared targets (node names
	// or hgid.End), used for reachability/activation and mutex inference.
	gateTargets map[string][]string

	cycleNodes map[string]bool // nodes participating in some cycle

	activeNodes map[string]bool // nodes in the active subgraph after narrowing
	inputSpec   InputSpec

	definitionHash string
	hasAsyncNodes  bool

	typeAnnotations map[string]hgtype.Type
}

// Option configures Graph construction.
type Option func(*buildConfig)

type buildConfig struct {
	name               string
	strict             bool
	selection          []string
	entrypointOverride string
	typeAnnotations    map[string]hgtype.Type
	bindings           map[string]any
}

// WithName names the graph, required to nest it as a node via AsNode.
func WithName(name string) Option {
	return func(c *buildConfig) { c.name = name }
}

// WithStrictTypes enables build-time type checking across every edge.
func WithStrictTypes(strict bool) Option {
	return func(c *buildConfig) { c.strict = strict }
}

// WithSelection narrows the externally visible outputs (and the reachable
// subgraph) to the given output names.
func WithSelection(outputs ...string) Option {
	return func(c *buildConfig) { c.selection = outputs }
}

// WithEntrypointOverride disambiguates which node starts a cycle.
func WithEntrypointOverride(name string) Option {
	return func(c *buildConfig) { c.entrypointOverride = name }
}

// withBindings seeds bound parameter values at construction time, so
// computeInputSpec classifies them before the graph is ever returned. It is
// unexported: bindings are only ever set internally, via Bind/rebuild.
func withBindings(values map[string]any) Option {
	return func(c *buildConfig) { c.bindings = values }
}

// New validates nodes into an immutable Graph.
func New(nodes []node.Node, opts ...Option) (*Graph, error) {
	cfg := &buildConfig{}
	for _, o := range opts {
		o(cfg)
	}

	g := &Graph{
		name:                cfg.name,
		nodes:               make(map[string]node.Node, len(nodes)),
		strict:              cfg.strict,
		bindings:            cfg.bindings,
		selection:           append([]string{}, cfg.selection...),
		entrypointOverride:  cfg.entrypointOverride,
		producers:           map[string][]string{},
		adjacency:           map[string][]string{},
		gateTargets:         map[string][]string{},
		cycleNodes:          map[string]bool{},
		typeAnnotations:     cfg.typeAnnotations,
	}
	if g.typeAnnotations == nil {
		g.typeAnnotations = map[string]hgtype.Type{}
	}
	if g.bindings == nil {
		g.bindings = map[string]any{}
	}

	for _, n := range nodes {
		if err := hgid.ValidateIdentifier(n.Name()); err != nil {
			return nil, cfgErr("invalid node name "+n.Name(), "use a valid identifier")
		}
		if _, dup := g.nodes[n.Name()]; dup {
			return nil, cfgErr("duplicate node name "+n.Name(), "rename one of the nodes with WithName")
		}
		g.nodes[n.Name()] = n
		g.order = append(g.order, n.Name())
		if n.IsAsync() {
			g.hasAsyncNodes = true
		}
	}

	if err := g.validateIOIdentifiers(); err != nil {
		return nil, err
	}
	if err := g.inferProducers(); err != nil {
		return nil, err
	}
	if err := g.buildAdjacencyAndGates(); err != nil {
		return nil, err
	}
	if err := g.validateGateTargets(); err != nil {
		return nil, err
	}
	if err := g.validateConsistentDefaults(); err != nil {
		return nil, err
	}
	g.detectCycles()

	active, err := computeActiveSubgraph(g, g.selection, g.entrypointOverride)
	if err != nil {
		return nil, err
	}
	g.activeNodes = active

	spec, err := computeInputSpec(g, active)
	if err != nil {
		return nil, err
	}
	g.inputSpec = spec

	if cfg.strict {
		if err := g.validateStrictTypes(); err != nil {
			return nil, err
		}
	}

	g.definitionHash, err = computeDefinitionHash(g)
	if err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Graph) Name() string              { return g.name }
func (g *Graph) StrictTypes() bool         { return g.strict }
func (g *Graph) HasCycles() bool           { return len(g.cycleNodes) > 0 }
func (g *Graph) HasAsyncNodes() bool       { return g.hasAsyncNodes }
func (g *Graph) DefinitionHash() string    { return g.definitionHash }
func (g *Graph) InputSpec() InputSpec      { return g.inputSpec }
func (g *Graph) Bindings() map[string]any  { return cloneAny(g.bindings) }
func (g *Graph) Selection() []string       { return append([]string{}, g.selection...) }

// Node returns the node registered under name, if any.
func (g *Graph) Node(name string) (node.Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []node.Node {
	out := make([]node.Node, len(g.order))
	for i, name := range g.order {
		out[i] = g.nodes[name]
	}
	return out
}

// NodeNames returns node names in insertion order.
func (g *Graph) NodeNames() []string { return append([]string{}, g.order...) }

// SortedNodeNames returns node names sorted lexically, used for canonical
// hash computation independent of insertion order.
func (g *Graph) SortedNodeNames() []string {
	out := append([]string{}, g.order...)
	sort.Strings(out)
	return out
}

// Producers returns, for a given data output name, the node(s) that produce
// it (more than one only when proven mutex).
func (g *Graph) Producers(output string) []string { return append([]string{}, g.producers[output]...) }

// Consumers returns the nodes that declare input as one of their inputs.
func (g *Graph) Consumers(output string) []string {
	var out []string
	for _, name := range g.order {
		for _, in := range g.nodes[name].Inputs() {
			if in == output {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// GateTargets returns the declared targets of a gate node.
func (g *Graph) GateTargets(gateName string) []string {
	return append([]string{}, g.gateTargets[gateName]...)
}

// IsCycleNode reports whether name participates in a cycle.
func (g *Graph) IsCycleNode(name string) bool { return g.cycleNodes[name] }

// ActiveNodes returns the set of node names in the active subgraph given
// this graph's own selection/entrypoint-override narrowing (not any
// additional per-run narrowing).
func (g *Graph) ActiveNodes() map[string]bool {
	out := make(map[string]bool, len(g.activeNodes))
	for k, v := range g.activeNodes {
		out[k] = v
	}
	return out
}

func cloneAny(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (g *Graph) validateIOIdentifiers() error {
	allOutputs := map[string]string{} // output name -> a producing node
	for _, name := range g.order {
		n := g.nodes[name]
		for _, in := range n.Inputs() {
			if err := hgid.ValidateIdentifier(in); err != nil {
				return cfgErr("node "+name+": invalid input name "+in, "use a valid identifier")
			}
		}
		for _, out := range n.Outputs() {
			if err := hgid.ValidateIdentifier(out); err != nil {
				return cfgErr("node "+name+": invalid output name "+out, "use a valid identifier")
			}
			if out == hgid.End {
				return cfgErr("node "+name+" declares an output literally named END", "END is reserved")
			}
			allOutputs[out] = name
		}
	}
	for _, name := range g.order {
		if g.nodes[name].Kind() != node.KindGraph {
			continue
		}
		if producer, clash := allOutputs[name]; clash {
			return cfgErr(
				"nested graph node "+name+" collides with an output of node "+producer,
				"rename the nested graph or the output",
			)
		}
	}
	return nil
}
