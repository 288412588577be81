package node

import (
	"context"

	"github.com/gilad-rubin/hypergraph-sub004/hgid"
)

// Fn is the shape of a user callable wrapped by a FunctionNode. It receives
// the node's canonical input names already resolved to values and returns
// the node's declared outputs by canonical name.
type Fn func(ctx context.Context, in Values) (Values, error)

// FunctionNode wraps one user callable. Its Inputs are the callable's
// parameter names (after rename); its Outputs are user-declared. Emit/wait
// lists are ordering-only edges carrying no value: they affect readiness,
// never value resolution.
type FunctionNode struct {
	name    string
	inputs  []string
	outputs []string
	fn      Fn

	defaults map[string]any // inputs with a caller-declared default value

	cache bool
	emit  []string // output-side ordering signals this node raises on completion
	wait  []string // ordering-only inputs this node must wait on before running

	isAsync     bool
	isGenerator bool

	definitionKey string // explicit identity; see hgid.DefinitionKeyOrHash
	history       []RenameEntry
	nextBatch     int
}

// FunctionOption configures a FunctionNode at construction time.
type FunctionOption func(*FunctionNode)

// WithDefaults declares default values for some of the node's inputs. A
// parameter with a declared producer elsewhere in the graph is still
// edge-fed regardless of its default (the edge cancels the default).
func WithDefaults(defaults map[string]any) FunctionOption {
	return func(n *FunctionNode) { n.defaults = defaults }
}

// WithCache opts this node into cache-backed execution.
func WithCache(enabled bool) FunctionOption {
	return func(n *FunctionNode) { n.cache = enabled }
}

// WithEmit declares ordering-only output signals this node raises.
func WithEmit(signals ...string) FunctionOption {
	return func(n *FunctionNode) { n.emit = signals }
}

// WithWaitFor declares ordering-only inputs this node waits on.
func WithWaitFor(signals ...string) FunctionOption {
	return func(n *FunctionNode) { n.wait = signals }
}

// WithAsync marks the wrapped callable as asynchronous: the concurrent
// runner may schedule it without blocking a worker slot for its full
// duration (see engine package); the sequential runner rejects a graph
// containing an async node (IncompatibleRunnerError).
func WithAsync(async bool) FunctionOption {
	return func(n *FunctionNode) { n.isAsync = async }
}

// WithGenerator marks the wrapped callable as a streaming generator: its
// yielded chunks are collected into the declared single output.
func WithGenerator(generator bool) FunctionOption {
	return func(n *FunctionNode) { n.isGenerator = generator }
}

// WithDefinitionKey supplies an explicit, stable identity for this node's
// callable, required for cache/persistence use across process restarts
// since Go cannot retrieve a function literal's source text.
func WithDefinitionKey(key string) FunctionOption {
	return func(n *FunctionNode) { n.definitionKey = key }
}

// NewFunction constructs a function-node. inputs/outputs must each be valid,
// duplicate-free identifiers.
func NewFunction(name string, inputs, outputs []string, fn Fn, opts ...FunctionOption) (*FunctionNode, error) {
	if err := hgid.ValidateIdentifier(name); err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if err := hgid.ValidateIdentifier(in); err != nil {
			return nil, err
		}
	}
	for _, out := range outputs {
		if err := hgid.ValidateIdentifier(out); err != nil {
			return nil, err
		}
	}
	if err := dedupe(inputs); err != nil {
		return nil, err
	}
	if err := dedupe(outputs); err != nil {
		return nil, err
	}
	n := &FunctionNode{name: name, inputs: append([]string{}, inputs...), outputs: append([]string{}, outputs...), fn: fn}
	for _, o := range opts {
		o(n)
	}
	return n, nil
}

func (n *FunctionNode) Name() string           { return n.name }
func (n *FunctionNode) Inputs() []string       { return n.inputs }
func (n *FunctionNode) Outputs() []string      { return n.outputs }
func (n *FunctionNode) Kind() Kind             { return KindFunction }
func (n *FunctionNode) IsAsync() bool          { return n.isAsync }
func (n *FunctionNode) IsGenerator() bool      { return n.isGenerator }
func (n *FunctionNode) RenameHistory() []RenameEntry { return n.history }
func (n *FunctionNode) Cache() bool            { return n.cache }
func (n *FunctionNode) Emit() []string         { return n.emit }
func (n *FunctionNode) WaitFor() []string      { return n.wait }

// Default returns the declared default for input p, if any.
func (n *FunctionNode) Default(p string) (any, bool) {
	if n.defaults == nil {
		return nil, false
	}
	v, ok := n.defaults[p]
	return v, ok
}

func (n *FunctionNode) DefinitionHash() (string, error) {
	parts := []hgid.HashPart{
		hgid.Str("function"),
		hgid.Str(n.name),
	}
	for _, o := range n.outputs {
		parts = append(parts, hgid.Str(o))
	}
	for _, e := range n.history {
		parts = append(parts, hgid.Str(e.Kind), hgid.Str(e.Old), hgid.Str(e.New))
	}
	parts = append(parts, hgid.Bool(n.cache))
	for _, s := range n.emit {
		parts = append(parts, hgid.Str("emit:"+s))
	}
	for _, s := range n.wait {
		parts = append(parts, hgid.Str("wait:"+s))
	}
	return hgid.DefinitionKeyOrHash(n.definitionKey, parts...)
}

func (n *FunctionNode) Call(ctx context.Context, in Values) (CallResult, error) {
	out, err := n.fn(ctx, in)
	if err != nil {
		return CallResult{}, err
	}
	return CallResult{Outputs: out}, nil
}

func (n *FunctionNode) WithName(newName string) (Node, error) {
	if err := hgid.ValidateIdentifier(newName); err != nil {
		return nil, err
	}
	if err := resolveRename(n.history, "name", n.name); err != nil {
		return nil, err
	}
	cp := n.clone()
	cp.history = append(append([]RenameEntry{}, n.history...), RenameEntry{Kind: "name", Old: n.name, New: newName, BatchID: n.nextBatch})
	cp.nextBatch = n.nextBatch + 1
	cp.name = newName
	return cp, nil
}

func (n *FunctionNode) WithInputs(mapping map[string]string) (Node, error) {
	cp := n.clone()
	batch := n.nextBatch
	cp.nextBatch = batch + 1
	newInputs := append([]string{}, n.inputs...)
	for old, neu := range mapping {
		if err := hgid.ValidateIdentifier(neu); err != nil {
			return nil, err
		}
		if err := resolveRename(n.history, "input", old); err != nil {
			return nil, err
		}
		idx := indexOf(newInputs, old)
		if idx < 0 {
			return nil, &RenameError{Requested: old}
		}
		newInputs[idx] = neu
		cp.history = append(cp.history, RenameEntry{Kind: "input", Old: old, New: neu, BatchID: batch})
	}
	if err := dedupe(newInputs); err != nil {
		return nil, err
	}
	cp.inputs = newInputs
	return cp, nil
}

func (n *FunctionNode) WithOutputs(mapping map[string]string) (Node, error) {
	cp := n.clone()
	batch := n.nextBatch
	cp.nextBatch = batch + 1
	newOutputs := append([]string{}, n.outputs...)
	for old, neu := range mapping {
		if err := hgid.ValidateIdentifier(neu); err != nil {
			return nil, err
		}
		if err := resolveRename(n.history, "output", old); err != nil {
			return nil, err
		}
		idx := indexOf(newOutputs, old)
		if idx < 0 {
			return nil, &RenameError{Requested: old}
		}
		newOutputs[idx] = neu
		cp.history = append(cp.history, RenameEntry{Kind: "output", Old: old, New: neu, BatchID: batch})
	}
	if err := dedupe(newOutputs); err != nil {
		return nil, err
	}
	cp.outputs = newOutputs
	return cp, nil
}

func (n *FunctionNode) clone() *FunctionNode {
	cp := *n
	cp.inputs = append([]string{}, n.inputs...)
	cp.outputs = append([]string{}, n.outputs...)
	cp.history = append([]RenameEntry{}, n.history...)
	return &cp
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
