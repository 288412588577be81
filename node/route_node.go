package node

import (
	"context"
	"errors"

	"github.com/gilad-rubin/hypergraph-sub004/hgid"
)

// RouteFn decides where execution continues. It may return a single
// target identifier, hgid.End, or an empty string (meaning "no decision,
// use fallback"). Multi-target decisions use RouteFnMulti instead.
type RouteFn func(ctx context.Context, in Values) (string, error)

// RouteFnMulti is the multi-target decision function: it returns the set of
// targets that should activate this superstep.
type RouteFnMulti func(ctx context.Context, in Values) ([]string, error)

// RouteNode wraps a pure decision function selecting among declared
// targets, the hgid.End sentinel, or (when MultiTarget) several targets at
// once. NewIfElse builds the binary
// specialization on top of this same type: targets []{whenTrue, whenFalse}
// with a RouteFn that maps the wrapped bool-returning function's result.
type RouteNode struct {
	name    string
	inputs  []string
	outputs []string // always empty for gates

	targets     []string
	fn          RouteFn
	fnMulti     RouteFnMulti
	multiTarget bool
	fallback    string
	defaultOpen bool
	cacheFlag   bool

	definitionKey string
	history       []RenameEntry
	nextBatch     int
}

// RouteOption configures a RouteNode at construction.
type RouteOption func(*RouteNode)

// WithFallback sets the target used when the decision function returns "".
func WithFallback(target string) RouteOption {
	return func(n *RouteNode) { n.fallback = target }
}

// WithDefaultOpen controls whether this gate's targets may fire
// preemptively before the gate itself has run in the current generation.
// Defaults to true.
func WithDefaultOpen(open bool) RouteOption {
	return func(n *RouteNode) { n.defaultOpen = open }
}

// WithRouteCache opts this gate's decision into caching by consumed input
// versions.
func WithRouteCache(enabled bool) RouteOption {
	return func(n *RouteNode) { n.cacheFlag = enabled }
}

// WithRouteDefinitionKey supplies an explicit identity for this gate's
// decision function (see hgid.DefinitionKeyOrHash).
func WithRouteDefinitionKey(key string) RouteOption {
	return func(n *RouteNode) { n.definitionKey = key }
}

// NewRoute constructs an n-way gate. defaultOpen defaults to true unless
// WithDefaultOpen(false) is supplied.
func NewRoute(name string, inputs []string, targets []string, fn RouteFn, opts ...RouteOption) (*RouteNode, error) {
	if err := hgid.ValidateIdentifier(name); err != nil {
		return nil, err
	}
	for _, t := range targets {
		if t == name {
			return nil, errors.New("route: gate may not target itself")
		}
	}
	n := &RouteNode{
		name:        name,
		inputs:      append([]string{}, inputs...),
		targets:     append([]string{}, targets...),
		fn:          fn,
		defaultOpen: true,
	}
	for _, o := range opts {
		o(n)
	}
	return n, nil
}

// NewRouteMulti constructs a multi-target gate: every listed target
// returned by fn activates this superstep.
func NewRouteMulti(name string, inputs []string, targets []string, fn RouteFnMulti, opts ...RouteOption) (*RouteNode, error) {
	rn, err := NewRoute(name, inputs, targets, nil, opts...)
	if err != nil {
		return nil, err
	}
	rn.fnMulti = fn
	rn.multiTarget = true
	return rn, nil
}

// IfElseFn is the binary decision function: it must return strictly true or
// false.
type IfElseFn func(ctx context.Context, in Values) (bool, error)

// NewIfElse constructs the binary specialization of RouteNode, with targets
// []{whenTrue, whenFalse}.
func NewIfElse(name string, inputs []string, whenTrue, whenFalse string, fn IfElseFn, opts ...RouteOption) (*RouteNode, error) {
	wrapped := func(ctx context.Context, in Values) (string, error) {
		v, err := fn(ctx, in)
		if err != nil {
			return "", err
		}
		if v {
			return whenTrue, nil
		}
		return whenFalse, nil
	}
	return NewRoute(name, inputs, []string{whenTrue, whenFalse}, wrapped, opts...)
}

func (n *RouteNode) Name() string      { return n.name }
func (n *RouteNode) Inputs() []string  { return n.inputs }
func (n *RouteNode) Outputs() []string { return nil }
func (n *RouteNode) Kind() Kind        { return KindRoute }
func (n *RouteNode) IsAsync() bool     { return false }
func (n *RouteNode) IsGenerator() bool { return false }
func (n *RouteNode) RenameHistory() []RenameEntry { return n.history }

// Targets returns the declared, ordered target set (node names or
// hgid.End).
func (n *RouteNode) Targets() []string { return n.targets }

// MultiTarget reports whether this gate may activate several targets at
// once.
func (n *RouteNode) MultiTarget() bool { return n.multiTarget }

// Fallback returns the target used when the decision function returns "".
func (n *RouteNode) Fallback() string { return n.fallback }

// DefaultOpen reports whether downstream targets may run before this gate
// has fired in the current generation.
func (n *RouteNode) DefaultOpen() bool { return n.defaultOpen }

// Cache reports whether this gate's decisions are cache-eligible.
func (n *RouteNode) Cache() bool { return n.cacheFlag }

func (n *RouteNode) DefinitionHash() (string, error) {
	parts := []hgid.HashPart{hgid.Str("route"), hgid.Str(n.name)}
	for _, t := range n.targets {
		parts = append(parts, hgid.Str(t))
	}
	parts = append(parts, hgid.Bool(n.multiTarget), hgid.Str(n.fallback), hgid.Bool(n.defaultOpen), hgid.Bool(n.cacheFlag))
	return hgid.DefinitionKeyOrHash(n.definitionKey, parts...)
}

// Decide runs the wrapped decision function and validates its result
// against the declared targets/fallback, returning the resolved target
// list: one target unless MultiTarget, or nil when the decision function
// returns "" and no fallback is set.
func (n *RouteNode) Decide(ctx context.Context, in Values) ([]string, error) {
	if n.multiTarget {
		ts, err := n.fnMulti(ctx, in)
		if err != nil {
			return nil, err
		}
		for _, t := range ts {
			if !n.isValidTarget(t) {
				return nil, errors.New("route " + n.name + ": undeclared target " + t)
			}
		}
		return ts, nil
	}
	t, err := n.fn(ctx, in)
	if err != nil {
		return nil, err
	}
	if t == "" {
		if n.fallback != "" {
			t = n.fallback
		} else {
			return nil, nil
		}
	}
	if !n.isValidTarget(t) {
		return nil, errors.New("route " + n.name + ": undeclared target " + t)
	}
	return []string{t}, nil
}

func (n *RouteNode) isValidTarget(t string) bool {
	if t == hgid.End {
		return true
	}
	for _, d := range n.targets {
		if d == t {
			return true
		}
	}
	return false
}

// Call implements node.Node for RouteNode by invoking Decide and returning
// no data outputs. The engine reads the decision via Decide directly during
// the activation phase instead of through Call; Call exists only so
// RouteNode satisfies Node for graph membership/type-switch symmetry.
func (n *RouteNode) Call(ctx context.Context, in Values) (CallResult, error) {
	if _, err := n.Decide(ctx, in); err != nil {
		return CallResult{}, err
	}
	return CallResult{Outputs: Values{}}, nil
}

func (n *RouteNode) WithName(newName string) (Node, error) {
	if err := hgid.ValidateIdentifier(newName); err != nil {
		return nil, err
	}
	if err := resolveRename(n.history, "name", n.name); err != nil {
		return nil, err
	}
	cp := n.clone()
	cp.history = append(cp.history, RenameEntry{Kind: "name", Old: n.name, New: newName, BatchID: n.nextBatch})
	cp.nextBatch++
	cp.name = newName
	return cp, nil
}

func (n *RouteNode) WithInputs(mapping map[string]string) (Node, error) {
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
	cp.inputs = newInputs
	return cp, nil
}

// WithOutputs is a no-op-producing error for gates: they declare no
// outputs, so renaming one is always a usage error.
func (n *RouteNode) WithOutputs(mapping map[string]string) (Node, error) {
	if len(mapping) == 0 {
		return n, nil
	}
	return nil, errors.New("route " + n.name + ": gates declare no outputs to rename")
}

func (n *RouteNode) clone() *RouteNode {
	cp := *n
	cp.inputs = append([]string{}, n.inputs...)
	cp.targets = append([]string{}, n.targets...)
	cp.history = append([]RenameEntry{}, n.history...)
	return &cp
}
