package node

import (
	"context"

	"github.com/gilad-rubin/hypergraph-sub004/hgtype"

	"github.com/gilad-rubin/hypergraph-sub004/hgid"
)

// HandlerFn resolves an interrupt automatically instead of pausing. When
// set, the interrupt never surfaces to the caller.
type HandlerFn func(ctx context.Context, value any) (any, error)

// InterruptNode is a declarative human-in-the-loop pause point: exactly one
// input (the value surfaced to the caller) and exactly one output (the
// response injected on resume). Never cached.
type InterruptNode struct {
	name         string
	inputParam   string
	outputParam  string
	responseType hgtype.Type // optional, nil if undeclared
	handler      HandlerFn

	history   []RenameEntry
	nextBatch int
}

// InterruptOption configures an InterruptNode at construction.
type InterruptOption func(*InterruptNode)

// WithResponseType declares the expected type of the injected response,
// consulted only when the owning graph has strict type checking enabled.
func WithResponseType(t hgtype.Type) InterruptOption {
	return func(n *InterruptNode) { n.responseType = t }
}

// WithHandler pre-binds an automatic resolver: the interrupt never pauses,
// it simply invokes handler synchronously/asynchronously and produces its
// output immediately.
func WithHandler(handler HandlerFn) InterruptOption {
	return func(n *InterruptNode) { n.handler = handler }
}

// NewInterrupt constructs an interrupt node.
func NewInterrupt(name, inputParam, outputParam string, opts ...InterruptOption) (*InterruptNode, error) {
	if err := hgid.ValidateIdentifier(name); err != nil {
		return nil, err
	}
	if err := hgid.ValidateIdentifier(inputParam); err != nil {
		return nil, err
	}
	if err := hgid.ValidateIdentifier(outputParam); err != nil {
		return nil, err
	}
	n := &InterruptNode{name: name, inputParam: inputParam, outputParam: outputParam}
	for _, o := range opts {
		o(n)
	}
	return n, nil
}

func (n *InterruptNode) Name() string            { return n.name }
func (n *InterruptNode) Inputs() []string        { return []string{n.inputParam} }
func (n *InterruptNode) Outputs() []string       { return []string{n.outputParam} }
func (n *InterruptNode) Kind() Kind              { return KindInterrupt }
func (n *InterruptNode) IsAsync() bool           { return false }
func (n *InterruptNode) IsGenerator() bool       { return false }
func (n *InterruptNode) RenameHistory() []RenameEntry { return n.history }
func (n *InterruptNode) ResponseType() hgtype.Type { return n.responseType }
func (n *InterruptNode) HasHandler() bool        { return n.handler != nil }

// DefinitionHash excludes the handler: identity is about the pause point,
// not its resolver.
func (n *InterruptNode) DefinitionHash() (string, error) {
	return hgid.HashDefinition(hgid.Str("interrupt"), hgid.Str(n.name), hgid.Str(n.inputParam), hgid.Str(n.outputParam)), nil
}

// Call either resolves via the auto-handler or returns a Pause request
// carrying the surfaced value and the response key the caller must use to
// resume.
func (n *InterruptNode) Call(ctx context.Context, in Values) (CallResult, error) {
	value := in[n.inputParam]
	if n.handler != nil {
		resp, err := n.handler(ctx, value)
		if err != nil {
			return CallResult{}, err
		}
		return CallResult{Outputs: Values{n.outputParam: resp}}, nil
	}
	return CallResult{Pause: &PauseRequest{Value: value, ResponseKey: n.name}}, nil
}

func (n *InterruptNode) WithName(newName string) (Node, error) {
	if err := hgid.ValidateIdentifier(newName); err != nil {
		return nil, err
	}
	if err := resolveRename(n.history, "name", n.name); err != nil {
		return nil, err
	}
	cp := *n
	cp.history = append(append([]RenameEntry{}, n.history...), RenameEntry{Kind: "name", Old: n.name, New: newName, BatchID: n.nextBatch})
	cp.nextBatch = n.nextBatch + 1
	cp.name = newName
	return &cp, nil
}

func (n *InterruptNode) WithInputs(mapping map[string]string) (Node, error) {
	neu, ok := mapping[n.inputParam]
	if !ok {
		return n, nil
	}
	if err := hgid.ValidateIdentifier(neu); err != nil {
		return nil, err
	}
	if err := resolveRename(n.history, "input", n.inputParam); err != nil {
		return nil, err
	}
	cp := *n
	cp.history = append(append([]RenameEntry{}, n.history...), RenameEntry{Kind: "input", Old: n.inputParam, New: neu, BatchID: n.nextBatch})
	cp.nextBatch = n.nextBatch + 1
	cp.inputParam = neu
	return &cp, nil
}

func (n *InterruptNode) WithOutputs(mapping map[string]string) (Node, error) {
	neu, ok := mapping[n.outputParam]
	if !ok {
		return n, nil
	}
	if err := hgid.ValidateIdentifier(neu); err != nil {
		return nil, err
	}
	if err := resolveRename(n.history, "output", n.outputParam); err != nil {
		return nil, err
	}
	cp := *n
	cp.history = append(append([]RenameEntry{}, n.history...), RenameEntry{Kind: "output", Old: n.outputParam, New: neu, BatchID: n.nextBatch})
	cp.nextBatch = n.nextBatch + 1
	cp.outputParam = neu
	return &cp, nil
}
