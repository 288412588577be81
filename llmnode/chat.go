package llmnode

import (
	"context"
	"fmt"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// config collects NewChat's construction options.
type config struct {
	inputName  string
	outputName string
	defKey     string
}

// Option configures one aspect of NewChat's wiring.
type Option func(*config)

// WithMessagesInput overrides the declared input name (default "messages").
func WithMessagesInput(name string) Option { return func(c *config) { c.inputName = name } }

// WithResponseOutput overrides the declared output name (default "response").
func WithResponseOutput(name string) Option { return func(c *config) { c.outputName = name } }

// WithDefinitionKey supplies a stable identity for cache/persistence, since
// the wrapped provider's Chat method can't be hashed structurally.
func WithDefinitionKey(key string) Option { return func(c *config) { c.defKey = key } }

// NewChat wraps provider as a function-node with declared input
// "messages" and declared output "response".
func NewChat(name string, provider ChatProvider, opts ...Option) (*node.FunctionNode, error) {
	c := &config{inputName: "messages", outputName: "response"}
	for _, o := range opts {
		o(c)
	}

	fnOpts := []node.FunctionOption{}
	if c.defKey != "" {
		fnOpts = append(fnOpts, node.WithDefinitionKey(c.defKey))
	}

	return node.NewFunction(name, []string{c.inputName}, []string{c.outputName},
		func(ctx context.Context, in node.Values) (node.Values, error) {
			raw, ok := in[c.inputName]
			if !ok {
				return nil, fmt.Errorf("llmnode %q: missing input %q", name, c.inputName)
			}
			messages, err := toMessages(raw)
			if err != nil {
				return nil, fmt.Errorf("llmnode %q: %w", name, err)
			}
			text, err := provider.Chat(ctx, messages)
			if err != nil {
				return nil, err
			}
			return node.Values{c.outputName: text}, nil
		}, fnOpts...)
}

func toMessages(raw any) ([]Message, error) {
	switch v := raw.(type) {
	case []Message:
		return v, nil
	case []any:
		out := make([]Message, 0, len(v))
		for _, item := range v {
			m, ok := item.(Message)
			if !ok {
				return nil, fmt.Errorf("messages: expected llmnode.Message, got %T", item)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("messages: expected []llmnode.Message, got %T", raw)
	}
}
