// Package toolnode adapts an HTTP-callable tool into a function-node: a
// JSON request body assembled from the
// node's declared inputs, an HTTP call against a fixed URL, and the
// decoded JSON response surfaced as the node's declared output.
package toolnode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// config collects NewHTTPTool's construction options.
type config struct {
	method     string
	outputName string
	client     *http.Client
	header     map[string]string
	defKey     string
}

// Option configures one aspect of NewHTTPTool's wiring.
type Option func(*config)

// WithMethod overrides the HTTP method (default "POST").
func WithMethod(method string) Option { return func(c *config) { c.method = method } }

// WithResultOutput overrides the declared output name (default "result").
func WithResultOutput(name string) Option { return func(c *config) { c.outputName = name } }

// WithHTTPClient overrides the *http.Client used for the request.
func WithHTTPClient(client *http.Client) Option { return func(c *config) { c.client = client } }

// WithHeader adds a fixed request header applied to every call.
func WithHeader(key, value string) Option {
	return func(c *config) {
		if c.header == nil {
			c.header = map[string]string{}
		}
		c.header[key] = value
	}
}

// WithDefinitionKey supplies a stable identity for cache/persistence, since
// an HTTP round trip can't be hashed structurally.
func WithDefinitionKey(key string) Option { return func(c *config) { c.defKey = key } }

// NewHTTPTool wraps an HTTP JSON call as a function-node: declared inputs
// become the JSON request body fields, and the declared output (default
// "result") is the decoded JSON response body.
func NewHTTPTool(name, url string, inputs []string, opts ...Option) (*node.FunctionNode, error) {
	c := &config{method: http.MethodPost, outputName: "result", client: http.DefaultClient}
	for _, o := range opts {
		o(c)
	}

	fnOpts := []node.FunctionOption{}
	if c.defKey != "" {
		fnOpts = append(fnOpts, node.WithDefinitionKey(c.defKey))
	}

	return node.NewFunction(name, inputs, []string{c.outputName},
		func(ctx context.Context, in node.Values) (node.Values, error) {
			body := make(map[string]any, len(inputs))
			for _, p := range inputs {
				body[p] = in[p]
			}
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("toolnode %q: encode request: %w", name, err)
			}

			req, err := http.NewRequestWithContext(ctx, c.method, url, bytes.NewReader(payload))
			if err != nil {
				return nil, fmt.Errorf("toolnode %q: build request: %w", name, err)
			}
			req.Header.Set("Content-Type", "application/json")
			for k, v := range c.header {
				req.Header.Set(k, v)
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("toolnode %q: request failed: %w", name, err)
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("toolnode %q: read response: %w", name, err)
			}
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("toolnode %q: http status %d: %s", name, resp.StatusCode, string(raw))
			}

			var decoded any
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &decoded); err != nil {
					decoded = string(raw)
				}
			}
			return node.Values{c.outputName: decoded}, nil
		}, fnOpts...)
}
