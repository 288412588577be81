package graph

import (
	"context"
	"testing"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

func TestAsNodeRequiresName(t *testing.T) {
	g, err := New(linearNodes(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.AsNode(); err == nil {
		t.Error("expected AsNode to fail on an unnamed graph")
	}
}

func TestAsNodeExposesInputSpecAndOutputs(t *testing.T) {
	inner, err := New(linearNodes(t), WithName("inner"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := inner.AsNode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Name() != "inner" {
		t.Errorf("expected name inner, got %q", n.Name())
	}
	if len(n.Inputs()) != 1 || n.Inputs()[0] != "x" {
		t.Errorf("expected inputs [x], got %v", n.Inputs())
	}
	hasResult := false
	for _, o := range n.Outputs() {
		if o == "result" {
			hasResult = true
		}
	}
	if !hasResult {
		t.Errorf("expected outputs to include result, got %v", n.Outputs())
	}
}

func TestAsNodeHonorsSelection(t *testing.T) {
	inner, err := New(diamondNodes(t), WithName("inner"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	narrowed, err := inner.Select("x1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := narrowed.AsNode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.Outputs()) != 1 || n.Outputs()[0] != "x1" {
		t.Errorf("expected outputs [x1], got %v", n.Outputs())
	}
}

func TestGraphNodeCallIsDelegatedToEngine(t *testing.T) {
	inner, err := New(linearNodes(t), WithName("inner"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := inner.AsNode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := n.Call(context.Background(), node.Values{"x": 1}); err == nil {
		t.Error("expected GraphNode.Call to refuse direct invocation")
	}
}

func TestGraphNodeWithMapOverConfig(t *testing.T) {
	inner, err := New(linearNodes(t), WithName("inner"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := inner.AsNode(WithMapOver("zip", "raise", "x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gn, ok := n.(*GraphNode)
	if !ok {
		t.Fatalf("expected *GraphNode, got %T", n)
	}
	cfg := gn.MapOverConfig()
	if cfg == nil {
		t.Fatal("expected non-nil map_over config")
	}
	if cfg.Mode != "zip" || len(cfg.Params) != 1 || cfg.Params[0] != "x" {
		t.Errorf("unexpected map_over config: %+v", cfg)
	}
}

func TestGraphNodeDefinitionHashTracksInnerGraph(t *testing.T) {
	inner, err := New(linearNodes(t), WithName("inner"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n1, err := inner.AsNode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n2, err := inner.AsNode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h1, err := n1.DefinitionHash()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := n2.DefinitionHash()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Error("expected identical definition hash for two AsNode calls over the same graph")
	}
}

func TestNestedNodeNameMayNotCollideWithOutput(t *testing.T) {
	add := mustFn(t, "add", []string{"result"}, []string{"total"},
		func(_ context.Context, in node.Values) (node.Values, error) {
			return node.Values{"total": in["result"].(int)}, nil
		})
	inner, err := New([]node.Node{add}, WithName("doubled"))
	if err != nil {
		t.Fatalf("New(inner): %v", err)
	}
	nested, err := inner.AsNode()
	if err != nil {
		t.Fatalf("AsNode: %v", err)
	}

	// linearNodes' first node produces an output named "doubled", the same
	// identifier as the nested graph node.
	if _, err := New(append(linearNodes(t), nested)); err == nil {
		t.Error("expected a nested-node/output name collision to be rejected")
	}
}
