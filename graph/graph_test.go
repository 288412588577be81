package graph

import (
	"context"
	"testing"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

func mustFn(t *testing.T, name string, in, out []string, fn node.Fn, opts ...node.FunctionOption) *node.FunctionNode {
	t.Helper()
	n, err := node.NewFunction(name, in, out, fn, opts...)
	if err != nil {
		t.Fatalf("NewFunction(%s): %v", name, err)
	}
	return n
}

func linearNodes(t *testing.T) []node.Node {
	double := mustFn(t, "double", []string{"x"}, []string{"doubled"},
		func(ctx context.Context, in node.Values) (node.Values, error) {
			return node.Values{"doubled": in["x"].(int) * 2}, nil
		})
	addone := mustFn(t, "addone", []string{"doubled"}, []string{"result"},
		func(ctx context.Context, in node.Values) (node.Values, error) {
			return node.Values{"result": in["doubled"].(int) + 1}, nil
		})
	return []node.Node{double, addone}
}

func diamondNodes(t *testing.T) []node.Node {
	a := mustFn(t, "a", []string{"x"}, []string{"x1"},
		func(ctx context.Context, in node.Values) (node.Values, error) {
			return node.Values{"x1": in["x"].(int) + 1}, nil
		})
	b := mustFn(t, "b", []string{"x"}, []string{"x2"},
		func(ctx context.Context, in node.Values) (node.Values, error) {
			return node.Values{"x2": in["x"].(int) * 10}, nil
		})
	merge := mustFn(t, "merge", []string{"x1", "x2"}, []string{"y"},
		func(ctx context.Context, in node.Values) (node.Values, error) {
			return node.Values{"y": in["x1"].(int) + in["x2"].(int)}, nil
		})
	return []node.Node{a, b, merge}
}

func TestNewInfersLinearEdges(t *testing.T) {
	g, err := New(linearNodes(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := g.Producers("doubled"); len(got) != 1 || got[0] != "double" {
		t.Errorf("expected doubled produced by double, got %v", got)
	}
	if got := g.Consumers("doubled"); len(got) != 1 || got[0] != "addone" {
		t.Errorf("expected doubled consumed by addone, got %v", got)
	}
	spec := g.InputSpec()
	if len(spec.Required) != 1 || spec.Required[0] != "x" {
		t.Errorf("expected required=[x], got %v", spec.Required)
	}
}

func TestPureBuildStableAcrossInsertionOrder(t *testing.T) {
	forward, err := New(diamondNodes(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nodes := diamondNodes(t)
	reversed := []node.Node{nodes[2], nodes[0], nodes[1]}
	backward, err := New(reversed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forward.DefinitionHash() != backward.DefinitionHash() {
		t.Error("expected identical definition hash regardless of node insertion order")
	}
	if forward.HasCycles() != backward.HasCycles() {
		t.Error("expected identical cycle classification regardless of insertion order")
	}
}

func TestImmutableTransformationsDoNotMutateReceiver(t *testing.T) {
	g, err := New(linearNodes(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := g.DefinitionHash()

	bound, err := g.Bind(map[string]any{"x": 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.DefinitionHash() != before {
		t.Error("Bind mutated the receiver's definition hash")
	}
	if len(bound.InputSpec().Required) != 0 {
		t.Errorf("expected bound graph to have no required inputs, got %v", bound.InputSpec().Required)
	}
	if len(g.InputSpec().Required) == 0 {
		t.Error("original graph's InputSpec should still require x")
	}

	unbound, err := bound.Unbind("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unbound.InputSpec().Required) != 1 {
		t.Errorf("expected x required again after Unbind, got %v", unbound.InputSpec().Required)
	}
	if len(bound.InputSpec().Required) != 0 {
		t.Error("Unbind mutated the receiver")
	}
}

func TestBindRejectsEdgeFedParamWithActiveProducer(t *testing.T) {
	g, err := New(linearNodes(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.Bind(map[string]any{"doubled": 99}); err == nil {
		t.Error("expected Bind to reject an edge-fed parameter whose producer is still active")
	}
}

func TestBindAllowsEdgeFedParamWithExcludedProducer(t *testing.T) {
	g, err := New(linearNodes(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// with_entrypoint("addone") drops double from the active subgraph, so
	// binding its output "doubled" now bypasses it instead of being shadowed.
	narrowed, err := g.WithEntrypoint("addone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bound, err := narrowed.Bind(map[string]any{"doubled": 99})
	if err != nil {
		t.Fatalf("expected Bind to allow injecting the excluded producer's output, got error: %v", err)
	}
	if v, ok := bound.Bindings()["doubled"]; !ok || v != 99 {
		t.Errorf("expected doubled bound to 99, got %v", bound.Bindings())
	}
	for _, req := range bound.InputSpec().Required {
		if req == "doubled" {
			t.Error("expected doubled to no longer be required after bind")
		}
	}
}

func TestSelectNarrowsActiveSubgraph(t *testing.T) {
	g, err := New(diamondNodes(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	narrowed, err := g.Select("x1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active := narrowed.ActiveNodes()
	if !active["a"] {
		t.Error("expected node a to remain active")
	}
	if active["b"] || active["merge"] {
		t.Errorf("expected b/merge to be dropped by selection, got %v", active)
	}
}

func TestSelectRejectsUnknownOutput(t *testing.T) {
	g, err := New(diamondNodes(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.Select("nonexistent"); err == nil {
		t.Error("expected error selecting an output no node produces")
	}
}

func TestWithEntrypointDropsAncestors(t *testing.T) {
	g, err := New(diamondNodes(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	narrowed, err := g.WithEntrypoint("merge")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active := narrowed.ActiveNodes()
	if active["a"] || active["b"] {
		t.Errorf("expected a/b (ancestors of merge) dropped, got %v", active)
	}
	if !active["merge"] {
		t.Error("expected merge itself to remain active")
	}
}

func TestDuplicateNodeNameRejected(t *testing.T) {
	n1 := mustFn(t, "dup", []string{"x"}, []string{"y"}, nil)
	n2 := mustFn(t, "dup", []string{"x"}, []string{"z"}, nil)
	if _, err := New([]node.Node{n1, n2}); err == nil {
		t.Error("expected error for duplicate node names")
	}
}

func TestCycleDetection(t *testing.T) {
	// a self-feeding loop: step consumes its own prior output.
	step := mustFn(t, "step", []string{"count"}, []string{"count"},
		func(ctx context.Context, in node.Values) (node.Values, error) {
			return node.Values{"count": in["count"].(int) + 1}, nil
		})
	g, err := New([]node.Node{step})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.HasCycles() {
		t.Error("expected a self-feeding node to be classified as a cycle")
	}
	if !g.IsCycleNode("step") {
		t.Error("expected step to be flagged as a cycle node")
	}
	spec := g.InputSpec()
	if _, ok := spec.Entrypoints["step"]; !ok {
		t.Errorf("expected count to be classified as a cycle entrypoint, got %+v", spec.Entrypoints)
	}
}

func TestGateTargetsAndReachability(t *testing.T) {
	gate, err := node.NewIfElse("gate", []string{"x"}, "a", "b",
		func(ctx context.Context, in node.Values) (bool, error) { return in["x"].(int) > 0, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := mustFn(t, "a", nil, []string{"y"},
		func(ctx context.Context, in node.Values) (node.Values, error) { return node.Values{"y": 1}, nil })
	b := mustFn(t, "b", nil, []string{"y"},
		func(ctx context.Context, in node.Values) (node.Values, error) { return node.Values{"y": 2}, nil })

	g, err := New([]node.Node{gate, a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	targets := g.GateTargets("gate")
	if len(targets) != 2 {
		t.Errorf("expected 2 gate targets, got %v", targets)
	}
}

func TestMutexRegionSharedOutputAllowed(t *testing.T) {
	gate, err := node.NewIfElse("gate", []string{"x"}, "a", "b",
		func(ctx context.Context, in node.Values) (bool, error) { return true, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := mustFn(t, "a", nil, []string{"y"},
		func(ctx context.Context, in node.Values) (node.Values, error) { return node.Values{"y": 1}, nil })
	b := mustFn(t, "b", nil, []string{"y"},
		func(ctx context.Context, in node.Values) (node.Values, error) { return node.Values{"y": 2}, nil })

	g, err := New([]node.Node{gate, a, b})
	if err != nil {
		t.Fatalf("expected mutex-region output sharing to be allowed: %v", err)
	}
	if got := g.Producers("y"); len(got) != 2 {
		t.Errorf("expected both a and b recorded as producers of y, got %v", got)
	}
}

func TestNonMutexSharedOutputRejected(t *testing.T) {
	a := mustFn(t, "a", nil, []string{"y"},
		func(ctx context.Context, in node.Values) (node.Values, error) { return node.Values{"y": 1}, nil })
	b := mustFn(t, "b", nil, []string{"y"},
		func(ctx context.Context, in node.Values) (node.Values, error) { return node.Values{"y": 2}, nil })

	if _, err := New([]node.Node{a, b}); err == nil {
		t.Error("expected error: two unrelated nodes cannot share an output without a proven mutex region")
	}
}

func TestInconsistentDefaultsRejected(t *testing.T) {
	a := mustFn(t, "a", []string{"p"}, []string{"y1"},
		func(ctx context.Context, in node.Values) (node.Values, error) { return node.Values{"y1": in["p"]}, nil },
		node.WithDefaults(map[string]any{"p": 1}))
	b := mustFn(t, "b", []string{"p"}, []string{"y2"},
		func(ctx context.Context, in node.Values) (node.Values, error) { return node.Values{"y2": in["p"]}, nil },
		node.WithDefaults(map[string]any{"p": 2}))

	if _, err := New([]node.Node{a, b}); err == nil {
		t.Error("expected error: inconsistent defaults for the same parameter across nodes")
	}
}

func TestEndOutputNameRejected(t *testing.T) {
	// node.NewFunction already refuses END as an identifier; if a node
	// carrying it is built anyway, New must refuse it.
	bad, err := node.NewFunction("bad", nil, []string{"END"}, nil)
	if err == nil {
		_, err = New([]node.Node{bad})
	}
	if err == nil {
		t.Error("expected error for a node declaring output literally named END")
	}
}
