package runner

import (
	"context"
	"testing"

	"github.com/gilad-rubin/hypergraph-sub004/engine"
	"github.com/gilad-rubin/hypergraph-sub004/graph"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

func mustFn(t *testing.T, name string, in, out []string, fn node.Fn) *node.FunctionNode {
	t.Helper()
	n, err := node.NewFunction(name, in, out, fn)
	if err != nil {
		t.Fatalf("NewFunction(%s): %v", name, err)
	}
	return n
}

func addGraph(t *testing.T) *graph.Graph {
	add := mustFn(t, "add", []string{"a", "b"}, []string{"sum"},
		func(_ context.Context, in node.Values) (node.Values, error) {
			return node.Values{"sum": in["a"].(int) + in["b"].(int)}, nil
		})
	g, err := graph.New([]node.Node{add})
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return g
}

func TestRunRejectsDuplicateKey(t *testing.T) {
	g := addGraph(t)
	r := NewSequential()
	_, err := r.Run(context.Background(), g, node.Values{"a": 1}, Values{"a": 2, "b": 3})
	if _, ok := err.(*ErrDuplicateKey); !ok {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestRunRejectsReservedNameInKwargs(t *testing.T) {
	g := addGraph(t)
	r := NewSequential()
	_, err := r.Run(context.Background(), g, node.Values{"a": 1, "b": 2}, Values{"select": "sum"})
	if _, ok := err.(*ErrReservedName); !ok {
		t.Fatalf("expected ErrReservedName, got %v", err)
	}
}

func TestRunMergesValuesAndKwargs(t *testing.T) {
	g := addGraph(t)
	r := NewSequential()
	res, err := r.Run(context.Background(), g, node.Values{"a": 1}, Values{"b": 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outputs["sum"] != 3 {
		t.Errorf("expected sum=3, got %v", res.Outputs["sum"])
	}
}

// TestMapZip pairs mapped parameters positionally.
func TestMapZip(t *testing.T) {
	g := addGraph(t)
	r := NewSequential()
	res, err := r.Map(context.Background(), g, node.Values{"a": []int{1, 2, 3}, "b": []int{10, 20, 30}}, nil,
		WithMapMode(MapZip), WithMapOver("a", "b"))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	got := res.Column("sum")
	want := []any{11, 22, 33}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

// TestMapProduct iterates the cartesian product: positional product
// order is a=[1,2], b=[10,20] -> sum=[11,21,12,22].
func TestMapProduct(t *testing.T) {
	g := addGraph(t)
	r := NewSequential()
	res, err := r.Map(context.Background(), g, node.Values{"a": []int{1, 2}, "b": []int{10, 20}}, nil,
		WithMapMode(MapProduct), WithMapOver("a", "b"))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	got := res.Column("sum")
	want := []any{11, 21, 12, 22}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestMapConcurrentRequiresConcurrencyBound(t *testing.T) {
	g := addGraph(t)
	r := NewConcurrent()
	_, err := r.Map(context.Background(), g, node.Values{"a": []int{1, 2}, "b": []int{10, 20}}, nil,
		WithMapOver("a", "b"))
	if err != ErrMapConcurrencyRequired {
		t.Fatalf("expected ErrMapConcurrencyRequired, got %v", err)
	}
}

func TestMapErrorHandlingContinuePreservesPositionalAlignment(t *testing.T) {
	divide := mustFn(t, "divide", []string{"a", "b"}, []string{"q"},
		func(_ context.Context, in node.Values) (node.Values, error) {
			b := in["b"].(int)
			if b == 0 {
				return nil, errDivByZero
			}
			return node.Values{"q": in["a"].(int) / b}, nil
		})
	g, err := graph.New([]node.Node{divide})
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}

	r := NewSequential()
	res, err := r.Map(context.Background(), g, node.Values{"a": []int{10, 20, 30}, "b": []int{2, 0, 3}}, nil,
		WithMapOver("a", "b"), WithMapErrorHandling(engine.ErrorContinue))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if res.Status != engine.StatusFailed {
		t.Fatalf("expected aggregate status failed, got %v", res.Status)
	}
	if len(res.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res.Results))
	}
	if res.Results[0].Outputs["q"] != 5 {
		t.Errorf("expected first iteration q=5, got %v", res.Results[0].Outputs["q"])
	}
	if res.Results[1].Status != engine.StatusFailed {
		t.Errorf("expected second iteration to be failed, got %v", res.Results[1].Status)
	}
	if res.Results[2].Outputs["q"] != 10 {
		t.Errorf("expected third iteration q=10, got %v", res.Results[2].Outputs["q"])
	}
}

var errDivByZero = &divByZeroError{}

type divByZeroError struct{}

func (e *divByZeroError) Error() string { return "division by zero" }
