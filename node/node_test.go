package node

import (
	"context"
	"errors"
	"testing"
)

func newDoubleNode(t *testing.T) *FunctionNode {
	t.Helper()
	n, err := NewFunction("double", []string{"x"}, []string{"doubled"},
		func(ctx context.Context, in Values) (Values, error) {
			return Values{"doubled": in["x"].(int) * 2}, nil
		})
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	return n
}

func TestFunctionNodeCall(t *testing.T) {
	n := newDoubleNode(t)
	res, err := n.Call(context.Background(), Values{"x": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outputs["doubled"] != 6 {
		t.Errorf("expected doubled=6, got %v", res.Outputs["doubled"])
	}
}

func TestFunctionNodeRejectsInvalidNames(t *testing.T) {
	tests := []struct {
		name    string
		ctor    func() error
		wantErr bool
	}{
		{"bad node name", func() error {
			_, err := NewFunction("2bad", nil, nil, nil)
			return err
		}, true},
		{"bad input name", func() error {
			_, err := NewFunction("ok", []string{"2bad"}, nil, nil)
			return err
		}, true},
		{"duplicate inputs", func() error {
			_, err := NewFunction("ok", []string{"a", "a"}, nil, nil)
			return err
		}, true},
		{"duplicate outputs", func() error {
			_, err := NewFunction("ok", nil, []string{"a", "a"}, nil)
			return err
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ctor()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestFunctionNodeWithNameIsImmutable(t *testing.T) {
	n := newDoubleNode(t)
	renamed, err := n.WithName("doubler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Name() != "double" {
		t.Errorf("original node mutated: got name %q", n.Name())
	}
	if renamed.Name() != "doubler" {
		t.Errorf("expected renamed node name %q, got %q", "doubler", renamed.Name())
	}
}

func TestFunctionNodeStaleRenameFails(t *testing.T) {
	n := newDoubleNode(t)
	renamed, err := n.WithName("doubler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = renamed

	// Renaming the original node a second time still works: renames never
	// mutate n, so its own history holds no rename and its name is current.
	_, err = n.WithName("doubler") // still based on n, whose own name is "double" - not stale yet
	if err != nil {
		t.Fatalf("renaming the live node a second, independent time should still work: %v", err)
	}

	// But attempting to rename via WithInputs using a name that was already
	// superseded in the *same* lineage should fail.
	withInput, err := n.WithInputs(map[string]string{"x": "value"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := withInput.WithInputs(map[string]string{"x": "other"}); err == nil {
		t.Error("expected RenameError when renaming an already-superseded input name")
	} else {
		var renameErr *RenameError
		if !errors.As(err, &renameErr) {
			t.Errorf("expected *RenameError, got %T", err)
		}
	}
}

func TestFunctionNodeWithInputsRenamesInPlace(t *testing.T) {
	n := newDoubleNode(t)
	renamed, err := n.WithInputs(map[string]string{"x": "value"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renamed.Inputs()[0] != "value" {
		t.Errorf("expected renamed input %q, got %q", "value", renamed.Inputs()[0])
	}
	if n.Inputs()[0] != "x" {
		t.Errorf("original node's inputs mutated: got %v", n.Inputs())
	}
}

func TestFunctionNodeDefinitionHashStableAcrossCalls(t *testing.T) {
	n := newDoubleNode(t)
	h1, err := n.DefinitionHash()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := n.DefinitionHash()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected stable hash, got %q and %q", h1, h2)
	}
}

func TestFunctionNodeDefinitionHashChangesWithDefinitionKey(t *testing.T) {
	n := newDoubleNode(t)
	keyed, err := NewFunction("double", []string{"x"}, []string{"doubled"},
		func(ctx context.Context, in Values) (Values, error) { return nil, nil },
		WithDefinitionKey("stable-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h1, _ := n.DefinitionHash()
	h2, _ := keyed.DefinitionHash()
	if h1 == h2 {
		t.Error("expected a definition key to change the hash")
	}
}

func TestRouteNodeDecide(t *testing.T) {
	gate, err := NewRoute("gate", []string{"x"}, []string{"a", "b"},
		func(ctx context.Context, in Values) (string, error) {
			if in["x"].(int) > 0 {
				return "a", nil
			}
			return "b", nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	targets, err := gate.Decide(context.Background(), Values{"x": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 1 || targets[0] != "a" {
		t.Errorf("expected [a], got %v", targets)
	}
}

func TestRouteNodeRejectsSelfTarget(t *testing.T) {
	_, err := NewRoute("gate", []string{"x"}, []string{"gate"}, nil)
	if err == nil {
		t.Error("expected error when a gate targets itself")
	}
}

func TestRouteNodeRejectsUndeclaredTarget(t *testing.T) {
	gate, err := NewRoute("gate", []string{"x"}, []string{"a"},
		func(ctx context.Context, in Values) (string, error) { return "z", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := gate.Decide(context.Background(), Values{}); err == nil {
		t.Error("expected error for an undeclared target")
	}
}

func TestRouteNodeFallback(t *testing.T) {
	gate, err := NewRoute("gate", []string{"x"}, []string{"a"},
		func(ctx context.Context, in Values) (string, error) { return "", nil },
		WithFallback("a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	targets, err := gate.Decide(context.Background(), Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 1 || targets[0] != "a" {
		t.Errorf("expected fallback target [a], got %v", targets)
	}
}

func TestRouteNodeEndSentinelIsAlwaysValid(t *testing.T) {
	gate, err := NewRoute("gate", []string{"x"}, []string{"a"},
		func(ctx context.Context, in Values) (string, error) { return "END", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	targets, err := gate.Decide(context.Background(), Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 1 || targets[0] != "END" {
		t.Errorf("expected [END], got %v", targets)
	}
}

func TestNewIfElse(t *testing.T) {
	gate, err := NewIfElse("gate", []string{"x"}, "yes", "no",
		func(ctx context.Context, in Values) (bool, error) { return in["x"].(int) > 0, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	targets, err := gate.Decide(context.Background(), Values{"x": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if targets[0] != "yes" {
		t.Errorf("expected yes, got %v", targets)
	}
	targets, err = gate.Decide(context.Background(), Values{"x": -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if targets[0] != "no" {
		t.Errorf("expected no, got %v", targets)
	}
}

func TestRouteNodeMultiTarget(t *testing.T) {
	gate, err := NewRouteMulti("gate", []string{"x"}, []string{"a", "b"},
		func(ctx context.Context, in Values) ([]string, error) { return []string{"a", "b"}, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	targets, err := gate.Decide(context.Background(), Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 2 {
		t.Errorf("expected 2 targets, got %v", targets)
	}
}

func TestRouteNodeWithOutputsRejected(t *testing.T) {
	gate, err := NewRoute("gate", []string{"x"}, []string{"a"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := gate.WithOutputs(map[string]string{"x": "y"}); err == nil {
		t.Error("expected error renaming a gate's (nonexistent) outputs")
	}
}

func TestInterruptNodePausesWithoutHandler(t *testing.T) {
	n, err := NewInterrupt("ask", "question", "answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := n.Call(context.Background(), Values{"question": "continue?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Pause == nil {
		t.Fatal("expected a pause request")
	}
	if res.Pause.Value != "continue?" {
		t.Errorf("expected surfaced value %q, got %v", "continue?", res.Pause.Value)
	}
	if res.Pause.ResponseKey != "ask" {
		t.Errorf("expected response key %q, got %q", "ask", res.Pause.ResponseKey)
	}
}

func TestInterruptNodeWithHandlerResolvesImmediately(t *testing.T) {
	n, err := NewInterrupt("ask", "question", "answer",
		WithHandler(func(ctx context.Context, value any) (any, error) { return "yes", nil }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := n.Call(context.Background(), Values{"question": "continue?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Pause != nil {
		t.Error("a handled interrupt should never pause")
	}
	if res.Outputs["answer"] != "yes" {
		t.Errorf("expected answer=yes, got %v", res.Outputs["answer"])
	}
}

func TestInterruptNodeDefinitionHashExcludesHandler(t *testing.T) {
	plain, err := NewInterrupt("ask", "question", "answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handled, err := NewInterrupt("ask", "question", "answer",
		WithHandler(func(ctx context.Context, value any) (any, error) { return "yes", nil }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h1, _ := plain.DefinitionHash()
	h2, _ := handled.DefinitionHash()
	if h1 != h2 {
		t.Error("expected identical hash: identity is about the pause point, not its resolver")
	}
}
