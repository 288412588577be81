package engine

import (
	"context"
	"reflect"

	"github.com/gilad-rubin/hypergraph-sub004/emit"
	"github.com/gilad-rubin/hypergraph-sub004/graph"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// toAnySlice accepts any slice-typed value (e.g. []int, []string, []any, as
// produced by ordinary Go call sites or JSON decoding) and returns it as a
// []any so map_over doesn't force callers to box every mapped parameter as
// []any by hand.
func toAnySlice(v any) ([]any, bool) {
	if as, ok := v.([]any); ok {
		return as, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asGraphNode type-switches to package graph's fourth node kind without
// engine depending on graph for anything but this one conversion point.
func asGraphNode(n node.Node) (*graph.GraphNode, bool) {
	gn, ok := n.(*graph.GraphNode)
	return gn, ok
}

// runNested executes a nested graph node: the outer scheduler treats
// the inner run as a single node, invoking the same Scheduler type
// recursively, propagating events with parent_span_id set, and surfacing the
// inner outputs (or a wrapped pause) as this node's own result. A map_over
// configuration fans out multiple inner runs, collecting each output into a
// list.
func (r *run) runNested(ctx context.Context, gn *graph.GraphNode, in node.Values) nodeOutcome {
	name := gn.Name()

	if mo := gn.MapOverConfig(); mo != nil {
		return r.runNestedMap(ctx, gn, mo, in)
	}

	childOpts := []RunOption{WithMaxConcurrency(r.opts.MaxConcurrency), WithErrorHandling(r.opts.ErrorHandling)}
	childProcs := append([]emit.Processor{}, r.childProcessors(name)...)
	if len(childProcs) > 0 {
		childOpts = append(childOpts, WithEventProcessors(childProcs...))
	}

	childResult, err := r.sched.Run(ctx, gn.Inner(), in, childOpts...)
	if err != nil {
		r.emit(emit.KindNodeError, name, map[string]any{"error": err.Error()})
		r.recordStep(ctx, name, in, nil, StepFailed, err)
		return nodeOutcome{name: name, err: err}
	}
	if childResult.Status == StatusPaused {
		pi := &PauseInfo{NodeID: name, Nested: childResult.Pause}
		r.emit(emit.KindInterrupt, name, map[string]any{"nested_run_id": childResult.RunID})
		r.recordStepPause(ctx, name, in, pi)
		return nodeOutcome{name: name, pause: pi}
	}

	out := node.Values{}
	for _, o := range gn.Outputs() {
		if v, ok := childResult.Outputs[o]; ok {
			out[o] = v
		}
	}
	r.emit(emit.KindNodeEnd, name, map[string]any{"child_run_id": childResult.RunID})
	r.recordStep(ctx, name, in, out, StepCompleted, nil)
	return nodeOutcome{name: name, out: out}
}

// childProcessors wraps this run's processors so nested events carry
// parent_span_id.
func (r *run) childProcessors(parentNodeName string) []emit.Processor {
	if len(r.opts.EventProcessors) == 0 {
		return nil
	}
	return []emit.Processor{&parentSpanProcessor{inner: emit.NewDispatcher(r.opts.EventProcessors...), parent: r.runID + ":" + parentNodeName}}
}

type parentSpanProcessor struct {
	inner  *emit.Dispatcher
	parent string
}

func (p *parentSpanProcessor) OnEvent(ev emit.Event) {
	ev.ParentSpanID = p.parent
	p.inner.Emit(ev)
}

func (p *parentSpanProcessor) Shutdown(ctx context.Context) error { return p.inner.Shutdown(ctx) }

func (r *run) runNestedMap(ctx context.Context, gn *graph.GraphNode, mo *graph.MapOver, in node.Values) nodeOutcome {
	name := gn.Name()

	mapped := map[string][]any{}
	for _, p := range mo.Params {
		vals, ok := toAnySlice(in[p])
		if !ok {
			return nodeOutcome{name: name, err: &graph.GraphConfigError{Reason: "map_over parameter \"" + p + "\" is not a list"}}
		}
		mapped[p] = vals
	}

	var combos []map[string]any
	var err error
	switch mo.Mode {
	case "zip":
		combos, err = zipCombos(mapped)
	default:
		combos = productCombos(mapped)
	}
	if err != nil {
		return nodeOutcome{name: name, err: err}
	}

	collected := make([]node.Values, len(combos))
	errs := make([]error, len(combos))
	for i, combo := range combos {
		iterIn := node.Values{}
		for k, v := range in {
			iterIn[k] = v
		}
		for k, v := range combo {
			iterIn[k] = v
		}
		childResult, cerr := r.sched.Run(ctx, gn.Inner(), iterIn, WithErrorHandling(r.opts.ErrorHandling))
		if cerr != nil {
			if mo.ErrorHandling == "raise" {
				return nodeOutcome{name: name, err: cerr}
			}
			errs[i] = cerr
			continue
		}
		collected[i] = childResult.Outputs
	}

	out := node.Values{}
	for _, o := range gn.Outputs() {
		col := make([]any, len(combos))
		for i := range combos {
			if errs[i] == nil {
				col[i] = collected[i][o]
			}
		}
		out[o] = col
	}
	r.emit(emit.KindNodeEnd, name, map[string]any{"map_iterations": len(combos)})
	r.recordStep(ctx, name, in, out, StepCompleted, nil)
	return nodeOutcome{name: name, out: out}
}
