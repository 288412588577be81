package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/gilad-rubin/hypergraph-sub004/emit"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// emitTag is the opaque value stored under an emit-only signal name; only
// the version it is committed at matters to wait_for readiness.
type emitTag struct{}

// nodeOutcome is the result of running one node in a superstep batch.
type nodeOutcome struct {
	name  string
	out   node.Values
	gate  *gateDecision
	pause *PauseInfo
	err   error
}

// executeBatch runs the execute phase of one superstep: every ready node
// is called against the same input snapshot, and all outputs are merged
// into the store together at the end with one new version.
func (r *run) executeBatch(ctx context.Context, ready []string) error {
	snapshot := make(map[string]node.Values, len(ready))
	for _, name := range ready {
		n, _ := r.g.Node(name)
		in := node.Values{}
		for _, p := range n.Inputs() {
			v, _, _ := r.store.Get(p)
			in[p] = v
		}
		snapshot[name] = in
	}

	outcomes := make([]nodeOutcome, len(ready))

	if r.sched.mode == ModeConcurrent {
		eg, egCtx := errgroup.WithContext(ctx)
		limit := r.opts.MaxConcurrency
		if limit < 1 {
			limit = 1
		}
		eg.SetLimit(limit)
		for i, name := range ready {
			i, name := i, name
			eg.Go(func() error {
				outcomes[i] = r.runOne(egCtx, name, snapshot[name])
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for i, name := range ready {
			outcomes[i] = r.runOne(ctx, name, snapshot[name])
		}
	}

	merged := node.Values{}
	for _, oc := range outcomes {
		r.ranOnce[oc.name] = true
		r.lastConsumed[oc.name] = r.pendingSig[oc.name]

		switch {
		case oc.gate != nil:
			r.gateDecisions[oc.name] = *oc.gate
			r.newDecisions = append(r.newDecisions, oc.name)
		case oc.err != nil:
			if r.opts.ErrorHandling == ErrorRaise {
				return oc.err
			}
			r.failed[oc.name] = oc.err
			if r.firstErr == nil {
				r.firstErr = oc.err
			}
		case oc.pause != nil:
			if r.pause == nil {
				r.pause = oc.pause
			}
		default:
			for k, v := range oc.out {
				merged[k] = v
			}
			r.lastOutputs[oc.name] = oc.out
			if n, ok := r.g.Node(oc.name); ok {
				if fn, isFn := n.(*node.FunctionNode); isFn {
					for _, sig := range fn.Emit() {
						merged[sig] = emitTag{}
					}
				}
			}
		}
	}

	newVersion := r.store.Commit(merged)

	// A node that feeds itself (a self-loop) has, by construction, just
	// made its own input newer than what it consumed. Account the fresh
	// version as consumed so the node stays stable until some *other*
	// producer advances one of its inputs.
	for _, oc := range outcomes {
		if oc.gate != nil || oc.err != nil || oc.pause != nil {
			continue
		}
		last := r.lastConsumed[oc.name]
		if last == nil {
			continue
		}
		for o := range oc.out {
			if _, selfFed := last[o]; selfFed {
				last[o] = newVersion
			}
		}
	}
	return nil
}

// runOne dispatches one node according to its concrete kind and records the
// observability/step-record side effects.
func (r *run) runOne(ctx context.Context, name string, in node.Values) nodeOutcome {
	n, _ := r.g.Node(name)
	r.emit(emit.KindNodeStart, name, nil)

	switch concrete := n.(type) {
	case *node.RouteNode:
		return r.runGate(ctx, concrete, in)
	case *node.InterruptNode:
		return r.runInterrupt(ctx, concrete, in)
	default:
		if gn, isGraph := asGraphNode(n); isGraph {
			return r.runNested(ctx, gn, in)
		}
		return r.runFunction(ctx, n, in)
	}
}

func (r *run) runFunction(ctx context.Context, n node.Node, in node.Values) nodeOutcome {
	name := n.Name()
	fn, isFn := n.(*node.FunctionNode)

	if isFn && fn.Cache() && r.sched.cache != nil {
		if hash, err := n.DefinitionHash(); err == nil {
			digest := inputDigest(in)
			if cached, hit := r.sched.cache.Get(hash, digest); hit {
				r.emit(emit.KindCacheHit, name, nil)
				r.emit(emit.KindNodeEnd, name, map[string]any{"cached": true, "duration_ms": 0})
				r.recordStep(ctx, name, in, cached, StepCompleted, nil)
				return nodeOutcome{name: name, out: cached}
			}
		}
	}

	res, err := n.Call(ctx, in)
	if err != nil {
		r.emit(emit.KindNodeError, name, map[string]any{"error": err.Error()})
		r.recordStep(ctx, name, in, nil, StepFailed, err)
		return nodeOutcome{name: name, err: err}
	}
	if res.Pause != nil {
		r.emit(emit.KindInterrupt, name, map[string]any{"value": res.Pause.Value, "response_key": res.Pause.ResponseKey})
		pi := &PauseInfo{NodeID: name, Value: res.Pause.Value, ResponseKey: res.Pause.ResponseKey}
		r.recordStepPause(ctx, name, in, pi)
		return nodeOutcome{name: name, pause: pi}
	}

	if isFn && fn.Cache() && r.sched.cache != nil {
		if hash, err := n.DefinitionHash(); err == nil {
			r.sched.cache.Put(hash, inputDigest(in), res.Outputs)
		}
	}

	r.emit(emit.KindNodeEnd, name, map[string]any{"cached": false})
	r.recordStep(ctx, name, in, res.Outputs, StepCompleted, nil)
	return nodeOutcome{name: name, out: res.Outputs}
}

func (r *run) runGate(ctx context.Context, rn *node.RouteNode, in node.Values) nodeOutcome {
	name := rn.Name()
	cached := false
	var targets []string

	if rn.Cache() && r.sched.cache != nil {
		if hash, err := rn.DefinitionHash(); err == nil {
			if v, hit := r.sched.cache.Get(hash, inputDigest(in)); hit {
				if raw, ok := v["__targets__"].([]string); ok {
					targets = raw
					cached = true
				}
			}
		}
	}

	if !cached {
		var err error
		targets, err = rn.Decide(ctx, in)
		if err != nil {
			r.emit(emit.KindNodeError, name, map[string]any{"error": err.Error()})
			r.recordStep(ctx, name, in, nil, StepFailed, err)
			return nodeOutcome{name: name, err: err}
		}
		if rn.Cache() && r.sched.cache != nil {
			if hash, err := rn.DefinitionHash(); err == nil {
				r.sched.cache.Put(hash, inputDigest(in), node.Values{"__targets__": targets})
			}
		}
	}

	r.emit(emit.KindRouteDecision, name, map[string]any{"targets": targets, "cached": cached})
	r.recordStep(ctx, name, in, nil, StepCompleted, nil)

	sig := r.pendingSig[name]
	return nodeOutcome{name: name, gate: &gateDecision{targets: targets, versions: sig, cached: cached}}
}

func (r *run) runInterrupt(ctx context.Context, in_ *node.InterruptNode, in node.Values) nodeOutcome {
	name := in_.Name()
	if resp, resumed := r.responses[name]; resumed {
		outParam := in_.Outputs()[0]
		out := node.Values{outParam: resp}
		r.emit(emit.KindNodeEnd, name, map[string]any{"resumed": true})
		r.recordStep(ctx, name, in, out, StepCompleted, nil)
		return nodeOutcome{name: name, out: out}
	}
	return r.runFunction(ctx, in_, in)
}

func (r *run) recordStep(ctx context.Context, name string, in, out node.Values, status StepStatus, err error) {
	if r.sched.sink == nil {
		return
	}
	rec := StepRecord{
		RunID:                  r.runID,
		NodeName:               name,
		SuperstepIndex:         r.step,
		ConsumedInputVersions:  r.pendingSig[name],
		ProducedOutputVersions: map[string]int{},
		Status:                 status,
		PartialOutputs:         out,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	_ = r.sched.sink.Record(ctx, rec)
}

func (r *run) recordStop(ctx context.Context) {
	if r.sched.sink == nil {
		return
	}
	_ = r.sched.sink.Record(ctx, StepRecord{
		RunID:          r.runID,
		SuperstepIndex: r.step,
		Status:         StepStopped,
	})
}

func (r *run) recordStepPause(ctx context.Context, name string, in node.Values, pi *PauseInfo) {
	if r.sched.sink == nil {
		return
	}
	_ = r.sched.sink.Record(ctx, StepRecord{
		RunID:                 r.runID,
		NodeName:              name,
		SuperstepIndex:        r.step,
		ConsumedInputVersions: r.pendingSig[name],
		Status:                StepPaused,
		Pause:                 pi,
	})
}
