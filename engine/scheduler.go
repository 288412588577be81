package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/gilad-rubin/hypergraph-sub004/emit"
	"github.com/gilad-rubin/hypergraph-sub004/graph"
	"github.com/gilad-rubin/hypergraph-sub004/hgid"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// Scheduler is the superstep engine: it owns no state across
// runs; every Run call builds a fresh Store and gate/generation tracking
// scoped to that run, so a *Scheduler is safe to reuse and share.
type Scheduler struct {
	mode  Mode
	cache CacheBackend
	sink  StepSink
}

// SchedulerOption configures a Scheduler at construction.
type SchedulerOption func(*Scheduler)

func WithMode(m Mode) SchedulerOption            { return func(s *Scheduler) { s.mode = m } }
func WithCacheBackend(c CacheBackend) SchedulerOption { return func(s *Scheduler) { s.cache = c } }
func WithStepSink(sink StepSink) SchedulerOption { return func(s *Scheduler) { s.sink = sink } }

// New builds a Scheduler; the zero value mode is ModeSequential.
func New(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// run is the mutable state of a single Run invocation; a fresh instance
// every call, never shared across goroutines outside this one run.
type run struct {
	sched    *Scheduler
	g        *graph.Graph
	opts     RunOptions
	runID    string
	store    *Store
	dispatch *emit.Dispatcher

	gateDecisions map[string]gateDecision   // last-known decision per gate
	newDecisions  []string                  // gates that decided in the previous superstep, pending activation
	lastConsumed  map[string]map[string]int // node -> last consumed-version signature it ran with
	pendingSig    map[string]map[string]int // node -> signature computed this superstep's readiness pass
	lastOutputs   map[string]node.Values    // node -> outputs of its most recent successful run
	ranOnce       map[string]bool
	responses     map[string]any  // resume values keyed by InterruptNode name
	excluded      map[string]bool // producers bypassed this run via complete output injection

	pause    *PauseInfo
	failed   map[string]error
	firstErr error // first node error recorded under error_handling=continue
	stopped  bool
	step     int
}

type gateDecision struct {
	targets  []string
	versions map[string]int
	cached   bool
}

// Run validates, seeds, and drives the superstep loop to a terminal
// condition.
func (s *Scheduler) Run(ctx context.Context, g *graph.Graph, values map[string]any, opts ...RunOption) (RunResult, error) {
	o := defaultOptions()
	for _, f := range opts {
		f(&o)
	}

	effective := g
	if len(o.Select) > 0 {
		var err error
		effective, err = effective.Select(o.Select...)
		if err != nil {
			return RunResult{}, err
		}
	}
	if o.Entrypoint != "" {
		var err error
		effective, err = effective.WithEntrypoint(o.Entrypoint)
		if err != nil {
			return RunResult{}, err
		}
	}

	if effective.HasAsyncNodes() && s.mode != ModeConcurrent {
		return RunResult{}, &graph.IncompatibleRunnerError{Reason: "graph contains async nodes but the scheduler runs in sequential mode"}
	}

	spec := effective.InputSpec()
	provided := node.Values{}
	for k, v := range values {
		provided[k] = v
	}

	excluded, overrides, err := resolveInjection(effective, provided, o.OnInternalOverride)
	if err != nil {
		return RunResult{}, err
	}

	var missing []string
	for _, req := range spec.Required {
		if _, ok := provided[req]; ok {
			continue
		}
		if inputNeededOutsideExcluded(effective, excluded, req) {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return RunResult{}, &graph.MissingInputError{Names: missing}
	}
	if err := validateEntrypointCandidates(effective, provided); err != nil {
		return RunResult{}, err
	}

	runID := newRunID(effective, provided)
	procs := o.EventProcessors
	if len(procs) == 0 {
		procs = []emit.Processor{emit.NewNullProcessor()}
	}

	r := &run{
		sched:         s,
		g:             effective,
		opts:          o,
		runID:         runID,
		store:         NewStore(),
		dispatch:      emit.NewDispatcher(procs...),
		gateDecisions: map[string]gateDecision{},
		lastConsumed:  map[string]map[string]int{},
		lastOutputs:   map[string]node.Values{},
		ranOnce:       map[string]bool{},
		responses:     map[string]any{},
		failed:        map[string]error{},
		excluded:      excluded,
	}
	defer r.dispatch.Shutdown(ctx)

	for _, name := range effective.NodeNames() {
		if n, ok := effective.Node(name); ok {
			if _, isInterrupt := n.(*node.InterruptNode); isInterrupt {
				if v, has := provided[name]; has {
					r.responses[name] = v
				}
			}
		}
	}

	seed := node.Values{}
	for k, v := range spec.Bound {
		seed[k] = v
	}
	for _, name := range effective.NodeNames() {
		if n, ok := effective.Node(name); ok {
			if fn, isFn := n.(*node.FunctionNode); isFn {
				for _, in := range fn.Inputs() {
					if d, has := fn.Default(in); has {
						if _, already := seed[in]; !already {
							seed[in] = d
						}
					}
				}
			}
		}
	}
	for k, v := range provided {
		seed[k] = v
	}
	r.store.Seed(seed)

	var startMeta map[string]any
	if len(overrides) > 0 {
		notices := make([]string, len(overrides))
		for i, ov := range overrides {
			notices[i] = fmt.Sprintf("%s overrides output of still-active node %s", ov.Param, ov.Node)
		}
		startMeta = map[string]any{"internal_overrides": notices}
	}
	r.emit(emit.KindRunStart, "", startMeta)

	result, err := r.loop(ctx)

	status := StatusCompleted
	switch {
	case r.pause != nil:
		status = StatusPaused
	case len(r.failed) > 0:
		status = StatusFailed
	case err != nil:
		status = StatusFailed
	case r.stopped:
		status = StatusStopped
	}
	r.emit(emit.KindRunEnd, "", map[string]any{"status": status.String()})

	if err != nil && o.ErrorHandling == ErrorRaise {
		return RunResult{}, err
	}

	result.RunID = runID
	result.Status = status
	result.Pause = r.pause
	result.Failed = r.failed
	result.Steps = r.step
	result.Err = err
	if result.Err == nil {
		result.Err = r.firstErr
	}
	if result.Outputs == nil {
		result.Outputs = r.store.Snapshot()
	}
	return result, nil
}

func (r *run) emit(kind emit.Kind, nodeID string, meta map[string]any) {
	r.dispatch.Emit(emit.Event{RunID: r.runID, Kind: kind, Step: r.step, NodeID: nodeID, Meta: meta})
}

func newRunID(g *graph.Graph, provided node.Values) string {
	parts := []hgid.HashPart{hgid.Str("run"), hgid.Str(g.DefinitionHash())}
	keys := make([]string, 0, len(provided))
	for k := range provided {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, hgid.Str(k), hgid.Str(fmt.Sprintf("%v", provided[k])))
	}
	return hgid.HashDefinition(parts...)
}

// validateEntrypointCandidates rejects run-time inputs that satisfy more
// than one cycle's candidate entrypoint simultaneously.
func validateEntrypointCandidates(g *graph.Graph, provided node.Values) error {
	spec := g.InputSpec()
	for _, params := range groupEntrypointsByCycle(g, spec.Entrypoints) {
		var satisfied []string
		for nodeName, ps := range params {
			ok := true
			for _, p := range ps {
				if _, has := provided[p]; !has {
					ok = false
					break
				}
			}
			if ok {
				satisfied = append(satisfied, nodeName)
			}
		}
		if len(satisfied) > 1 {
			sort.Strings(satisfied)
			return &graph.AmbiguousEntrypointError{Candidates: satisfied}
		}
	}
	return nil
}

// groupEntrypointsByCycle returns InputSpec.Entrypoints as one single group.
// It does not partition entrypoints by cycle: in a graph with several cycles,
// providing one entrypoint for each of two cycles counts as two satisfied
// candidates in the same group and is reported as ambiguous.
func groupEntrypointsByCycle(g *graph.Graph, entrypoints map[string][]string) []map[string][]string {
	if len(entrypoints) == 0 {
		return nil
	}
	return []map[string][]string{entrypoints}
}

// overrideNotice records a provided value that collides with one output of a
// producer that remains runnable, surfaced via RunStart's Meta under
// OverrideWarn.
type overrideNotice struct {
	Param string
	Node  string
}

// resolveInjection classifies every provided value that collides with a
// declared node output. Supplying every output of a node that cannot run
// this run (excluded by with_entrypoint/select, or otherwise inactive)
// bypasses that node entirely. Supplying every output of a node that CAN
// still run is a contradiction, rejected outright. Supplying only some of a
// node's outputs is rejected when that node cannot run (there is no way to
// produce the rest), and otherwise governed by on_internal_override: warn
// (default, recorded for the caller), ignore, or error. A provided value for
// a cycle-entrypoint parameter is left out of this check: it seeds the cycle
// on its first pass and does not replace the producer inside the cycle.
func resolveInjection(g *graph.Graph, provided node.Values, policy OverridePolicy) (map[string]bool, []overrideNotice, error) {
	excluded := map[string]bool{}
	var overrides []overrideNotice
	active := g.ActiveNodes()
	bootstrap := map[string]bool{}
	for _, params := range g.InputSpec().Entrypoints {
		for _, p := range params {
			bootstrap[p] = true
		}
	}

	for _, name := range g.NodeNames() {
		n, ok := g.Node(name)
		if !ok {
			continue
		}
		outputs := n.Outputs()
		if len(outputs) == 0 {
			continue
		}
		var present, missing []string
		for _, out := range outputs {
			if _, ok := provided[out]; ok && !bootstrap[out] {
				present = append(present, out)
			} else {
				missing = append(missing, out)
			}
		}
		if len(present) == 0 {
			continue
		}
		full := len(missing) == 0
		runnable := active[name]

		switch {
		case full && !runnable:
			excluded[name] = true
		case full && runnable:
			return nil, nil, &InjectionConflictError{Node: name}
		case !runnable: // partial, and the node cannot run to fill the rest
			sort.Strings(missing)
			return nil, nil, &InjectionConflictError{Node: name, Missing: missing}
		default: // partial, and the node remains runnable: an override, not an injection
			sort.Strings(present)
			for _, out := range present {
				switch policy {
				case OverrideError:
					return nil, nil, &AmbiguousOverrideError{Param: out, Node: name}
				case OverrideWarn:
					overrides = append(overrides, overrideNotice{Param: out, Node: name})
				case OverrideIgnore:
				}
			}
		}
	}

	return excluded, overrides, nil
}

// inputNeededOutsideExcluded reports whether any still-runnable, active node
// declares p as an input, so a missing p can be tolerated once its only
// consumer(s) have been bypassed via injection.
func inputNeededOutsideExcluded(g *graph.Graph, excluded map[string]bool, p string) bool {
	active := g.ActiveNodes()
	for _, name := range g.NodeNames() {
		if !active[name] || excluded[name] {
			continue
		}
		n, ok := g.Node(name)
		if !ok {
			continue
		}
		for _, in := range n.Inputs() {
			if in == p {
				return true
			}
		}
	}
	return false
}
