// Package runner provides the public run/map surface: a Runner bundles an
// optional cache backend, an optional step-record sink, a scheduling mode,
// and default event processors, then exposes Run/Map over
// engine.Scheduler.
package runner

import (
	"context"
	"fmt"

	"github.com/gilad-rubin/hypergraph-sub004/emit"
	"github.com/gilad-rubin/hypergraph-sub004/engine"
	"github.com/gilad-rubin/hypergraph-sub004/graph"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// Runner bundles a scheduling mode with the optional external
// collaborators: a cache backend, a step-record sink, and default event
// processors applied to every Run/Map call that doesn't override them.
type Runner struct {
	sched        *engine.Scheduler
	mode         engine.Mode
	defaultProcs []emit.Processor
}

// Option configures a Runner at construction.
type Option func(*config)

type config struct {
	cache        engine.CacheBackend
	sink         engine.StepSink
	defaultProcs []emit.Processor
}

// WithCache attaches a cache backend consulted by any node declaring
// cache=true.
func WithCache(c engine.CacheBackend) Option { return func(cfg *config) { cfg.cache = c } }

// WithStepSink attaches an external step-record persister.
func WithStepSink(s engine.StepSink) Option { return func(cfg *config) { cfg.sink = s } }

// WithDefaultProcessors installs event processors applied to every Run/Map
// call that does not override EventProcessors itself.
func WithDefaultProcessors(procs ...emit.Processor) Option {
	return func(cfg *config) { cfg.defaultProcs = procs }
}

// NewSequential builds a single-threaded Runner: it rejects graphs
// containing async nodes.
func NewSequential(opts ...Option) *Runner {
	return newRunner(engine.ModeSequential, opts...)
}

// NewConcurrent builds a Runner whose superstep batches execute with
// bounded fan-out.
func NewConcurrent(opts ...Option) *Runner {
	return newRunner(engine.ModeConcurrent, opts...)
}

func newRunner(mode engine.Mode, opts ...Option) *Runner {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	schedOpts := []engine.SchedulerOption{engine.WithMode(mode)}
	if cfg.cache != nil {
		schedOpts = append(schedOpts, engine.WithCacheBackend(cfg.cache))
	}
	if cfg.sink != nil {
		schedOpts = append(schedOpts, engine.WithStepSink(cfg.sink))
	}
	return &Runner{
		sched:        engine.New(schedOpts...),
		mode:         mode,
		defaultProcs: cfg.defaultProcs,
	}
}

// Values is the free-form keyword-argument bag passed alongside the
// `values` map. Keys duplicated between the two, or colliding with a
// reserved runner option, are rejected.
type Values map[string]any

// ErrDuplicateKey fires when the same input name is supplied in both the
// `values` map and the free-form kwargs bag.
type ErrDuplicateKey struct{ Key string }

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("runner: key %q supplied in both values and kwargs", e.Key)
}

// ErrReservedName fires when a caller attempts to pass a reserved run
// option (select, entrypoint, on_missing, ...) as a plain input key via
// kwargs instead of through the dedicated RunOption. Inputs that genuinely
// share a reserved name must be passed inside the values map.
type ErrReservedName struct{ Key string }

func (e *ErrReservedName) Error() string {
	return fmt.Sprintf("runner: %q is a reserved run option name and cannot be used as a kwarg; pass it inside values", e.Key)
}

// mergeValues combines `values` and `kwargs`, rejecting duplicate keys
// between the two and reserved-option names supplied via kwargs.
func mergeValues(values node.Values, kwargs Values) (node.Values, error) {
	out := make(node.Values, len(values)+len(kwargs))
	for k, v := range values {
		out[k] = v
	}
	for k, v := range kwargs {
		if engine.ReservedNames[k] {
			return nil, &ErrReservedName{Key: k}
		}
		if _, dup := out[k]; dup {
			return nil, &ErrDuplicateKey{Key: k}
		}
		out[k] = v
	}
	return out, nil
}

// Run validates option names, composes per-run options with this Runner's
// defaults, and delegates to the underlying Scheduler.
func (r *Runner) Run(ctx context.Context, g *graph.Graph, values node.Values, kwargs Values, opts ...engine.RunOption) (engine.RunResult, error) {
	merged, err := mergeValues(values, kwargs)
	if err != nil {
		return engine.RunResult{}, err
	}
	finalOpts := r.withDefaults(opts)
	return r.sched.Run(ctx, g, merged, finalOpts...)
}

// withDefaults prepends this Runner's default event processors so an
// explicit WithEventProcessors in opts still wins (later options win in
// engine.RunOptions's apply order).
func (r *Runner) withDefaults(opts []engine.RunOption) []engine.RunOption {
	if len(r.defaultProcs) == 0 {
		return opts
	}
	return append([]engine.RunOption{engine.WithEventProcessors(r.defaultProcs...)}, opts...)
}

// Mode reports whether this Runner schedules sequentially or concurrently.
func (r *Runner) Mode() engine.Mode { return r.mode }
