package runner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/gilad-rubin/hypergraph-sub004/engine"
	"github.com/gilad-rubin/hypergraph-sub004/graph"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// MapMode selects how mapped parameters are combined.
type MapMode string

const (
	MapZip     MapMode = "zip"
	MapProduct MapMode = "product"
)

// MapOptions composes the options accepted by Runner.Map.
type MapOptions struct {
	Mode           MapMode
	Over           []string
	ErrorHandling  engine.ErrorPolicy
	MaxConcurrency int
	RunOptions     []engine.RunOption
}

// MapOption configures one field of MapOptions.
type MapOption func(*MapOptions)

// WithMapMode selects zip (default) or product combination of the mapped
// parameters.
func WithMapMode(m MapMode) MapOption { return func(o *MapOptions) { o.Mode = m } }

// WithMapOver names the input parameters to iterate; every other provided
// input is broadcast unchanged to every iteration.
func WithMapOver(params ...string) MapOption { return func(o *MapOptions) { o.Over = params } }

// WithMapErrorHandling selects raise (default, stop on first failing
// iteration) or continue (collect a failed RunResult per iteration).
func WithMapErrorHandling(p engine.ErrorPolicy) MapOption {
	return func(o *MapOptions) { o.ErrorHandling = p }
}

// WithMapConcurrency bounds how many iterations run concurrently under the
// concurrent runner; required whenever the Runner was built with
// NewConcurrent.
func WithMapConcurrency(n int) MapOption { return func(o *MapOptions) { o.MaxConcurrency = n } }

// WithMapRunOptions forwards engine.RunOptions to every per-iteration Run
// call (e.g. a shared select/entrypoint/max_iterations).
func WithMapRunOptions(opts ...engine.RunOption) MapOption {
	return func(o *MapOptions) { o.RunOptions = opts }
}

// ErrMapConcurrencyRequired fires when Map is called on a concurrent Runner
// without an explicit WithMapConcurrency bound: an unbounded fan-out of
// concurrent iterations is never launched implicitly.
var ErrMapConcurrencyRequired = errors.New("runner: map fan-out under the concurrent runner requires WithMapConcurrency(n > 0)")

// Map fans out one run per combination of the mapped parameters, preserving
// input positional order in the returned MapResult regardless of actual
// completion order.
func (r *Runner) Map(ctx context.Context, g *graph.Graph, values node.Values, kwargs Values, opts ...MapOption) (engine.MapResult, error) {
	mo := MapOptions{Mode: MapZip, ErrorHandling: engine.ErrorRaise}
	for _, o := range opts {
		o(&mo)
	}

	merged, err := mergeValues(values, kwargs)
	if err != nil {
		return engine.MapResult{}, err
	}

	if r.mode == engine.ModeConcurrent && mo.MaxConcurrency <= 0 {
		return engine.MapResult{}, ErrMapConcurrencyRequired
	}

	broadcast := node.Values{}
	for k, v := range merged {
		broadcast[k] = v
	}

	mapped := map[string][]any{}
	for _, p := range mo.Over {
		vs, ok := asAnySlice(merged[p])
		if !ok {
			return engine.MapResult{}, fmt.Errorf("runner: map_over parameter %q is not a list", p)
		}
		mapped[p] = vs
		delete(broadcast, p)
	}

	var combos []map[string]any
	if mo.Mode == MapProduct {
		combos = productCombos(mapped)
	} else {
		combos, err = zipCombos(mapped)
		if err != nil {
			return engine.MapResult{}, err
		}
	}

	results := make([]engine.RunResult, len(combos))

	runIter := func(ctx context.Context, i int) error {
		iterValues := make(node.Values, len(broadcast)+len(combos[i]))
		for k, v := range broadcast {
			iterValues[k] = v
		}
		for k, v := range combos[i] {
			iterValues[k] = v
		}
		res, rerr := r.sched.Run(ctx, g, iterValues, r.withDefaults(mo.RunOptions)...)
		if rerr != nil {
			if mo.ErrorHandling == engine.ErrorRaise {
				return rerr
			}
			results[i] = engine.RunResult{Status: engine.StatusFailed, Err: rerr}
			return nil
		}
		results[i] = res
		return nil
	}

	if r.mode == engine.ModeConcurrent {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(mo.MaxConcurrency)
		for i := range combos {
			i := i
			eg.Go(func() error { return runIter(egCtx, i) })
		}
		if err := eg.Wait(); err != nil {
			return engine.MapResult{}, err
		}
	} else {
		for i := range combos {
			if err := runIter(ctx, i); err != nil {
				return engine.MapResult{}, err
			}
		}
	}

	return engine.MapResult{Results: results, Status: aggregateStatus(results)}, nil
}

// aggregateStatus folds per-iteration statuses with precedence
// FAILED > PAUSED > COMPLETED.
func aggregateStatus(results []engine.RunResult) engine.Status {
	status := engine.StatusCompleted
	for _, r := range results {
		switch r.Status {
		case engine.StatusFailed:
			return engine.StatusFailed
		case engine.StatusPaused:
			status = engine.StatusPaused
		}
	}
	return status
}

// asAnySlice converts any slice-kinded value (including typed slices like
// []int, not just []any) into a []any, the shape zip/product combine over.
func asAnySlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// zipCombos pairs the i-th element of every mapped parameter together,
// requiring equal lengths.
func zipCombos(mapped map[string][]any) ([]map[string]any, error) {
	names := sortedMapKeys(mapped)
	if len(names) == 0 {
		return nil, nil
	}
	n := len(mapped[names[0]])
	for _, name := range names {
		if len(mapped[name]) != n {
			return nil, errors.New("runner: zip mode requires all mapped parameters to have equal length")
		}
	}
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		row := map[string]any{}
		for _, name := range names {
			row[name] = mapped[name][i]
		}
		out[i] = row
	}
	return out, nil
}

// productCombos iterates the cartesian product of every mapped parameter's
// values, in positional order.
func productCombos(mapped map[string][]any) []map[string]any {
	names := sortedMapKeys(mapped)
	if len(names) == 0 {
		return nil
	}
	out := []map[string]any{{}}
	for _, name := range names {
		var next []map[string]any
		for _, row := range out {
			for _, v := range mapped[name] {
				nr := make(map[string]any, len(row)+1)
				for k, rv := range row {
					nr[k] = rv
				}
				nr[name] = v
				next = append(next, nr)
			}
		}
		out = next
	}
	return out
}

func sortedMapKeys(m map[string][]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
