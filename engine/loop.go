package engine

import (
	"context"

	"github.com/gilad-rubin/hypergraph-sub004/emit"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// loop drives supersteps to quiescence, a gate-requested END termination, a
// pause, or the max_iterations budget.
func (r *run) loop(ctx context.Context) (RunResult, error) {
	for {
		if ctx.Err() != nil {
			// Draining: no new nodes are launched. If runnable work still
			// remained, the run ends stopped; a quiescent graph is simply
			// complete.
			if len(r.computeReady()) > 0 {
				r.stopped = true
				r.emit(emit.KindStopRequested, "", map[string]any{"reason": ctx.Err().Error()})
				r.recordStop(ctx)
			}
			break
		}

		r.step++
		if r.step > r.opts.MaxIterations {
			return RunResult{}, &InfiniteLoopError{MaxIterations: r.opts.MaxIterations}
		}

		r.activate()
		ready := r.computeReady()
		if len(ready) == 0 {
			break
		}

		if err := r.executeBatch(ctx, ready); err != nil {
			return RunResult{}, err
		}
		if r.pause != nil {
			break
		}
	}
	return RunResult{Outputs: r.projectOutputs()}, nil
}

// projectOutputs returns the selected outputs (or every active node's
// outputs, absent a selection) from the final store snapshot.
func (r *run) projectOutputs() node.Values {
	snap := r.store.Snapshot()
	sel := r.g.Selection()
	if len(sel) == 0 {
		active := r.g.ActiveNodes()
		out := node.Values{}
		for name, isActive := range active {
			if !isActive {
				continue
			}
			n, _ := r.g.Node(name)
			for _, o := range n.Outputs() {
				if v, ok := snap[o]; ok {
					out[o] = v
				}
			}
		}
		return out
	}
	out := node.Values{}
	for _, o := range sel {
		if v, ok := snap[o]; ok {
			out[o] = v
		}
	}
	return out
}
