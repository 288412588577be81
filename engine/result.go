package engine

import (
	"fmt"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// Status is the terminal classification of a completed or halted run.
type Status int

const (
	StatusCompleted Status = iota
	StatusFailed
	StatusPaused
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PauseInfo is surfaced on a paused RunResult: the value an InterruptNode
// wants to show the caller, the stable key to resume with, and which node
// raised it.
type PauseInfo struct {
	NodeID      string
	Value       any
	ResponseKey string
	// Nested is set when the pause actually originated inside a GraphNode's
	// inner run, propagated upward.
	Nested *PauseInfo
}

// RunResult is the outcome of one Run call.
type RunResult struct {
	RunID   string
	Status  Status
	Outputs node.Values
	Err     error
	Failed  map[string]error // per-node errors recorded under error_handling=continue
	Pause   *PauseInfo
	Steps   int
}

// MapResult is the outcome of one Map call: per-iteration RunResults kept in
// positional order, plus an aggregate status.
type MapResult struct {
	Results []RunResult
	Status  Status
}

// Column projects one output name across every iteration, with nil
// standing in for a failed iteration's missing value.
func (m MapResult) Column(output string) []any {
	out := make([]any, len(m.Results))
	for i, r := range m.Results {
		out[i] = r.Outputs[output]
	}
	return out
}

// Summary is a one-line human-readable report of the run's outcome.
func (r RunResult) Summary() string {
	switch r.Status {
	case StatusCompleted:
		return fmt.Sprintf("run %s completed in %d step(s), %d output(s)", r.RunID, r.Steps, len(r.Outputs))
	case StatusFailed:
		return fmt.Sprintf("run %s failed after %d step(s): %v", r.RunID, r.Steps, r.Err)
	case StatusPaused:
		node := ""
		if r.Pause != nil {
			node = r.Pause.NodeID
		}
		return fmt.Sprintf("run %s paused at %s after %d step(s)", r.RunID, node, r.Steps)
	case StatusStopped:
		return fmt.Sprintf("run %s stopped after %d step(s), %d output(s) retained", r.RunID, r.Steps, len(r.Outputs))
	default:
		return fmt.Sprintf("run %s: unknown status after %d step(s)", r.RunID, r.Steps)
	}
}

// ToDict renders a JSON-serializable projection of the result, excluding
// raw exception objects in favor of their error strings.
func (r RunResult) ToDict() map[string]any {
	out := map[string]any{
		"run_id":  r.RunID,
		"status":  r.Status.String(),
		"outputs": r.Outputs,
		"steps":   r.Steps,
	}
	if r.Err != nil {
		out["error"] = r.Err.Error()
	}
	if len(r.Failed) > 0 {
		failed := make(map[string]string, len(r.Failed))
		for node, err := range r.Failed {
			failed[node] = err.Error()
		}
		out["failed"] = failed
	}
	if r.Pause != nil {
		out["pause"] = map[string]any{
			"node_id":      r.Pause.NodeID,
			"value":        r.Pause.Value,
			"response_key": r.Pause.ResponseKey,
		}
	}
	return out
}

// ToDict renders every iteration's ToDict alongside the aggregate status.
func (m MapResult) ToDict() map[string]any {
	results := make([]map[string]any, len(m.Results))
	for i, r := range m.Results {
		results[i] = r.ToDict()
	}
	return map[string]any{
		"status":  m.Status.String(),
		"results": results,
	}
}
