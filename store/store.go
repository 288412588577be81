// Package store provides external step-record persistence and run
// checkpointing. Sink implementations satisfy
// engine.StepSink structurally; nothing in engine imports this package.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/gilad-rubin/hypergraph-sub004/engine"
	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// ErrNotFound is returned when a requested run or checkpoint does not exist.
var ErrNotFound = errors.New("store: not found")

// Sink is the external step-record persister contract (same shape as
// engine.StepSink, restated here so callers can depend on store without
// importing engine just for the interface name).
type Sink interface {
	Record(ctx context.Context, rec engine.StepRecord) error
}

// Checkpoint is a durable snapshot of one run, sufficient to resume: the
// value store's full snapshot, the current superstep, and any interrupt
// response the run was waiting on when it paused.
type Checkpoint struct {
	RunID     string
	Step      int
	Values    node.Values
	Responses map[string]any
	Timestamp time.Time
}

// CheckpointStore persists and restores run-level checkpoints, letting a
// paused or crashed run resume in a later process.
type CheckpointStore interface {
	Save(ctx context.Context, cp Checkpoint) error
	Load(ctx context.Context, runID string) (Checkpoint, error)
}
