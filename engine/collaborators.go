package engine

import (
	"context"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

// CacheBackend is the external cache collaborator contract: a node with
// cache=true is looked up/stored by (node definition hash, canonical input
// digest). Not part of the core; any type
// satisfying this shape works, structurally (package cache provides two).
type CacheBackend interface {
	Get(nodeHash, inputDigest string) (node.Values, bool)
	Put(nodeHash, inputDigest string, out node.Values)
}

// StepStatus is the terminal status recorded for one node execution.
type StepStatus int

const (
	StepCompleted StepStatus = iota
	StepFailed
	StepPaused
	StepStopped
)

// StepRecord is the fixed per-step schema handed to external persisters.
// Written atomically per step; never read back by the scheduler itself.
type StepRecord struct {
	RunID                  string
	NodeName               string
	SuperstepIndex         int
	ConsumedInputVersions  map[string]int
	ProducedOutputVersions map[string]int
	Status                 StepStatus
	PartialOutputs         node.Values
	Error                  string
	Pause                  *PauseInfo
	ChildRunID             string
}

// StepSink is the external step-record persister contract. Invoked at
// NodeEnd/NodeError/Interrupt/StopRequested, in the scheduler's emission
// order.
type StepSink interface {
	Record(ctx context.Context, rec StepRecord) error
}
