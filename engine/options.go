package engine

import "github.com/gilad-rubin/hypergraph-sub004/emit"

// OverridePolicy governs a provided value that collides with a still-runnable
// internal producer.
type OverridePolicy int

const (
	OverrideWarn OverridePolicy = iota
	OverrideIgnore
	OverrideError
)

// ErrorPolicy governs what happens when a node's Call returns an error.
type ErrorPolicy int

const (
	ErrorRaise ErrorPolicy = iota
	ErrorContinue
)

// Mode selects sequential or bounded-concurrent execution of each
// superstep's ready batch.
type Mode int

const (
	ModeSequential Mode = iota
	ModeConcurrent
)

// RunOptions composes every per-run option. Its option names are reserved
// and may not be reused as input keys.
type RunOptions struct {
	Select             []string
	Entrypoint         string
	OnMissing          string // reserved for forward compatibility with richer missing-input policies
	OnInternalOverride OverridePolicy
	MaxIterations      int
	MaxConcurrency     int
	ErrorHandling      ErrorPolicy
	EventProcessors    []emit.Processor
}

// ReservedNames lists run-option identifiers that may never be used as a
// plain input key passed via free keyword arguments; inputs that genuinely
// carry one of these names must be passed through the values map.
var ReservedNames = map[string]bool{
	"select": true, "entrypoint": true, "on_missing": true,
	"on_internal_override": true, "max_iterations": true, "max_concurrency": true,
	"error_handling": true, "event_processors": true,
}

// RunOption configures one field of RunOptions.
type RunOption func(*RunOptions)

func WithSelect(outputs ...string) RunOption   { return func(o *RunOptions) { o.Select = outputs } }
func WithEntrypoint(name string) RunOption     { return func(o *RunOptions) { o.Entrypoint = name } }
func WithOnInternalOverride(p OverridePolicy) RunOption {
	return func(o *RunOptions) { o.OnInternalOverride = p }
}
func WithMaxIterations(n int) RunOption   { return func(o *RunOptions) { o.MaxIterations = n } }
func WithMaxConcurrency(n int) RunOption  { return func(o *RunOptions) { o.MaxConcurrency = n } }
func WithErrorHandling(p ErrorPolicy) RunOption {
	return func(o *RunOptions) { o.ErrorHandling = p }
}
func WithEventProcessors(procs ...emit.Processor) RunOption {
	return func(o *RunOptions) { o.EventProcessors = procs }
}

func defaultOptions() RunOptions {
	return RunOptions{
		OnInternalOverride: OverrideWarn,
		MaxIterations:      1000,
		MaxConcurrency:     1,
		ErrorHandling:      ErrorRaise,
	}
}
