package emit

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewSDKTracerProvider builds a minimal in-process trace.TracerProvider
// (go.opentelemetry.io/otel/sdk/trace) suitable for feeding NewOtelProcessor
// a real Tracer without requiring a caller to stand up a collector: spans
// are sampled always-on but exported nowhere unless the caller appends its
// own span processor via sdktrace.WithBatcher/WithSyncer. Returns the
// provider's Shutdown func so callers can flush/release it when done.
func NewSDKTracerProvider(opts ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, func(context.Context) error) {
	tp := sdktrace.NewTracerProvider(opts...)
	return tp, tp.Shutdown
}
