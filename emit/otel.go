package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OtelProcessor turns each Event into a point-in-time span: span name is
// the event kind, standard fields and Meta become attributes, and an
// "error" meta key sets span status.
type OtelProcessor struct {
	tracer trace.Tracer
}

// NewOtelProcessor builds an OtelProcessor over tracer (e.g.
// otel.Tracer("hypergraph")).
func NewOtelProcessor(tracer trace.Tracer) *OtelProcessor {
	return &OtelProcessor{tracer: tracer}
}

func (o *OtelProcessor) OnEvent(ev Event) {
	ctx := context.Background()
	_, span := o.tracer.Start(ctx, ev.Kind.String())
	defer span.End()

	span.SetAttributes(
		attribute.String("run_id", ev.RunID),
		attribute.Int("step", ev.Step),
		attribute.String("node_id", ev.NodeID),
	)
	if ev.ParentSpanID != "" {
		span.SetAttributes(attribute.String("parent_span_id", ev.ParentSpanID))
	}
	for k, v := range ev.Meta {
		span.SetAttributes(attribute.String("meta."+k, fmt.Sprintf("%v", v)))
	}
	if errVal, ok := ev.Meta["error"]; ok {
		msg := fmt.Sprintf("%v", errVal)
		span.SetStatus(codes.Error, msg)
		span.RecordError(fmt.Errorf("%s", msg))
	}
}

func (o *OtelProcessor) Shutdown(ctx context.Context) error { return nil }
