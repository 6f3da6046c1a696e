package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "linearbridge"

// StartSessionSpan starts a span covering one session run.
func StartSessionSpan(ctx context.Context, sessionID, action string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "session.run",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("session.action", action),
		),
	)
}
