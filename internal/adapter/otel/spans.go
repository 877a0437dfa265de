package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StartRunSpan starts a span covering one orchestrated run.
func StartRunSpan(ctx context.Context, runID, spaceID, sessionID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("space.id", spaceID),
			attribute.String("session.id", sessionID),
		),
	)
}

// StartRetrievalSpan starts a span for a context provider call.
func StartRetrievalSpan(ctx context.Context, providerID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "retrieval",
		trace.WithAttributes(
			attribute.String("retrieval.provider", providerID),
		),
	)
}

// StartDelegationSpan starts a span for one delegated task.
func StartDelegationSpan(ctx context.Context, runID, taskType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "delegation",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("delegation.type", taskType),
		),
	)
}

// StartExecuteSpan starts a span for a provider runtime execution.
func StartExecuteSpan(ctx context.Context, providerID, modelID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "execute",
		trace.WithAttributes(
			attribute.String("runtime.provider", providerID),
			attribute.String("runtime.model", modelID),
		),
	)
}
