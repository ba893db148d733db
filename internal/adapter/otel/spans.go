package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agentforge"

// StartOrchestrationSpan starts the root span of one orchestration run.
func StartOrchestrationSpan(ctx context.Context, sessionID, requesterID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "orchestrate",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("requester.id", requesterID),
		),
	)
}

// StartPhaseSpan starts a span for one plan phase.
func StartPhaseSpan(ctx context.Context, phaseID string, parallel bool, tasks int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "phase",
		trace.WithAttributes(
			attribute.String("phase.id", phaseID),
			attribute.Bool("phase.parallel", parallel),
			attribute.Int("phase.tasks", tasks),
		),
	)
}

// StartTaskSpan starts a span for one agent task.
func StartTaskSpan(ctx context.Context, taskID, agentID, modelID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "task",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("agent.id", agentID),
			attribute.String("model.id", modelID),
		),
	)
}
