package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentforge"

// Metrics holds all AgentForge metric instruments.
type Metrics struct {
	OrchestrationsStarted   metric.Int64Counter
	OrchestrationsCompleted metric.Int64Counter
	OrchestrationsFailed    metric.Int64Counter
	ExecutionsFailed        metric.Int64Counter
	OrchestrationDuration   metric.Float64Histogram
	OrchestrationCost       metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.OrchestrationsStarted, err = meter.Int64Counter("agentforge.orchestrations.started",
		metric.WithDescription("Number of orchestrations started"))
	if err != nil {
		return nil, err
	}

	m.OrchestrationsCompleted, err = meter.Int64Counter("agentforge.orchestrations.completed",
		metric.WithDescription("Number of orchestrations completed"))
	if err != nil {
		return nil, err
	}

	m.OrchestrationsFailed, err = meter.Int64Counter("agentforge.orchestrations.failed",
		metric.WithDescription("Number of orchestrations failed"))
	if err != nil {
		return nil, err
	}

	m.ExecutionsFailed, err = meter.Int64Counter("agentforge.executions.failed",
		metric.WithDescription("Number of agent executions that failed"))
	if err != nil {
		return nil, err
	}

	m.OrchestrationDuration, err = meter.Float64Histogram("agentforge.orchestration.duration_seconds",
		metric.WithDescription("Orchestration duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.OrchestrationCost, err = meter.Float64Histogram("agentforge.orchestration.cost_usd",
		metric.WithDescription("Orchestration cost in USD"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
