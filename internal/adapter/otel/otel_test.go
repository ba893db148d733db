package otel_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	cfotel "github.com/Strob0t/AgentForge/internal/adapter/otel"
	"github.com/Strob0t/AgentForge/internal/config"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := cfotel.Setup(context.Background(), config.OTel{Enabled: false})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewMetrics(t *testing.T) {
	m, err := cfotel.NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	if m.OrchestrationsStarted == nil || m.ExecutionsFailed == nil || m.OrchestrationCost == nil {
		t.Fatal("expected all instruments to be created")
	}
	m.OrchestrationsStarted.Add(context.Background(), 1)
}

func TestSpansNest(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, root := cfotel.StartOrchestrationSpan(context.Background(), "s1", "u1")
	ctx, phase := cfotel.StartPhaseSpan(ctx, "research", true, 2)
	_, task := cfotel.StartTaskSpan(ctx, "research.research-specialist", "research-specialist", "m")
	task.End()
	phase.End()
	root.End()

	ended := sr.Ended()
	if len(ended) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(ended))
	}
	if ended[0].Name() != "task" || ended[2].Name() != "orchestrate" {
		t.Fatalf("unexpected span order: %s, %s", ended[0].Name(), ended[2].Name())
	}
	if ended[0].Parent().SpanID() != ended[1].SpanContext().SpanID() {
		t.Fatal("task span should be a child of the phase span")
	}
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	h := cfotel.HTTPMiddleware("agentforge")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}
