package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	cfotel "github.com/Strob0t/AgentForge/internal/adapter/otel"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/logger"
	"github.com/Strob0t/AgentForge/internal/port/broadcast"
	"github.com/Strob0t/AgentForge/internal/port/messagequeue"
	"github.com/Strob0t/AgentForge/internal/port/sessionstore"
)

const allFailedMessage = "every agent execution failed"

// OrchestratorService is the single entry point of an orchestration run.
// It owns the session record for the ids it creates.
type OrchestratorService struct {
	analyzer *Analyzer
	planner  *Planner
	executor *Executor
	store    sessionstore.Store
	hub      broadcast.Broadcaster
	queue    messagequeue.Queue
	metrics  *cfotel.Metrics
	now      func() time.Time
}

// NewOrchestratorService creates an OrchestratorService with all dependencies
// and subscribes it to the executor's per-task results.
func NewOrchestratorService(
	analyzer *Analyzer,
	planner *Planner,
	executor *Executor,
	store sessionstore.Store,
) *OrchestratorService {
	s := &OrchestratorService{
		analyzer: analyzer,
		planner:  planner,
		executor: executor,
		store:    store,
		now:      time.Now,
	}
	executor.SetOnExecution(s.onExecution)
	return s
}

// SetBroadcaster enables live progress events for WebSocket clients.
func (s *OrchestratorService) SetBroadcaster(hub broadcast.Broadcaster) {
	s.hub = hub
}

// SetQueue enables publication of progress events to the message queue.
func (s *OrchestratorService) SetQueue(q messagequeue.Queue) {
	s.queue = q
}

// SetMetrics enables OpenTelemetry counters and histograms.
func (s *OrchestratorService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Session returns a stored session. Unknown ids yield domain.ErrNotFound.
func (s *OrchestratorService) Session(ctx context.Context, id string) (*orchestration.Session, error) {
	return s.store.Get(ctx, id)
}

// Orchestrate runs analyze, plan, execute, synthesize and account for one
// request. Individual agent failures are data in the result; the only error
// returned is *orchestration.Error. A run in which every agent failed ends
// with status failed and Success=false but is still returned as a result.
func (s *OrchestratorService) Orchestrate(ctx context.Context, req *orchestration.Request) (*orchestration.Result, error) {
	start := s.now()
	sessionID := uuid.NewString()
	ctx = logger.WithSessionID(ctx, sessionID)
	ctx, span := cfotel.StartOrchestrationSpan(ctx, sessionID, req.RequesterID)
	defer span.End()

	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, &orchestration.Error{SessionID: sessionID, Stage: orchestration.StageValidate, Err: err}
	}
	if s.metrics != nil {
		s.metrics.OrchestrationsStarted.Add(ctx, 1)
	}

	analysis := s.analyzer.Analyze(ctx, req)
	span.SetAttributes(attribute.String("deliverable.type", string(analysis.DeliverableType)))

	sess := &orchestration.Session{
		ID:        sessionID,
		Request:   *req,
		Analysis:  &analysis,
		Status:    orchestration.StatusPlanning,
		CreatedAt: start,
		UpdatedAt: start,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		slog.ErrorContext(ctx, "create session failed", "error", err)
	}
	s.publishStatus(ctx, req, orchestration.StatusPlanning, messagequeue.SessionStatusPayload{
		DeliverableType: string(analysis.DeliverableType),
	})

	plan, err := s.planner.Plan(ctx, &analysis, req)
	if err != nil {
		return nil, s.abort(ctx, span, req, orchestration.StagePlan, err, start)
	}

	s.updateSession(ctx, sessionID, orchestration.StatusExecuting, orchestration.Patch{Plan: plan})
	s.publishStatus(ctx, req, orchestration.StatusExecuting, messagequeue.SessionStatusPayload{
		DeliverableType: string(analysis.DeliverableType),
		TotalAgents:     plan.TotalAgents,
	})

	execs, err := s.execute(ctx, plan, req)
	if err != nil {
		return nil, s.abort(ctx, span, req, orchestration.StageExecute, err, start)
	}

	deliverable, err := synthesize(execs, &analysis)
	if err != nil {
		return nil, s.abort(ctx, span, req, orchestration.StageSynthesize, err, start)
	}

	result := &orchestration.Result{
		Success:         anySucceeded(execs),
		SessionID:       sessionID,
		Deliverable:     deliverable,
		DeliverableType: analysis.DeliverableType,
		Executions:      execs,
		Cost:            Account(execs),
		Duration:        s.now().Sub(start),
	}

	status := orchestration.StatusCompleted
	patch := orchestration.Patch{Result: result}
	if !result.Success {
		status = orchestration.StatusFailed
		patch.Error = allFailedMessage
		span.SetStatus(codes.Error, allFailedMessage)
	}
	s.updateSession(ctx, sessionID, status, patch)
	s.publishStatus(ctx, req, status, messagequeue.SessionStatusPayload{
		DeliverableType: string(analysis.DeliverableType),
		TotalAgents:     plan.TotalAgents,
		CostUSD:         result.Cost.Total,
		Error:           patch.Error,
	})
	s.recordFinish(ctx, result.Success, result.Duration, result.Cost.Total)

	slog.InfoContext(ctx, "orchestration finished",
		"status", status,
		"deliverable", analysis.DeliverableType,
		"executions", len(execs),
		"failed", countFailed(execs),
		"cost_usd", result.Cost.Total,
		"duration", result.Duration,
	)
	return result, nil
}

// abort marks the session failed and wraps err for the caller.
func (s *OrchestratorService) abort(ctx context.Context, span trace.Span, req *orchestration.Request, stage orchestration.Stage, err error, start time.Time) error {
	sessionID := logger.SessionID(ctx)
	slog.ErrorContext(ctx, "orchestration aborted", "stage", stage, "error", err)
	span.SetStatus(codes.Error, string(stage))

	s.updateSession(ctx, sessionID, orchestration.StatusFailed, orchestration.Patch{Error: err.Error()})
	s.publishStatus(ctx, req, orchestration.StatusFailed, messagequeue.SessionStatusPayload{Error: err.Error()})
	s.recordFinish(ctx, false, s.now().Sub(start), 0)
	return &orchestration.Error{SessionID: sessionID, Stage: stage, Err: err}
}

// execute guards the pipeline against a panic outside the per-task recovery.
func (s *OrchestratorService) execute(ctx context.Context, plan *orchestration.Plan, req *orchestration.Request) (execs []orchestration.Execution, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return s.executor.Execute(ctx, plan, req), nil
}

func synthesize(execs []orchestration.Execution, analysis *orchestration.Analysis) (d orchestration.Deliverable, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("synthesizer panic: %v", r)
		}
	}()
	return Synthesize(execs, analysis), nil
}

func (s *OrchestratorService) updateSession(ctx context.Context, id string, status orchestration.Status, p orchestration.Patch) {
	if err := s.store.Update(ctx, id, status, p); err != nil {
		slog.ErrorContext(ctx, "update session failed", "status", status, "error", err)
	}
}

func (s *OrchestratorService) onExecution(ctx context.Context, e orchestration.Execution) {
	if !e.Success && s.metrics != nil {
		s.metrics.ExecutionsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("agent.id", e.AgentID)))
	}
	payload := messagequeue.ExecutionCompletedPayload{
		SessionID:   logger.SessionID(ctx),
		ExecutionID: e.ID,
		AgentID:     e.AgentID,
		PhaseID:     e.PhaseID,
		ModelID:     e.ModelID,
		Success:     e.Success,
		Error:       e.Error,
		Tokens:      e.Tokens,
		CostUSD:     e.Cost,
		ElapsedMS:   e.Elapsed.Milliseconds(),
	}
	s.emit(ctx, broadcast.EventExecutionCompleted, messagequeue.SubjectExecutionCompleted, payload)
}

func (s *OrchestratorService) publishStatus(ctx context.Context, req *orchestration.Request, status orchestration.Status, payload messagequeue.SessionStatusPayload) {
	payload.SessionID = logger.SessionID(ctx)
	payload.RequesterID = req.RequesterID
	payload.Status = string(status)
	s.emit(ctx, broadcast.EventSessionStatus, messagequeue.SubjectSessionStatus, payload)
}

// emit fans an event out to WebSocket clients and the message queue. Queue
// failures are logged; progress events never affect the run.
func (s *OrchestratorService) emit(ctx context.Context, event, subject string, payload any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, event, payload)
	}
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish event failed", "subject", subject, "error", err)
	}
}

func (s *OrchestratorService) recordFinish(ctx context.Context, success bool, d time.Duration, costUSD float64) {
	if s.metrics == nil {
		return
	}
	if success {
		s.metrics.OrchestrationsCompleted.Add(ctx, 1)
	} else {
		s.metrics.OrchestrationsFailed.Add(ctx, 1)
	}
	s.metrics.OrchestrationDuration.Record(ctx, d.Seconds())
	s.metrics.OrchestrationCost.Record(ctx, costUSD)
}

func anySucceeded(execs []orchestration.Execution) bool {
	for i := range execs {
		if execs[i].Succeeded() {
			return true
		}
	}
	return false
}
