package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	cfotel "github.com/Strob0t/AgentForge/internal/adapter/otel"
	"github.com/Strob0t/AgentForge/internal/config"
	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/agentcatalog"
	"github.com/Strob0t/AgentForge/internal/port/llm"
	"github.com/Strob0t/AgentForge/internal/port/modelpolicy"
)

// Executor runs a plan phase by phase and records one Execution per task.
type Executor struct {
	backend     llm.Backend
	catalog     agentcatalog.Catalog
	policy      modelpolicy.Policy
	orchCfg     *config.Orchestrator
	onExecution func(ctx context.Context, e orchestration.Execution)
	now         func() time.Time
}

// NewExecutor creates an Executor with all dependencies.
func NewExecutor(
	backend llm.Backend,
	catalog agentcatalog.Catalog,
	policy modelpolicy.Policy,
	orchCfg *config.Orchestrator,
) *Executor {
	return &Executor{
		backend: backend,
		catalog: catalog,
		policy:  policy,
		orchCfg: orchCfg,
		now:     time.Now,
	}
}

// SetOnExecution registers a callback invoked as each task settles. It may be
// called concurrently from a parallel phase.
func (x *Executor) SetOnExecution(fn func(ctx context.Context, e orchestration.Execution)) {
	x.onExecution = fn
}

// runResults is the private, append-only results map of one run, keyed by
// task id and by phase id.
type runResults struct {
	mu     sync.Mutex
	tasks  map[string]orchestration.Execution
	phases map[string]orchestration.PhaseResult
}

func newRunResults() *runResults {
	return &runResults{
		tasks:  make(map[string]orchestration.Execution),
		phases: make(map[string]orchestration.PhaseResult),
	}
}

func (r *runResults) putTask(e orchestration.Execution) {
	r.mu.Lock()
	r.tasks[e.ID] = e
	r.mu.Unlock()
}

func (r *runResults) putPhase(p orchestration.PhaseResult) {
	r.mu.Lock()
	r.phases[p.PhaseID] = p
	r.mu.Unlock()
}

// resolve serializes the successful outputs behind ids. An id may name a
// task or a whole phase. The second return lists the ids that were found.
func (r *runResults) resolve(ids []string) ([]dependencyOutput, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []dependencyOutput
	var found []string
	for _, id := range ids {
		if e, ok := r.tasks[id]; ok {
			found = append(found, id)
			if e.Succeeded() {
				out = append(out, dependencyOutput{Label: e.AgentName, Output: promptSafeOutput(e.Text())})
			}
			continue
		}
		if p, ok := r.phases[id]; ok {
			found = append(found, id)
			for i := range p.Executions {
				e := &p.Executions[i]
				if e.Succeeded() {
					out = append(out, dependencyOutput{
						Label:  fmt.Sprintf("%s: %s", p.PhaseName, e.AgentName),
						Output: promptSafeOutput(e.Text()),
					})
				}
			}
		}
	}
	return out, found
}

// Execute runs every phase in plan order and returns executions in declared
// task order. Task failures are recorded, never returned.
func (x *Executor) Execute(ctx context.Context, plan *orchestration.Plan, req *orchestration.Request) []orchestration.Execution {
	results := newRunResults()
	all := make([]orchestration.Execution, 0, plan.TaskCount())

	for i := range plan.Phases {
		phase := &plan.Phases[i]
		phaseCtx, span := cfotel.StartPhaseSpan(ctx, phase.ID, phase.Parallel, len(phase.Tasks))

		var execs []orchestration.Execution
		if phase.Parallel {
			execs = x.runParallel(phaseCtx, phase, req, results)
		} else {
			execs = x.runSequential(phaseCtx, phase, req, results)
		}
		span.End()

		pr := orchestration.PhaseResult{
			PhaseID:    phase.ID,
			PhaseName:  phase.Name,
			TaskIDs:    make([]string, len(phase.Tasks)),
			Executions: execs,
		}
		for j := range phase.Tasks {
			pr.TaskIDs[j] = phase.Tasks[j].ID
		}
		results.putPhase(pr)
		all = append(all, execs...)

		slog.InfoContext(ctx, "phase finished",
			"phase", phase.ID,
			"tasks", len(execs),
			"failed", countFailed(execs),
		)
	}
	return all
}

func (x *Executor) runParallel(ctx context.Context, phase *orchestration.Phase, req *orchestration.Request, results *runResults) []orchestration.Execution {
	execs := make([]orchestration.Execution, len(phase.Tasks))

	var g errgroup.Group
	if x.orchCfg.MaxParallel > 0 {
		g.SetLimit(x.orchCfg.MaxParallel)
	}
	for i := range phase.Tasks {
		task := &phase.Tasks[i]
		g.Go(func() error {
			e := x.runTask(ctx, phase, task, task.Dependencies, req, results)
			results.putTask(e)
			execs[i] = e
			return nil
		})
	}
	_ = g.Wait()
	return execs
}

func (x *Executor) runSequential(ctx context.Context, phase *orchestration.Phase, req *orchestration.Request, results *runResults) []orchestration.Execution {
	execs := make([]orchestration.Execution, 0, len(phase.Tasks))
	for i := range phase.Tasks {
		task := &phase.Tasks[i]
		deps := make([]string, 0, len(task.Dependencies)+i)
		deps = append(deps, task.Dependencies...)
		for j := range i {
			deps = append(deps, phase.Tasks[j].ID)
		}
		e := x.runTask(ctx, phase, task, deps, req, results)
		results.putTask(e)
		execs = append(execs, e)
	}
	return execs
}

// runTask executes one task under its own timeout. Every failure, including
// a panic in the backend, becomes a failed Execution.
func (x *Executor) runTask(ctx context.Context, phase *orchestration.Phase, task *orchestration.Task, deps []string, req *orchestration.Request, results *runResults) (exec orchestration.Execution) {
	start := x.now()
	parent := ctx
	exec = orchestration.Execution{
		ID:        task.ID,
		AgentID:   task.AgentID,
		AgentName: task.AgentID,
		ModelID:   task.ModelID,
		PhaseID:   phase.ID,
		PhaseName: phase.Name,
		Input:     orchestration.ExecutionInput{Task: task.Text},
		Timestamp: start,
	}

	ctx, span := cfotel.StartTaskSpan(ctx, task.ID, task.AgentID, task.ModelID)
	defer span.End()

	if x.orchCfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.orchCfg.TaskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			exec = failed(exec, fmt.Errorf("panic: %v", r), x.now().Sub(start))
		}
		if !exec.Success {
			span.SetStatus(codes.Error, exec.Error)
			slog.WarnContext(ctx, "agent task failed", "task_id", task.ID, "agent_id", task.AgentID, "error", exec.Error)
		}
		if x.onExecution != nil {
			x.onExecution(parent, exec)
		}
	}()

	desc, ok := x.catalog.Lookup(task.AgentID)
	if !ok {
		return failed(exec, fmt.Errorf("%w: %s", agent.ErrAgentNotFound, task.AgentID), x.now().Sub(start))
	}
	if desc.Name != "" {
		exec.AgentName = desc.Name
	}
	mode, err := desc.Category.Mode()
	if err != nil {
		return failed(exec, err, x.now().Sub(start))
	}

	depOutputs, found := results.resolve(deps)
	exec.Input.Context = found

	var out string
	var tokens int
	switch mode {
	case agent.ModeImage:
		out, err = x.generateImage(ctx, task, req, depOutputs, &exec)
	case agent.ModeText:
		out, tokens, err = x.complete(ctx, desc, task, req, depOutputs, &exec)
	}
	elapsed := x.now().Sub(start)
	if err == nil && strings.TrimSpace(out) == "" {
		err = llm.ErrEmptyOutput
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("task timed out after %s: %w", x.orchCfg.TaskTimeout, err)
		}
		return failed(exec, err, elapsed)
	}

	exec.Output = &out
	exec.Success = true
	exec.Tokens = tokens
	exec.Elapsed = elapsed
	exec.Cost = x.policy.EstimateCost(task.ModelID, tokens)
	return exec
}

func (x *Executor) complete(ctx context.Context, desc agent.Descriptor, task *orchestration.Task, req *orchestration.Request, deps []dependencyOutput, exec *orchestration.Execution) (string, int, error) {
	mp := x.policy.Parameters(task.ModelID, desc)
	params := llm.Params{Temperature: mp.Temperature, MaxOutputTokens: mp.MaxOutputTokens}
	prompt := buildTaskPrompt(desc, task, req, deps, x.orchCfg.HistoryTurns)

	var resp llm.Completion
	var err error
	if req.Preferences.GroundingEnabled() {
		resp, err = x.backend.CompleteGrounded(ctx, prompt, task.ModelID, params)
	} else {
		resp, err = x.backend.Complete(ctx, prompt, task.ModelID, params)
	}
	if err != nil {
		return "", 0, err
	}

	tokens := resp.TokensOut
	if tokens <= 0 {
		tokens = orchestration.EstimateTokens(resp.Text)
	}
	if len(resp.Sources) > 0 {
		exec.Metadata = map[string]any{"sources": resp.Sources}
	}
	return resp.Text, tokens, nil
}

// generateImage returns an image reference as the task output: the hosted
// URL or a data URI for inline bytes.
func (x *Executor) generateImage(ctx context.Context, task *orchestration.Task, req *orchestration.Request, deps []dependencyOutput, exec *orchestration.Execution) (string, error) {
	img, err := x.backend.GenerateImage(ctx, llm.ImageRequest{
		Prompt:      buildImagePrompt(task, deps),
		ModelID:     task.ModelID,
		Style:       req.Preferences.ImageStyle,
		AspectRatio: req.Preferences.AspectRatio,
	})
	if err != nil {
		return "", err
	}

	meta := map[string]any{}
	var ref string
	switch {
	case img.URL != "":
		ref = img.URL
		meta["url"] = img.URL
	case len(img.InlineData) > 0:
		ref = "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.InlineData)
		meta["mime_type"] = img.MIMEType
		meta["bytes"] = len(img.InlineData)
	default:
		return "", llm.ErrEmptyOutput
	}
	exec.Metadata = map[string]any{"image": meta}
	return ref, nil
}

func failed(e orchestration.Execution, err error, elapsed time.Duration) orchestration.Execution {
	e.Success = false
	e.Output = nil
	e.Error = err.Error()
	e.Tokens = 0
	e.Cost = 0
	e.Elapsed = elapsed
	return e
}

// promptSafeOutput replaces inline image data, which is useless to a text
// model, with a short placeholder.
func promptSafeOutput(s string) string {
	if strings.HasPrefix(s, "data:") {
		mime, _, _ := strings.Cut(strings.TrimPrefix(s, "data:"), ";")
		return fmt.Sprintf("[generated image, %s]", mime)
	}
	return s
}

func countFailed(execs []orchestration.Execution) int {
	n := 0
	for i := range execs {
		if !execs[i].Success {
			n++
		}
	}
	return n
}
