package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentForge/internal/config"
	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/domain/workflow"
	"github.com/Strob0t/AgentForge/internal/port/agentcatalog"
	"github.com/Strob0t/AgentForge/internal/port/modelpolicy"
	"github.com/Strob0t/AgentForge/internal/port/workflowstore"
)

const directPhaseID = "direct"

// Planner builds execution plans from workflow templates or a forced agent.
type Planner struct {
	catalog   agentcatalog.Catalog
	workflows workflowstore.Store
	policy    modelpolicy.Policy
	orchCfg   *config.Orchestrator
}

// NewPlanner creates a Planner with all dependencies.
func NewPlanner(
	catalog agentcatalog.Catalog,
	workflows workflowstore.Store,
	policy modelpolicy.Policy,
	orchCfg *config.Orchestrator,
) *Planner {
	return &Planner{
		catalog:   catalog,
		workflows: workflows,
		policy:    policy,
		orchCfg:   orchCfg,
	}
}

// Plan returns a validated plan. Unknown agents in a template are skipped;
// an unknown forced agent is an error wrapping agent.ErrAgentNotFound.
func (p *Planner) Plan(ctx context.Context, analysis *orchestration.Analysis, req *orchestration.Request) (*orchestration.Plan, error) {
	var phases []orchestration.Phase
	var err error
	if id := req.Context.ForcedAgentID; id != "" {
		phases, err = p.forcedPhases(id, req)
	} else {
		phases, err = p.workflowPhases(analysis, req)
	}
	if err != nil {
		return nil, err
	}

	plan := &orchestration.Plan{
		ID:     uuid.NewString(),
		Phases: phases,
	}
	for i := range plan.Phases {
		for _, t := range plan.Phases[i].Tasks {
			plan.EstimatedCost += t.EstimatedCost
		}
	}
	plan.TotalAgents = plan.TaskCount()
	plan.EstimatedDuration = time.Duration(plan.TotalAgents) * p.orchCfg.PerAgentLatency

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("validate plan: %w", err)
	}

	slog.InfoContext(ctx, "plan built",
		"plan_id", plan.ID,
		"deliverable", analysis.DeliverableType,
		"phases", len(plan.Phases),
		"agents", plan.TotalAgents,
		"estimated_cost", plan.EstimatedCost,
	)
	return plan, nil
}

func (p *Planner) forcedPhases(agentID string, req *orchestration.Request) ([]orchestration.Phase, error) {
	desc, ok := p.catalog.Lookup(agentID)
	if !ok {
		return nil, fmt.Errorf("forced agent %q: %w", agentID, agent.ErrAgentNotFound)
	}
	return []orchestration.Phase{{
		ID:       directPhaseID,
		Name:     "Direct",
		Parallel: false,
		Tasks:    []orchestration.Task{p.task(directPhaseID, desc, req.Task, nil, 1, req)},
	}}, nil
}

func (p *Planner) workflowPhases(analysis *orchestration.Analysis, req *orchestration.Request) ([]orchestration.Phase, error) {
	tpl, ok := p.workflows.Template(analysis.DeliverableType)
	if !ok {
		tpl, ok = p.workflows.Template(orchestration.DeliverableGeneral)
		if !ok {
			return nil, fmt.Errorf("no workflow template for %q", analysis.DeliverableType)
		}
		slog.Warn("no workflow template, using general", "deliverable", analysis.DeliverableType)
	}

	vars := workflow.Vars{
		Task:        req.Task,
		Deliverable: string(analysis.DeliverableType),
		Audience:    req.Preferences.Audience,
	}

	kept := make(map[string]bool, len(tpl.Phases))
	phases := make([]orchestration.Phase, 0, len(tpl.Phases))
	for _, pt := range tpl.Phases {
		var deps []string
		for _, d := range pt.DependsOn {
			if kept[d] {
				deps = append(deps, d)
			}
		}

		phase := orchestration.Phase{
			ID:        pt.ID,
			Name:      pt.Name,
			Parallel:  pt.Parallel,
			DependsOn: deps,
		}
		for _, step := range pt.Agents {
			desc, ok := p.catalog.Lookup(step.AgentID)
			if !ok {
				slog.Warn("workflow agent not in catalog, skipping",
					"deliverable", tpl.Deliverable, "phase", pt.ID, "agent_id", step.AgentID)
				continue
			}
			text := workflow.Interpolate(step.TaskTemplate, vars)
			phase.Tasks = append(phase.Tasks, p.task(pt.ID, desc, text, deps, pt.Priority, req))
		}
		if len(phase.Tasks) == 0 {
			slog.Warn("workflow phase has no resolvable agents, dropping", "phase", pt.ID)
			continue
		}
		kept[pt.ID] = true
		phases = append(phases, phase)
	}
	return phases, nil
}

func (p *Planner) task(phaseID string, desc agent.Descriptor, text string, deps []string, priority int, req *orchestration.Request) orchestration.Task {
	model := p.policy.SelectModel(modelpolicy.Criteria{
		Complexity:      p.policy.EstimateComplexity(text, desc),
		Quality:         p.policy.ResolveQuality(req.Task, req.Preferences.Quality),
		SpeedPriority:   req.Preferences.SpeedPriority,
		CostSensitivity: req.Preferences.CostSensitivity,
		RequiresImage:   desc.Category == agent.CategoryImage,
		AgentDefault:    desc.DefaultModel,
		Baseline:        desc.BaselineComplexity,
	})
	return orchestration.Task{
		ID:            phaseID + "." + desc.ID,
		AgentID:       desc.ID,
		Text:          text,
		ModelID:       model,
		Dependencies:  deps,
		Priority:      priority,
		EstimatedCost: p.policy.EstimateCost(model, -1),
	}
}
