package orchestration

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyPlan is returned when planning yields no runnable task.
var ErrEmptyPlan = errors.New("execution plan has no tasks")

// Task is one agent invocation inside a phase.
type Task struct {
	ID      string `json:"id"`
	AgentID string `json:"agent_id"`
	// Text is the fully interpolated instruction for the agent.
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
	// Dependencies are task ids or phase ids whose outputs feed this task.
	Dependencies  []string `json:"dependencies,omitempty"`
	Priority      int      `json:"priority"`
	EstimatedCost float64  `json:"estimated_cost"`
}

// Phase is an ordered stage of a plan.
type Phase struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Parallel  bool     `json:"parallel"`
	Tasks     []Task   `json:"tasks"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// Plan is the immutable blueprint of a run. Estimates are for display only.
type Plan struct {
	ID                string        `json:"id"`
	Phases            []Phase       `json:"phases"`
	TotalAgents       int           `json:"total_agents"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	EstimatedCost     float64       `json:"estimated_cost"`
}

// TaskCount returns the number of tasks across all phases.
func (p *Plan) TaskCount() int {
	n := 0
	for i := range p.Phases {
		n += len(p.Phases[i].Tasks)
	}
	return n
}

// Validate checks structural invariants: unique ids, every task in exactly
// one phase, phase dependencies pointing at earlier phases, and a
// TotalAgents that matches the task count.
func (p *Plan) Validate() error {
	if len(p.Phases) == 0 || p.TaskCount() == 0 {
		return ErrEmptyPlan
	}
	seenPhase := make(map[string]bool, len(p.Phases))
	seenTask := make(map[string]bool)
	for i := range p.Phases {
		ph := &p.Phases[i]
		if ph.ID == "" {
			return fmt.Errorf("phase %d: id is required", i)
		}
		if seenPhase[ph.ID] {
			return fmt.Errorf("phase %s: duplicate id", ph.ID)
		}
		for _, dep := range ph.DependsOn {
			if !seenPhase[dep] {
				return fmt.Errorf("phase %s: depends on %q which does not precede it", ph.ID, dep)
			}
		}
		seenPhase[ph.ID] = true
		for _, t := range ph.Tasks {
			if seenTask[t.ID] {
				return fmt.Errorf("task %s: appears more than once", t.ID)
			}
			seenTask[t.ID] = true
		}
	}
	if p.TotalAgents != p.TaskCount() {
		return fmt.Errorf("total_agents %d does not match %d tasks", p.TotalAgents, p.TaskCount())
	}
	return nil
}
