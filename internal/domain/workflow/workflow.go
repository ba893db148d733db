// Package workflow defines the static templates that map a deliverable type
// onto ordered phases of agent work.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoPhases         = errors.New("workflow has no phases")
	ErrPhaseMissingID   = errors.New("phase id is required")
	ErrPhaseNoAgents    = errors.New("phase has no agents")
	ErrDuplicatePhase   = errors.New("duplicate phase id")
	ErrStepMissingAgent = errors.New("agent_id is required")
	ErrStepMissingText  = errors.New("task_template is required")
	ErrDependencyOrder  = errors.New("depends_on must reference an earlier phase")
	ErrDuplicateAgent   = errors.New("agent appears twice in one phase")
)

// Step is one agent entry of a phase template.
type Step struct {
	AgentID      string `json:"agent_id" yaml:"agent_id"`
	TaskTemplate string `json:"task_template" yaml:"task_template"`
}

// PhaseTemplate describes one phase of a workflow.
type PhaseTemplate struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Parallel  bool     `json:"parallel" yaml:"parallel"`
	Agents    []Step   `json:"agents" yaml:"agents"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on"`
	Priority  int      `json:"priority,omitempty" yaml:"priority"`
}

// Template is the blueprint for one deliverable type.
type Template struct {
	Deliverable string          `json:"deliverable" yaml:"deliverable"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Phases      []PhaseTemplate `json:"phases" yaml:"phases"`
}

// Validate checks ids, steps, and that every depends_on names a phase
// declared before it, so declared order is a valid execution order.
func (t *Template) Validate() error {
	if len(t.Phases) == 0 {
		return ErrNoPhases
	}
	seen := make(map[string]bool, len(t.Phases))
	for i := range t.Phases {
		p := &t.Phases[i]
		if p.ID == "" {
			return fmt.Errorf("phase %d: %w", i, ErrPhaseMissingID)
		}
		if seen[p.ID] {
			return fmt.Errorf("phase %s: %w", p.ID, ErrDuplicatePhase)
		}
		if len(p.Agents) == 0 {
			return fmt.Errorf("phase %s: %w", p.ID, ErrPhaseNoAgents)
		}
		agents := make(map[string]bool, len(p.Agents))
		for j, s := range p.Agents {
			if s.AgentID == "" {
				return fmt.Errorf("phase %s step %d: %w", p.ID, j, ErrStepMissingAgent)
			}
			if strings.TrimSpace(s.TaskTemplate) == "" {
				return fmt.Errorf("phase %s step %d: %w", p.ID, j, ErrStepMissingText)
			}
			if agents[s.AgentID] {
				return fmt.Errorf("phase %s agent %s: %w", p.ID, s.AgentID, ErrDuplicateAgent)
			}
			agents[s.AgentID] = true
		}
		for _, dep := range p.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("phase %s -> %s: %w", p.ID, dep, ErrDependencyOrder)
			}
		}
		seen[p.ID] = true
	}
	return nil
}

// Vars are the values substituted into task templates.
type Vars struct {
	Task        string
	Deliverable string
	Audience    string
}

// Interpolate replaces {{task}}, {{deliverable_type}} and {{audience}} in tpl.
// An empty audience renders as "a general audience".
func Interpolate(tpl string, v Vars) string {
	audience := v.Audience
	if strings.TrimSpace(audience) == "" {
		audience = "a general audience"
	}
	r := strings.NewReplacer(
		"{{task}}", v.Task,
		"{{deliverable_type}}", v.Deliverable,
		"{{audience}}", audience,
	)
	return r.Replace(tpl)
}
