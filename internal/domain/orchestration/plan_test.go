package orchestration_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

func twoPhasePlan() orchestration.Plan {
	return orchestration.Plan{
		ID: "p",
		Phases: []orchestration.Phase{
			{ID: "research", Tasks: []orchestration.Task{{ID: "research.a"}, {ID: "research.b"}}},
			{ID: "write", DependsOn: []string{"research"}, Tasks: []orchestration.Task{{ID: "write.c"}}},
		},
		TotalAgents: 3,
	}
}

func TestPlanValidate(t *testing.T) {
	p := twoPhasePlan()
	if err := p.Validate(); err != nil {
		t.Fatalf("valid plan rejected: %v", err)
	}
	if p.TaskCount() != 3 {
		t.Fatalf("TaskCount = %d, want 3", p.TaskCount())
	}
}

func TestPlanValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*orchestration.Plan)
		want   string
	}{
		{"total mismatch", func(p *orchestration.Plan) { p.TotalAgents = 2 }, "does not match"},
		{"forward dependency", func(p *orchestration.Plan) { p.Phases[0].DependsOn = []string{"write"} }, "does not precede"},
		{"duplicate task", func(p *orchestration.Plan) { p.Phases[1].Tasks[0].ID = "research.a" }, "more than once"},
		{"duplicate phase", func(p *orchestration.Plan) { p.Phases[1].ID = "research"; p.Phases[1].DependsOn = nil }, "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := twoPhasePlan()
			tt.modify(&p)
			err := p.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPlanValidateEmpty(t *testing.T) {
	p := orchestration.Plan{Phases: []orchestration.Phase{{ID: "x"}}}
	if err := p.Validate(); !errors.Is(err, orchestration.ErrEmptyPlan) {
		t.Fatalf("expected ErrEmptyPlan, got %v", err)
	}
}
