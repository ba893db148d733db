package orchestration_test

import (
	"errors"
	"testing"

	"github.com/Strob0t/AgentForge/internal/domain"
	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

func TestDefaultAnalysis(t *testing.T) {
	a := orchestration.DefaultAnalysis("", "decode")
	if a.DeliverableType != orchestration.DeliverableGeneral {
		t.Errorf("deliverable = %q, want general", a.DeliverableType)
	}
	if a.Complexity != agent.ComplexityModerate || a.EstimatedAgents != 3 {
		t.Errorf("unexpected defaults: %+v", a)
	}
	if len(a.Capabilities) != 2 || a.Capabilities[0] != agent.CapabilityResearch || a.Capabilities[1] != agent.CapabilityContentWriting {
		t.Errorf("capabilities = %v", a.Capabilities)
	}
	if !a.IsFallback() {
		t.Error("expected fallback marker")
	}
	if err := a.Validate(); err != nil {
		t.Errorf("default analysis must validate: %v", err)
	}

	if got := orchestration.DefaultAnalysis(orchestration.DeliverableSermon, "x").DeliverableType; got != orchestration.DeliverableSermon {
		t.Errorf("hint ignored: got %q", got)
	}
	if got := orchestration.DefaultAnalysis("podcast", "x").DeliverableType; got != orchestration.DeliverableGeneral {
		t.Errorf("invalid hint accepted: got %q", got)
	}
}

func TestAnalysisValidate(t *testing.T) {
	a := orchestration.DefaultAnalysis(orchestration.DeliverableEssay, "")
	a.EstimatedAgents = 0
	if err := a.Validate(); !errors.Is(err, orchestration.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	a.EstimatedAgents = 4
	a.Complexity = "extreme"
	if err := a.Validate(); !errors.Is(err, orchestration.ErrDecode) {
		t.Fatalf("expected ErrDecode for complexity, got %v", err)
	}
}

func TestRequestValidate(t *testing.T) {
	ok := orchestration.Request{RequesterID: "u1", Task: "Write an essay on hope"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	missing := orchestration.Request{RequesterID: "u1", Task: "   "}
	if err := missing.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	badHint := ok
	badHint.DeliverableHint = "podcast"
	if err := badHint.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for hint, got %v", err)
	}
}

func TestGroundingDefault(t *testing.T) {
	var p orchestration.Preferences
	if !p.GroundingEnabled() {
		t.Fatal("grounding should default to on")
	}
	off := false
	p.Grounding = &off
	if p.GroundingEnabled() {
		t.Fatal("explicit opt-out ignored")
	}
}
