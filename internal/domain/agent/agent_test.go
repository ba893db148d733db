package agent_test

import (
	"errors"
	"testing"

	"github.com/Strob0t/AgentForge/internal/domain/agent"
)

func TestCategoryModeIsTotal(t *testing.T) {
	for _, c := range agent.Categories {
		mode, err := c.Mode()
		if err != nil {
			t.Fatalf("category %q: %v", c, err)
		}
		want := agent.ModeText
		if c == agent.CategoryImage {
			want = agent.ModeImage
		}
		if mode != want {
			t.Errorf("category %q: mode %d, want %d", c, mode, want)
		}
	}
}

func TestCategoryModeUnknown(t *testing.T) {
	_, err := agent.Category("juggling").Mode()
	if !errors.Is(err, agent.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestMaxComplexity(t *testing.T) {
	tests := []struct {
		a, b, want agent.Complexity
	}{
		{agent.ComplexitySimple, agent.ComplexityComplex, agent.ComplexityComplex},
		{agent.ComplexityComplex, agent.ComplexityModerate, agent.ComplexityComplex},
		{agent.ComplexitySimple, agent.ComplexitySimple, agent.ComplexitySimple},
		{"", agent.ComplexitySimple, agent.ComplexityModerate},
		{agent.ComplexitySimple, "", agent.ComplexityModerate},
	}
	for _, tt := range tests {
		if got := agent.MaxComplexity(tt.a, tt.b); got != tt.want {
			t.Errorf("MaxComplexity(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDescriptorValidate(t *testing.T) {
	valid := agent.Descriptor{
		ID:           "content-writer",
		Name:         "Content Writer",
		Category:     agent.CategoryWriting,
		Capabilities: []agent.Capability{agent.CapabilityContentWriting},
		Temperature:  0.7,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid descriptor rejected: %v", err)
	}

	bad := valid
	bad.Capabilities = []agent.Capability{"telepathy"}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected unknown capability to be rejected")
	}

	bad = valid
	bad.Category = "mystery"
	if err := bad.Validate(); !errors.Is(err, agent.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}
