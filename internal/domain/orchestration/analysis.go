package orchestration

import (
	"errors"
	"fmt"

	"github.com/Strob0t/AgentForge/internal/domain/agent"
)

// ErrDecode indicates a model-produced analysis failed schema validation.
var ErrDecode = errors.New("analysis decode failed")

// DeliverableType is the kind of artifact a run produces.
type DeliverableType string

const (
	DeliverablePresentation DeliverableType = "presentation"
	DeliverableEssay        DeliverableType = "essay"
	DeliverableArticle      DeliverableType = "article"
	DeliverableSermon       DeliverableType = "sermon"
	DeliverableCourse       DeliverableType = "course"
	DeliverableGeneral      DeliverableType = "general"
)

// DeliverableTypes lists every valid deliverable type.
var DeliverableTypes = []DeliverableType{
	DeliverablePresentation, DeliverableEssay, DeliverableArticle,
	DeliverableSermon, DeliverableCourse, DeliverableGeneral,
}

// Valid reports whether d is a known deliverable type.
func (d DeliverableType) Valid() bool {
	for _, t := range DeliverableTypes {
		if d == t {
			return true
		}
	}
	return false
}

// MaxEstimatedAgents bounds the agent count a model may claim.
const MaxEstimatedAgents = 20

// Analysis is the structured reading of a request. It is produced once per
// run and not modified afterwards.
type Analysis struct {
	DeliverableType   DeliverableType    `json:"deliverable_type"`
	Capabilities      []agent.Capability `json:"capabilities"`
	Complexity        agent.Complexity   `json:"complexity"`
	SuggestedWorkflow string             `json:"suggested_workflow"`
	EstimatedAgents   int                `json:"estimated_agents"`
	RequiresImages    bool               `json:"requires_images"`
	Metadata          map[string]any     `json:"metadata,omitempty"`
}

// Validate enforces the analysis schema.
func (a *Analysis) Validate() error {
	if !a.DeliverableType.Valid() {
		return fmt.Errorf("%w: deliverable_type %q", ErrDecode, a.DeliverableType)
	}
	if len(a.Capabilities) == 0 {
		return fmt.Errorf("%w: capabilities must not be empty", ErrDecode)
	}
	for _, c := range a.Capabilities {
		if !c.Valid() {
			return fmt.Errorf("%w: capability %q", ErrDecode, c)
		}
	}
	if !a.Complexity.Valid() {
		return fmt.Errorf("%w: complexity %q", ErrDecode, a.Complexity)
	}
	if a.EstimatedAgents < 1 || a.EstimatedAgents > MaxEstimatedAgents {
		return fmt.Errorf("%w: estimated_agents %d out of range", ErrDecode, a.EstimatedAgents)
	}
	return nil
}

// IsFallback reports whether the analysis is the default produced after a
// decode or transport failure.
func (a *Analysis) IsFallback() bool {
	v, _ := a.Metadata["fallback"].(bool)
	return v
}

// DefaultAnalysis is the conservative analysis used when the reasoning
// step's output cannot be trusted. The hint is honoured when valid.
func DefaultAnalysis(hint DeliverableType, reason string) Analysis {
	dt := DeliverableGeneral
	if hint.Valid() {
		dt = hint
	}
	return Analysis{
		DeliverableType:   dt,
		Capabilities:      []agent.Capability{agent.CapabilityResearch, agent.CapabilityContentWriting},
		Complexity:        agent.ComplexityModerate,
		SuggestedWorkflow: string(dt),
		EstimatedAgents:   3,
		Metadata: map[string]any{
			"fallback":        true,
			"fallback_reason": reason,
		},
	}
}
