// Package orchestration defines the request, analysis, plan, execution and
// session types of a multi-agent orchestration run.
package orchestration

import (
	"fmt"
	"strings"

	"github.com/Strob0t/AgentForge/internal/domain"
)

// Quality is the caller's requested output polish.
type Quality string

const (
	QualityDraft    Quality = "draft"
	QualityStandard Quality = "standard"
	QualityPremium  Quality = "premium"
)

// Valid reports whether q is a known quality level.
func (q Quality) Valid() bool {
	return q == QualityDraft || q == QualityStandard || q == QualityPremium
}

// Level is a three-step preference scale used for speed and cost sensitivity.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Turn is one prior message of the conversation the request came from.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RequestContext carries optional conversation state and overrides.
type RequestContext struct {
	PriorTurns []Turn `json:"prior_turns,omitempty"`
	// ForcedAgentID bypasses workflow templates and runs one agent directly.
	ForcedAgentID string `json:"forced_agent_id,omitempty"`
}

// Preferences tune model selection and prompting.
type Preferences struct {
	Quality         Quality `json:"quality,omitempty"`
	SpeedPriority   Level   `json:"speed_priority,omitempty"`
	CostSensitivity Level   `json:"cost_sensitivity,omitempty"`
	Audience        string  `json:"audience,omitempty"`
	// Grounding is on unless explicitly set to false.
	Grounding   *bool  `json:"grounding,omitempty"`
	ImageStyle  string `json:"image_style,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

// GroundingEnabled reports whether grounded calls should be used.
func (p Preferences) GroundingEnabled() bool {
	return p.Grounding == nil || *p.Grounding
}

// Request is the single input of an orchestration run.
type Request struct {
	RequesterID     string          `json:"requester_id"`
	Task            string          `json:"task"`
	DeliverableHint DeliverableType `json:"deliverable_hint,omitempty"`
	Context         RequestContext  `json:"context"`
	Preferences     Preferences     `json:"preferences"`
}

// Validate checks the request for required fields and known enum values.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.RequesterID) == "" {
		return fmt.Errorf("requester_id is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Task) == "" {
		return fmt.Errorf("task is required: %w", domain.ErrValidation)
	}
	if r.DeliverableHint != "" && !r.DeliverableHint.Valid() {
		return fmt.Errorf("unknown deliverable hint %q: %w", r.DeliverableHint, domain.ErrValidation)
	}
	if q := r.Preferences.Quality; q != "" && !q.Valid() {
		return fmt.Errorf("unknown quality %q: %w", q, domain.ErrValidation)
	}
	for _, lvl := range []Level{r.Preferences.SpeedPriority, r.Preferences.CostSensitivity} {
		if lvl != "" && lvl != LevelLow && lvl != LevelMedium && lvl != LevelHigh {
			return fmt.Errorf("unknown preference level %q: %w", lvl, domain.ErrValidation)
		}
	}
	return nil
}
