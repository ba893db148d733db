package orchestration

import (
	"time"

	"github.com/Strob0t/AgentForge/internal/domain/cost"
)

// Sections are the fixed slots of a long-form written deliverable.
type Sections struct {
	Title        string `json:"title"`
	Introduction string `json:"introduction"`
	Body         string `json:"body"`
	Conclusion   string `json:"conclusion"`
	SEO          string `json:"seo,omitempty"`
}

// CourseModule is one grouped unit of a course deliverable.
type CourseModule struct {
	Title   string   `json:"title"`
	Lessons []string `json:"lessons"`
}

// AgentOutput pairs an agent's display name with what it produced.
type AgentOutput struct {
	AgentName string `json:"agent_name"`
	Output    string `json:"output"`
}

// Deliverable is the synthesized artifact. Which fields are set depends on Type:
// presentation sets Content and SourceAgent; essay, article and sermon set
// Sections and Content; course sets Modules; general sets Items.
type Deliverable struct {
	Type        DeliverableType `json:"type"`
	Content     string          `json:"content,omitempty"`
	SourceAgent string          `json:"source_agent,omitempty"`
	Sections    *Sections       `json:"sections,omitempty"`
	Modules     []CourseModule  `json:"modules,omitempty"`
	Items       []AgentOutput   `json:"items,omitempty"`
	Warning     string          `json:"warning,omitempty"`
}

// Result is returned to the caller of a completed run.
type Result struct {
	Success         bool            `json:"success"`
	SessionID       string          `json:"session_id"`
	Deliverable     Deliverable     `json:"deliverable"`
	DeliverableType DeliverableType `json:"deliverable_type"`
	Executions      []Execution     `json:"executions"`
	Cost            cost.Breakdown  `json:"cost"`
	Duration        time.Duration   `json:"duration"`
}
