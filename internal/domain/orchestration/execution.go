package orchestration

import "time"

// ExecutionInput records what an agent was given.
type ExecutionInput struct {
	Task string `json:"task"`
	// Context lists the task and phase ids whose outputs were in the prompt.
	Context []string `json:"context,omitempty"`
}

// Source is a retrieval citation attached to a grounded output.
type Source struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// Execution is the trace record of one task. A failed execution has a nil
// Output, an Error message and zero tokens and cost.
type Execution struct {
	ID        string         `json:"id"`
	AgentID   string         `json:"agent_id"`
	AgentName string         `json:"agent_name"`
	ModelID   string         `json:"model_id"`
	PhaseID   string         `json:"phase_id"`
	PhaseName string         `json:"phase_name"`
	Input     ExecutionInput `json:"input"`
	Output    *string        `json:"output,omitempty"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Tokens    int            `json:"tokens"`
	Elapsed   time.Duration  `json:"elapsed"`
	Cost      float64        `json:"cost"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Text returns the output, or "" when the execution produced none.
func (e *Execution) Text() string {
	if e.Output == nil {
		return ""
	}
	return *e.Output
}

// Succeeded reports whether the execution produced usable output.
func (e *Execution) Succeeded() bool {
	return e.Success && e.Output != nil
}

// PhaseResult aggregates the executions of one finished phase.
type PhaseResult struct {
	PhaseID    string      `json:"phase_id"`
	PhaseName  string      `json:"phase_name"`
	TaskIDs    []string    `json:"task_ids"`
	Executions []Execution `json:"executions"`
}

// EstimateTokens approximates a token count from text length.
func EstimateTokens(text string) int {
	return len(text) / 4
}
