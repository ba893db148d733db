package messagequeue

// SessionStatusPayload is the schema for orchestration.session.status messages.
type SessionStatusPayload struct {
	SessionID       string  `json:"session_id"`
	RequesterID     string  `json:"requester_id"`
	Status          string  `json:"status"`
	DeliverableType string  `json:"deliverable_type,omitempty"`
	TotalAgents     int     `json:"total_agents,omitempty"`
	CostUSD         float64 `json:"cost_usd,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// ExecutionCompletedPayload is the schema for orchestration.execution.completed messages.
type ExecutionCompletedPayload struct {
	SessionID   string  `json:"session_id"`
	ExecutionID string  `json:"execution_id"`
	AgentID     string  `json:"agent_id"`
	PhaseID     string  `json:"phase_id"`
	ModelID     string  `json:"model_id"`
	Success     bool    `json:"success"`
	Error       string  `json:"error,omitempty"`
	Tokens      int     `json:"tokens"`
	CostUSD     float64 `json:"cost_usd"`
	ElapsedMS   int64   `json:"elapsed_ms"`
}
