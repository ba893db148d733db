// Package modelpolicy defines the port for model selection and cost estimation.
package modelpolicy

import (
	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

// Criteria drive the choice of a model for one task.
type Criteria struct {
	Complexity      agent.Complexity
	Quality         orchestration.Quality
	SpeedPriority   orchestration.Level
	CostSensitivity orchestration.Level
	RequiresImage   bool
	// AgentDefault is the agent's preferred model, used when the criteria
	// land on the agent's own baseline tier.
	AgentDefault string
	Baseline     agent.Complexity
}

// Params are per-call generation settings.
type Params struct {
	Temperature     float64
	MaxOutputTokens int
}

// Policy selects models and prices their use.
type Policy interface {
	SelectModel(c Criteria) string
	// EstimateCost prices tokens of output on modelID. A negative token
	// count asks for a typical-call estimate; image models are priced per image.
	EstimateCost(modelID string, tokens int) float64
	EstimateComplexity(text string, a agent.Descriptor) agent.Complexity
	ResolveQuality(text string, hint orchestration.Quality) orchestration.Quality
	Parameters(modelID string, a agent.Descriptor) Params
}
