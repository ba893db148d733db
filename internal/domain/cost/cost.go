// Package cost defines the cost breakdown of an orchestration run.
package cost

// Breakdown aggregates execution cost in USD along three axes.
type Breakdown struct {
	Total   float64            `json:"total"`
	ByAgent map[string]float64 `json:"by_agent"`
	ByModel map[string]float64 `json:"by_model"`
	ByPhase map[string]float64 `json:"by_phase"`
}

// NewBreakdown returns an empty breakdown with initialized maps.
func NewBreakdown() Breakdown {
	return Breakdown{
		ByAgent: make(map[string]float64),
		ByModel: make(map[string]float64),
		ByPhase: make(map[string]float64),
	}
}

// Add records one execution's cost. Zero amounts still register their keys
// so failed executions appear in the breakdown.
func (b *Breakdown) Add(agentID, modelID, phase string, amount float64) {
	if b.ByAgent == nil {
		*b = NewBreakdown()
	}
	b.Total += amount
	b.ByAgent[agentID] += amount
	b.ByModel[modelID] += amount
	b.ByPhase[phase] += amount
}
