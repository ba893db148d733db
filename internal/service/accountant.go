package service

import (
	"github.com/Strob0t/AgentForge/internal/domain/cost"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

// Account sums execution cost by agent, model and phase name in one pass.
// Failed executions carry zero cost but still appear in the maps.
func Account(execs []orchestration.Execution) cost.Breakdown {
	b := cost.NewBreakdown()
	for i := range execs {
		e := &execs[i]
		b.Add(e.AgentID, e.ModelID, e.PhaseName, e.Cost)
	}
	return b
}
