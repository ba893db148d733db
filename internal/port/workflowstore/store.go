// Package workflowstore defines the port for workflow template lookup.
package workflowstore

import (
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/domain/workflow"
)

// Store maps deliverable types onto workflow templates.
type Store interface {
	Template(d orchestration.DeliverableType) (workflow.Template, bool)
}
