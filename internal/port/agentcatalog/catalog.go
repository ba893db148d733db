// Package agentcatalog defines the port for looking up specialist agents.
package agentcatalog

import "github.com/Strob0t/AgentForge/internal/domain/agent"

// Catalog is a read-only registry of agent descriptors.
type Catalog interface {
	// Lookup returns the agent with the given id.
	Lookup(id string) (agent.Descriptor, bool)
	// ByCapability returns every agent offering c, ordered by id.
	ByCapability(c agent.Capability) []agent.Descriptor
	// All returns every agent, ordered by id.
	All() []agent.Descriptor
}
