// Package sessionstore defines the port for durable orchestration sessions.
package sessionstore

import (
	"context"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

// Store persists sessions. Writes are best effort from the orchestrator's
// point of view and are not transactional with execution.
type Store interface {
	Create(ctx context.Context, s *orchestration.Session) error
	// Update moves a session to status, applying the patch. Implementations
	// reject transitions orchestration.CanTransition forbids.
	Update(ctx context.Context, id string, status orchestration.Status, p orchestration.Patch) error
	// Get returns domain.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*orchestration.Session, error)
}
