// Package broadcast defines the port for pushing orchestration progress to connected clients.
package broadcast

import "context"

// Event types pushed while a session runs.
const (
	EventSessionStatus      = "session.status"
	EventExecutionCompleted = "execution.completed"
)

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
