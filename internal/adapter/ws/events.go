package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/AgentForge/internal/logger"
	"github.com/Strob0t/AgentForge/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

// BroadcastEvent marshals a typed event and sends it to clients watching
// the session carried by ctx.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, logger.SessionID(ctx), Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
