package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventRunStatus  = "run.status"
	EventTaskStatus = "run.task.status"
	EventRunView    = "run.view"
)

// RunStatusEvent is broadcast on every run lifecycle transition.
type RunStatusEvent struct {
	RunID     string `json:"run_id"`
	SpaceID   string `json:"space_id"`
	SessionID string `json:"session_id,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// TaskStatusEvent is broadcast when a delegated task changes status.
type TaskStatusEvent struct {
	RunID  string `json:"run_id"`
	TaskID string `json:"task_id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
