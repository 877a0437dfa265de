// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Close shuts down the queue connection.
	Close() error
}

// Subject constants for run lifecycle events.
const (
	SubjectRunStarted     = "runs.started"
	SubjectRunCompleted   = "runs.completed"
	SubjectRunFailed      = "runs.failed"
	SubjectRunInterrupted = "runs.interrupted"
)

// RunEventPayload is the schema for all runs.* messages.
type RunEventPayload struct {
	RunID      string `json:"run_id"`
	SpaceID    string `json:"space_id"`
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	ProviderID string `json:"provider_id,omitempty"`
}
