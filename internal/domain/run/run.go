// Package run defines the orchestrator run entity, its lifecycle state
// machine, and the pure view-model projection used by display surfaces.
package run

import (
	"time"

	"github.com/overseer-hq/overseer/internal/domain/delegation"
	"github.com/overseer-hq/overseer/internal/domain/providerruntime"
	"github.com/overseer-hq/overseer/internal/domain/retrieval"
)

// Status represents the current lifecycle state of a run.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusInterrupted
}

// Draft is a pull-request draft attached to a completed run.
type Draft struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// Record is one end-to-end orchestrated response to a user prompt.
// It is mutated only through Transition; callers receive and return
// copies, never long-lived references.
type Record struct {
	ID                     string                           `json:"id"`
	SpaceID                string                           `json:"spaceId"`
	SessionID              string                           `json:"sessionId"`
	Prompt                 string                           `json:"prompt"`
	Status                 Status                           `json:"status"`
	StatusTimeline         []Status                         `json:"statusTimeline"`
	CreatedAt              time.Time                        `json:"createdAt"`
	UpdatedAt              time.Time                        `json:"updatedAt"`
	CompletedAt            *time.Time                       `json:"completedAt,omitempty"`
	InterruptedAt          *time.Time                       `json:"interruptedAt,omitempty"`
	ErrorMessage           string                           `json:"errorMessage,omitempty"`
	ContextSnippets        []retrieval.Snippet              `json:"contextSnippets,omitempty"`
	ContextRetrievalError  *retrieval.Error                 `json:"contextRetrievalError,omitempty"`
	ResolvedProviderID     string                           `json:"resolvedProviderId,omitempty"`
	FallbackFromProviderID string                           `json:"fallbackFromProviderId,omitempty"`
	ProviderExecution      *providerruntime.ExecutionRecord `json:"providerExecution,omitempty"`
	Draft                  *Draft                           `json:"draft,omitempty"`
	DraftAppliedAt         *time.Time                       `json:"draftAppliedAt,omitempty"`
	DraftApplyError        string                           `json:"draftApplyError,omitempty"`
	DelegatedTasks         []delegation.Record              `json:"delegatedTasks,omitempty"`
}

// New creates a queued run record for a submitted prompt.
func New(id, spaceID, sessionID, prompt string, at time.Time) Record {
	return Record{
		ID:             id,
		SpaceID:        spaceID,
		SessionID:      sessionID,
		Prompt:         prompt,
		Status:         StatusQueued,
		StatusTimeline: []Status{StatusQueued},
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}
