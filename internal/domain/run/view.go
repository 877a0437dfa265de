package run

import (
	"strings"

	"github.com/overseer-hq/overseer/internal/domain/delegation"
	"github.com/overseer-hq/overseer/internal/domain/providerruntime"
	"github.com/overseer-hq/overseer/internal/domain/retrieval"
)

// NoSnippetsPreview is the fixed context preview shown when a run
// retrieved no snippets.
const NoSnippetsPreview = "No context snippets retrieved"

// statusLabels maps each status to its display label.
var statusLabels = map[Status]string{
	StatusQueued:      "Queued",
	StatusRunning:     "Running",
	StatusCompleted:   "Completed",
	StatusFailed:      "Failed",
	StatusInterrupted: "Interrupted",
}

// Provenance describes which context provider actually served a run.
type Provenance struct {
	ResolvedProviderID     string `json:"resolvedProviderId,omitempty"`
	SnippetCount           int    `json:"snippetCount"`
	FallbackFromProviderID string `json:"fallbackFromProviderId,omitempty"`
}

// View holds display-ready fields derived from a run record.
type View struct {
	StatusLabel        string                           `json:"statusLabel"`
	Lifecycle          string                           `json:"lifecycle"`
	ContextPreview     string                           `json:"contextPreview"`
	ErrorMessage       string                           `json:"errorMessage,omitempty"`
	ContextDiagnostics *retrieval.Error                 `json:"contextDiagnostics,omitempty"`
	ProviderExecution  *providerruntime.ExecutionRecord `json:"providerExecution,omitempty"`
	Provenance         Provenance                       `json:"provenance"`
}

// BuildView projects a run record into display fields. Pure: it never
// mutates the record and has no side effects.
func BuildView(rec Record) View {
	timeline := make([]string, len(rec.StatusTimeline))
	for i, s := range rec.StatusTimeline {
		timeline[i] = string(s)
	}

	return View{
		StatusLabel:        statusLabels[rec.Status],
		Lifecycle:          strings.Join(timeline, " -> "),
		ContextPreview:     contextPreview(rec.ContextSnippets),
		ErrorMessage:       effectiveError(rec),
		ContextDiagnostics: rec.ContextRetrievalError,
		ProviderExecution:  rec.ProviderExecution,
		Provenance: Provenance{
			ResolvedProviderID:     rec.ResolvedProviderID,
			SnippetCount:           len(rec.ContextSnippets),
			FallbackFromProviderID: fallbackSource(rec),
		},
	}
}

func contextPreview(snippets []retrieval.Snippet) string {
	if len(snippets) == 0 {
		return NoSnippetsPreview
	}
	first := snippets[0]
	content := strings.TrimSpace(first.Content)
	if content == "" {
		return first.Path
	}
	return first.Path + ": " + content
}

// effectiveError prefers a failed delegated task's message over the
// run-level one.
func effectiveError(rec Record) string {
	for _, task := range rec.DelegatedTasks {
		if task.Status == delegation.StatusFailed && task.ErrorMessage != "" {
			return task.ErrorMessage
		}
	}
	return rec.ErrorMessage
}

// fallbackSource prefers the explicit field; older records predate it, so
// a first snippet served by a provider other than the resolved one is
// treated as the fallback source.
func fallbackSource(rec Record) string {
	if rec.FallbackFromProviderID != "" {
		return rec.FallbackFromProviderID
	}
	if len(rec.ContextSnippets) == 0 {
		return ""
	}
	first := rec.ContextSnippets[0]
	if first.Provider != "" && rec.ResolvedProviderID != "" && first.Provider != rec.ResolvedProviderID {
		return first.Provider
	}
	return ""
}
