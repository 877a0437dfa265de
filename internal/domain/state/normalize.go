package state

import (
	"github.com/overseer-hq/overseer/internal/domain/delegation"
	"github.com/overseer-hq/overseer/internal/domain/run"
)

// validTaskStatuses enumerates all valid delegated-task statuses.
var validTaskStatuses = map[delegation.TaskStatus]bool{
	delegation.StatusQueued:     true,
	delegation.StatusDelegating: true,
	delegation.StatusDelegated:  true,
	delegation.StatusRunning:    true,
	delegation.StatusCompleted:  true,
	delegation.StatusFailed:     true,
}

// validTaskTypes enumerates the fixed delegated-task types.
var validTaskTypes = map[delegation.TaskType]bool{
	delegation.TypeImplement: true,
	delegation.TypeVerify:    true,
	delegation.TypeDebug:     true,
}

// Normalize drops malformed runs from the document and returns how many
// were dropped. Malformed entries are never repaired: a run survives only
// if its space and session references resolve, its timeline satisfies the
// lifecycle invariants, and every nested draft, snippet, and task passes
// its shape check.
func Normalize(doc *Document) int {
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}

	kept := doc.OrchestratorRuns[:0]
	dropped := 0
	for _, rec := range doc.OrchestratorRuns {
		if runWellFormed(doc, rec) {
			kept = append(kept, rec)
			continue
		}
		dropped++
	}
	doc.OrchestratorRuns = kept
	return dropped
}

func runWellFormed(doc *Document, rec run.Record) bool {
	if rec.ID == "" {
		return false
	}
	if _, ok := doc.FindSpace(rec.SpaceID); !ok {
		return false
	}
	if _, ok := doc.FindSession(rec.SessionID); !ok {
		return false
	}
	if !run.ValidTimeline(rec.StatusTimeline) {
		return false
	}
	if rec.StatusTimeline[len(rec.StatusTimeline)-1] != rec.Status {
		return false
	}
	if !timestampsConsistent(rec) {
		return false
	}
	if rec.Draft != nil && rec.Draft.Title == "" {
		return false
	}
	for _, snippet := range rec.ContextSnippets {
		if snippet.ID == "" || snippet.Provider == "" || snippet.Path == "" {
			return false
		}
	}
	for _, task := range rec.DelegatedTasks {
		if !taskWellFormed(rec.ID, task) {
			return false
		}
	}
	return true
}

// timestampsConsistent enforces: completedAt iff terminal non-interrupted,
// interruptedAt iff interrupted.
func timestampsConsistent(rec run.Record) bool {
	wantCompleted := rec.Status == run.StatusCompleted || rec.Status == run.StatusFailed
	if wantCompleted != (rec.CompletedAt != nil) {
		return false
	}
	wantInterrupted := rec.Status == run.StatusInterrupted
	return wantInterrupted == (rec.InterruptedAt != nil)
}

func taskWellFormed(runID string, task delegation.Record) bool {
	if task.ID == "" || task.RunID != runID {
		return false
	}
	if !validTaskTypes[task.Type] {
		return false
	}
	if !validTaskStatuses[task.Status] {
		return false
	}
	for _, s := range task.StatusTimeline {
		if !validTaskStatuses[s] {
			return false
		}
	}
	return true
}
