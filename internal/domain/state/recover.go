package state

import (
	"time"

	"github.com/overseer-hq/overseer/internal/domain/run"
)

// Recover reclassifies runs left non-terminal by a previous process as
// interrupted. Terminal runs are untouched. Returns how many runs were
// reclassified; the caller must re-persist the document when non-zero.
func Recover(doc *Document, now time.Time) int {
	recovered := 0
	for i, rec := range doc.OrchestratorRuns {
		if rec.Status.Terminal() {
			continue
		}
		interrupted, err := run.Transition(rec, run.StatusInterrupted, now, "")
		if err != nil {
			// Both queued and running allow interrupted; anything else was
			// already dropped by Normalize.
			continue
		}
		doc.OrchestratorRuns[i] = interrupted
		recovered++
	}
	return recovered
}
