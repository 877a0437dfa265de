package run

import (
	"fmt"
	"time"
)

// allowedTransitions is the complete lifecycle table. Terminal statuses
// have no entry: nothing transitions out of them.
var allowedTransitions = map[Status][]Status{
	StatusQueued:  {StatusRunning, StatusInterrupted},
	StatusRunning: {StatusCompleted, StatusFailed, StatusInterrupted},
}

func transitionAllowed(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a lifecycle transition to a copy of rec and returns it.
// Re-applying the current status is idempotent and always succeeds: the
// timeline is untouched, updatedAt advances, and a stale error message is
// cleared unless the status is failed. An illegal transition returns the
// record unmodified together with a diagnostic reason; it never panics.
func Transition(rec Record, next Status, at time.Time, failureMessage string) (Record, error) {
	if next != rec.Status && !transitionAllowed(rec.Status, next) {
		return rec, fmt.Errorf("Invalid run transition: %s -> %s", rec.Status, next)
	}

	out := rec
	if next != rec.Status {
		timeline := make([]Status, len(rec.StatusTimeline), len(rec.StatusTimeline)+1)
		copy(timeline, rec.StatusTimeline)
		out.StatusTimeline = append(timeline, next)
		out.Status = next
	}
	out.UpdatedAt = at

	switch next {
	case StatusCompleted, StatusFailed:
		completed := at
		out.CompletedAt = &completed
		out.InterruptedAt = nil
	case StatusInterrupted:
		interrupted := at
		out.InterruptedAt = &interrupted
		out.CompletedAt = nil
	default:
		out.CompletedAt = nil
		out.InterruptedAt = nil
	}

	if next == StatusFailed {
		if failureMessage != "" {
			out.ErrorMessage = failureMessage
		}
	} else {
		out.ErrorMessage = ""
	}

	return out, nil
}

// ValidTimeline reports whether statuses is a legal lifecycle history:
// it starts at queued and, after collapsing adjacent duplicates, every
// adjacent pair is an allowed transition.
func ValidTimeline(statuses []Status) bool {
	if len(statuses) == 0 || statuses[0] != StatusQueued {
		return false
	}

	prev := statuses[0]
	for _, s := range statuses[1:] {
		if s == prev {
			continue
		}
		if !transitionAllowed(prev, s) {
			return false
		}
		prev = s
	}
	return true
}
