package run_test

import (
	"strings"
	"testing"
	"time"

	"github.com/overseer-hq/overseer/internal/domain/run"
)

var (
	t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Second)
	t2 = t0.Add(2 * time.Second)
)

func newQueued() run.Record {
	return run.New("run-1", "space-1", "session-1", "Add pagination", t0)
}

func mustTransition(t *testing.T, rec run.Record, next run.Status, at time.Time, msg string) run.Record {
	t.Helper()
	out, err := run.Transition(rec, next, at, msg)
	if err != nil {
		t.Fatalf("transition %s -> %s: %v", rec.Status, next, err)
	}
	return out
}

func TestTransition_HappyPath(t *testing.T) {
	rec := newQueued()
	rec = mustTransition(t, rec, run.StatusRunning, t1, "")
	rec = mustTransition(t, rec, run.StatusCompleted, t2, "")

	if rec.Status != run.StatusCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
	if rec.CompletedAt == nil || !rec.CompletedAt.Equal(t2) {
		t.Fatalf("expected completedAt=%v, got %v", t2, rec.CompletedAt)
	}
	if rec.InterruptedAt != nil {
		t.Fatal("expected interruptedAt unset")
	}
	if !run.ValidTimeline(rec.StatusTimeline) {
		t.Fatalf("expected valid timeline, got %v", rec.StatusTimeline)
	}
}

func TestTransition_FailedRecordsMessage(t *testing.T) {
	rec := mustTransition(t, newQueued(), run.StatusRunning, t1, "")
	rec = mustTransition(t, rec, run.StatusFailed, t2, "delegation failed")

	if rec.ErrorMessage != "delegation failed" {
		t.Fatalf("expected failure message, got %q", rec.ErrorMessage)
	}
	if rec.CompletedAt == nil {
		t.Fatal("failed is terminal and non-interrupted: completedAt must be set")
	}
}

func TestTransition_InterruptedSetsInterruptedAt(t *testing.T) {
	rec := mustTransition(t, newQueued(), run.StatusInterrupted, t1, "")
	if rec.InterruptedAt == nil || !rec.InterruptedAt.Equal(t1) {
		t.Fatalf("expected interruptedAt=%v, got %v", t1, rec.InterruptedAt)
	}
	if rec.CompletedAt != nil {
		t.Fatal("interrupted runs must not carry completedAt")
	}
}

func TestTransition_Idempotent(t *testing.T) {
	rec := mustTransition(t, newQueued(), run.StatusRunning, t1, "")
	rec.ErrorMessage = "stale"

	again := mustTransition(t, rec, run.StatusRunning, t2, "")
	if len(again.StatusTimeline) != len(rec.StatusTimeline) {
		t.Fatalf("idempotent re-application must not grow the timeline: %v", again.StatusTimeline)
	}
	if !again.UpdatedAt.Equal(t2) {
		t.Fatalf("expected updatedAt to advance to %v, got %v", t2, again.UpdatedAt)
	}
	if again.ErrorMessage != "" {
		t.Fatalf("expected stale error cleared, got %q", again.ErrorMessage)
	}
}

func TestTransition_IdempotentFailedKeepsMessage(t *testing.T) {
	rec := mustTransition(t, newQueued(), run.StatusRunning, t1, "")
	rec = mustTransition(t, rec, run.StatusFailed, t1, "first failure")

	again := mustTransition(t, rec, run.StatusFailed, t2, "")
	if again.ErrorMessage != "first failure" {
		t.Fatalf("expected retained message, got %q", again.ErrorMessage)
	}

	replaced := mustTransition(t, rec, run.StatusFailed, t2, "second failure")
	if replaced.ErrorMessage != "second failure" {
		t.Fatalf("expected replacement message, got %q", replaced.ErrorMessage)
	}
}

func TestTransition_InvalidReturnsUnmodified(t *testing.T) {
	rec := newQueued()
	out, err := run.Transition(rec, run.StatusCompleted, t1, "")
	if err == nil {
		t.Fatal("expected error for queued -> completed")
	}
	if !strings.Contains(err.Error(), "queued -> completed") {
		t.Fatalf("expected reason to name the pair, got %q", err.Error())
	}
	if out.Status != rec.Status || len(out.StatusTimeline) != len(rec.StatusTimeline) {
		t.Fatal("record must be returned unmodified on invalid transition")
	}
}

func TestTransition_TerminalIsFrozen(t *testing.T) {
	rec := mustTransition(t, newQueued(), run.StatusRunning, t1, "")
	for _, terminal := range []run.Status{run.StatusCompleted, run.StatusFailed, run.StatusInterrupted} {
		frozen := mustTransition(t, rec, terminal, t2, "boom")
		for _, next := range []run.Status{run.StatusQueued, run.StatusRunning, run.StatusCompleted, run.StatusFailed, run.StatusInterrupted} {
			if next == terminal {
				continue
			}
			if _, err := run.Transition(frozen, next, t2, ""); err == nil {
				t.Fatalf("expected %s -> %s to be rejected", terminal, next)
			}
		}
	}
}

func TestValidTimeline(t *testing.T) {
	cases := []struct {
		name     string
		timeline []run.Status
		want     bool
	}{
		{"queued only", []run.Status{run.StatusQueued}, true},
		{"full lifecycle", []run.Status{run.StatusQueued, run.StatusRunning, run.StatusCompleted}, true},
		{"queued interrupted", []run.Status{run.StatusQueued, run.StatusInterrupted}, true},
		{"running failed", []run.Status{run.StatusQueued, run.StatusRunning, run.StatusFailed}, true},
		{"adjacent duplicates collapse", []run.Status{run.StatusQueued, run.StatusQueued, run.StatusRunning, run.StatusRunning, run.StatusCompleted}, true},
		{"empty", nil, false},
		{"not starting at queued", []run.Status{run.StatusRunning, run.StatusCompleted}, false},
		{"skips running", []run.Status{run.StatusQueued, run.StatusCompleted}, false},
		{"leaves terminal", []run.Status{run.StatusQueued, run.StatusRunning, run.StatusCompleted, run.StatusRunning}, false},
		{"unknown status", []run.Status{run.StatusQueued, "paused"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := run.ValidTimeline(tc.timeline); got != tc.want {
				t.Fatalf("ValidTimeline(%v) = %v, want %v", tc.timeline, got, tc.want)
			}
		})
	}
}
