package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/overseer-hq/overseer/internal/domain/run"
	"github.com/overseer-hq/overseer/internal/domain/session"
	"github.com/overseer-hq/overseer/internal/domain/space"
	"github.com/overseer-hq/overseer/internal/domain/state"
	"github.com/overseer-hq/overseer/internal/service"
)

func TestOpen_FirstBootStartsEmpty(t *testing.T) {
	ctx := context.Background()
	st, store, err := openState(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	doc := st.Snapshot()
	if doc.Version != state.CurrentVersion {
		t.Fatalf("expected version %d, got %d", state.CurrentVersion, doc.Version)
	}
	if len(doc.OrchestratorRuns) != 0 {
		t.Fatalf("expected empty document, got %d runs", len(doc.OrchestratorRuns))
	}
	// Open re-persists before serving.
	if store.saveCount() != 1 {
		t.Fatalf("expected one save during Open, got %d", store.saveCount())
	}
}

func TestOpen_RecoversCrashedRuns(t *testing.T) {
	ctx := context.Background()
	created := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	doc := state.NewDocument()
	doc.Spaces = []space.Space{{ID: "space-1", Name: "demo", CreatedAt: created, UpdatedAt: created}}
	doc.Sessions = []session.Session{{ID: "sess-1", SpaceID: "space-1", Title: "main", CreatedAt: created, UpdatedAt: created}}
	crashed := run.New("run-crashed", "space-1", "sess-1", "left running", created)
	crashed.Status = run.StatusRunning
	crashed.StatusTimeline = []run.Status{run.StatusQueued, run.StatusRunning}
	doc.UpsertRun(crashed)
	done := run.New("run-done", "space-1", "sess-1", "finished", created)
	done.Status = run.StatusCompleted
	done.StatusTimeline = []run.Status{run.StatusQueued, run.StatusRunning, run.StatusCompleted}
	completedAt := created.Add(time.Minute)
	done.UpdatedAt = completedAt
	done.CompletedAt = &completedAt
	doc.UpsertRun(done)

	store := &memStore{doc: doc}
	st := service.NewStateService(store)
	now := time.Now().UTC().Truncate(time.Second)
	if err := st.Open(ctx, now); err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, ok := st.Snapshot().FindRun("run-crashed")
	if !ok {
		t.Fatal("expected crashed run to survive")
	}
	if got.Status != run.StatusInterrupted {
		t.Fatalf("expected interrupted, got %s", got.Status)
	}
	if got.InterruptedAt == nil || !got.InterruptedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected interruptedAt == updatedAt == now, got %+v", got)
	}

	untouched, _ := st.Snapshot().FindRun("run-done")
	if untouched.Status != run.StatusCompleted {
		t.Fatalf("terminal run must not be touched, got %s", untouched.Status)
	}
}

func TestUpdate_PersistsAndExposesMutation(t *testing.T) {
	ctx := context.Background()
	st, store, err := openState(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rec := run.New("run-1", "", "", "hello", time.Now().UTC())
	if err := st.Update(ctx, func(doc *state.Document) error {
		doc.UpsertRun(rec)
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, ok := st.Snapshot().FindRun("run-1"); !ok {
		t.Fatal("expected run visible after Update")
	}
	if store.saveCount() != 2 {
		t.Fatalf("expected save per Update, got %d saves", store.saveCount())
	}
}

func TestUpdate_FailedSaveKeepsOldDocument(t *testing.T) {
	ctx := context.Background()
	st, store, err := openState(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	store.fail = true
	err = st.Update(ctx, func(doc *state.Document) error {
		doc.UpsertRun(run.New("run-lost", "", "", "x", time.Now().UTC()))
		return nil
	})
	if err == nil {
		t.Fatal("expected Update to fail when the save fails")
	}
	if _, ok := st.Snapshot().FindRun("run-lost"); ok {
		t.Fatal("failed save must not leak into the in-memory document")
	}
}

func TestUpdate_FnErrorAborts(t *testing.T) {
	ctx := context.Background()
	st, store, err := openState(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	sentinel := errors.New("nope")
	if err := st.Update(ctx, func(*state.Document) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if store.saveCount() != 1 {
		t.Fatalf("aborted Update must not save, got %d saves", store.saveCount())
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	ctx := context.Background()
	st, _, err := openState(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	snap := st.Snapshot()
	snap.UpsertRun(run.New("run-ghost", "", "", "x", time.Now().UTC()))

	if _, ok := st.Snapshot().FindRun("run-ghost"); ok {
		t.Fatal("mutating a snapshot must not affect the document")
	}
}
