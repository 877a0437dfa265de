package run_test

import (
	"testing"

	"github.com/overseer-hq/overseer/internal/domain/delegation"
	"github.com/overseer-hq/overseer/internal/domain/retrieval"
	"github.com/overseer-hq/overseer/internal/domain/run"
)

func TestBuildView_Labels(t *testing.T) {
	rec := newQueued()
	rec = mustTransition(t, rec, run.StatusRunning, t1, "")

	view := run.BuildView(rec)
	if view.StatusLabel != "Running" {
		t.Fatalf("expected Running, got %q", view.StatusLabel)
	}
	if view.Lifecycle != "queued -> running" {
		t.Fatalf("unexpected lifecycle %q", view.Lifecycle)
	}
}

func TestBuildView_ContextPreview(t *testing.T) {
	rec := newQueued()
	view := run.BuildView(rec)
	if view.ContextPreview != run.NoSnippetsPreview {
		t.Fatalf("expected fixed no-snippets string, got %q", view.ContextPreview)
	}

	rec.ContextSnippets = []retrieval.Snippet{{Path: "pkg/store.go", Content: "  func Load() error {  "}}
	view = run.BuildView(rec)
	if view.ContextPreview != "pkg/store.go: func Load() error {" {
		t.Fatalf("unexpected preview %q", view.ContextPreview)
	}

	rec.ContextSnippets[0].Content = "   "
	view = run.BuildView(rec)
	if view.ContextPreview != "pkg/store.go" {
		t.Fatalf("expected path-only fallback, got %q", view.ContextPreview)
	}
}

func TestBuildView_ErrorPrefersFailedTask(t *testing.T) {
	rec := newQueued()
	rec.ErrorMessage = "run-level failure"
	rec.DelegatedTasks = []delegation.Record{
		{Type: delegation.TypeImplement, Status: delegation.StatusCompleted},
		{Type: delegation.TypeVerify, Status: delegation.StatusFailed, ErrorMessage: "verify blew up"},
	}

	view := run.BuildView(rec)
	if view.ErrorMessage != "verify blew up" {
		t.Fatalf("expected task message preferred, got %q", view.ErrorMessage)
	}

	rec.DelegatedTasks = nil
	view = run.BuildView(rec)
	if view.ErrorMessage != "run-level failure" {
		t.Fatalf("expected run-level fallback, got %q", view.ErrorMessage)
	}
}

func TestBuildView_ProvenanceExplicitFieldWins(t *testing.T) {
	rec := newQueued()
	rec.ResolvedProviderID = "filesystem"
	rec.FallbackFromProviderID = "mcp"
	rec.ContextSnippets = []retrieval.Snippet{{Provider: "filesystem", Path: "a.go"}}

	view := run.BuildView(rec)
	if view.Provenance.FallbackFromProviderID != "mcp" {
		t.Fatalf("expected explicit field, got %q", view.Provenance.FallbackFromProviderID)
	}
	if view.Provenance.SnippetCount != 1 || view.Provenance.ResolvedProviderID != "filesystem" {
		t.Fatalf("unexpected provenance %+v", view.Provenance)
	}
}

func TestBuildView_ProvenanceLegacyInference(t *testing.T) {
	rec := newQueued()
	rec.ResolvedProviderID = "mcp"
	rec.ContextSnippets = []retrieval.Snippet{{Provider: "filesystem", Path: "a.go"}}

	view := run.BuildView(rec)
	if view.Provenance.FallbackFromProviderID != "filesystem" {
		t.Fatalf("expected inferred source from snippet mismatch, got %q", view.Provenance.FallbackFromProviderID)
	}

	rec.ContextSnippets[0].Provider = "mcp"
	view = run.BuildView(rec)
	if view.Provenance.FallbackFromProviderID != "" {
		t.Fatalf("matching providers must not infer a fallback, got %q", view.Provenance.FallbackFromProviderID)
	}
}

func TestBuildView_Diagnostics(t *testing.T) {
	rec := newQueued()
	rec.ContextRetrievalError = &retrieval.Error{Code: retrieval.ErrInvalidRootPath, Message: "missing root"}

	view := run.BuildView(rec)
	if view.ContextDiagnostics == nil || view.ContextDiagnostics.Code != retrieval.ErrInvalidRootPath {
		t.Fatalf("expected typed diagnostics, got %+v", view.ContextDiagnostics)
	}
}
