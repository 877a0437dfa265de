package retrieval_test

import (
	"testing"

	"github.com/overseer-hq/overseer/internal/domain/retrieval"
)

func TestResolveProviderID_SessionWins(t *testing.T) {
	if got := retrieval.ResolveProviderID("filesystem", "mcp"); got != "mcp" {
		t.Fatalf("expected mcp, got %q", got)
	}
}

func TestResolveProviderID_SpaceFallback(t *testing.T) {
	if got := retrieval.ResolveProviderID("mcp", ""); got != "mcp" {
		t.Fatalf("expected mcp, got %q", got)
	}
}

func TestResolveProviderID_Default(t *testing.T) {
	if got := retrieval.ResolveProviderID("", ""); got != retrieval.DefaultProviderID {
		t.Fatalf("expected %q, got %q", retrieval.DefaultProviderID, got)
	}
}

func TestError_Error(t *testing.T) {
	e := &retrieval.Error{Code: retrieval.ErrInvalidQuery, Message: "no usable search terms"}
	if got := e.Error(); got != "invalid_query: no usable search terms" {
		t.Fatalf("unexpected error string: %q", got)
	}
}
