// Package contextprovider defines the context provider port (interface)
// and the registry the context adapter selects providers from.
package contextprovider

import (
	"context"

	"github.com/overseer-hq/overseer/internal/domain/retrieval"
)

// Provider is the port interface for one context retrieval backend.
type Provider interface {
	// ID returns the unique identifier for this provider (e.g. "filesystem", "mcp").
	ID() string

	// Retrieve returns snippets matching the query, or a typed retrieval
	// error. Implementations return errors as values and never panic.
	Retrieve(ctx context.Context, query retrieval.Query) ([]retrieval.Snippet, *retrieval.Error)
}
