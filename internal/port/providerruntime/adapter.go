// Package providerruntime defines the model-provider runtime port and the
// adapter registry exposing a uniform auth/list-models/execute surface.
package providerruntime

import (
	"context"

	pr "github.com/overseer-hq/overseer/internal/domain/providerruntime"
)

// Adapter is the port interface for one vendor runtime.
type Adapter interface {
	// ID returns the unique provider identifier (e.g. "anthropic", "openai").
	ID() string

	// SupportsTokenSession reports whether the vendor accepts token-session auth.
	SupportsTokenSession() bool

	// ListModels returns the models available under the given resolution.
	ListModels(ctx context.Context, auth pr.AuthResolution) ([]pr.ModelInfo, error)

	// Execute runs one prompt against the vendor API.
	Execute(ctx context.Context, auth pr.AuthResolution, req pr.ExecuteRequest) (*pr.ExecuteResult, error)
}
