// Package statestore defines the persisted document store port (interface).
package statestore

import (
	"context"
	"errors"

	"github.com/overseer-hq/overseer/internal/domain/state"
)

// ErrNotFound indicates no document has been persisted yet (first boot).
var ErrNotFound = errors.New("statestore: no persisted document")

// Store is the port interface for loading and saving the application
// document. Save overwrites the full document; implementations must make
// the write atomic so a crash never leaves a torn document behind.
type Store interface {
	Load(ctx context.Context) (*state.Document, error)
	Save(ctx context.Context, doc *state.Document) error
	Close() error
}
