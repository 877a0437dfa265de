package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/overseer-hq/overseer/internal/domain/state"
	"github.com/overseer-hq/overseer/internal/port/statestore"
)

// StateService owns the persisted application document. Every mutation
// goes through Update under a single mutex, so concurrent writers can
// never interleave partial document states.
type StateService struct {
	store statestore.Store

	mu  sync.Mutex
	doc *state.Document
}

// NewStateService creates a StateService over the given store. Call Open
// before serving.
func NewStateService(store statestore.Store) *StateService {
	return &StateService{store: store}
}

// Open loads the document, drops malformed runs, forces runs left
// non-terminal by a crash to interrupted, and re-persists before the
// service accepts any traffic. First boot starts from an empty document.
func (s *StateService) Open(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, statestore.ErrNotFound) {
			return fmt.Errorf("open state: %w", err)
		}
		doc = state.NewDocument()
	}

	dropped := state.Normalize(doc)
	recovered := state.Recover(doc, now)
	doc.LastOpenedAt = &now

	if err := s.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("open state: persist: %w", err)
	}
	s.doc = doc

	slog.Info("state opened",
		"runs", len(doc.OrchestratorRuns),
		"spaces", len(doc.Spaces),
		"sessions", len(doc.Sessions),
		"dropped", dropped,
		"recovered", recovered)
	return nil
}

// Snapshot returns a deep copy of the current document. Callers may read
// and discard it freely; mutations on the copy are never persisted.
func (s *StateService) Snapshot() *state.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDocument(s.doc)
}

// Update applies fn to a copy of the document, persists the result, and
// only then makes it the current document. A failed save leaves the
// in-memory document unchanged.
func (s *StateService) Update(ctx context.Context, fn func(doc *state.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneDocument(s.doc)
	if err := fn(next); err != nil {
		return err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	s.doc = next
	return nil
}

// Close releases the underlying store.
func (s *StateService) Close() error {
	return s.store.Close()
}

// cloneDocument deep-copies via the document's own JSON shape, which
// covers every nested run structure.
func cloneDocument(doc *state.Document) *state.Document {
	if doc == nil {
		return state.NewDocument()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("state document not serializable: %v", err))
	}
	var out state.Document
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("state document clone: %v", err))
	}
	return &out
}
