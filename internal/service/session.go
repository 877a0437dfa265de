package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/overseer-hq/overseer/internal/domain"
	"github.com/overseer-hq/overseer/internal/domain/session"
	"github.com/overseer-hq/overseer/internal/domain/state"
)

// SessionService manages conversation sessions in the document.
type SessionService struct {
	state *StateService
}

// NewSessionService creates a SessionService.
func NewSessionService(st *StateService) *SessionService {
	return &SessionService{state: st}
}

// Create validates and persists a new session in an existing space.
func (s *SessionService) Create(ctx context.Context, req session.CreateRequest) (*session.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := session.Session{
		ID:                uuid.NewString(),
		SpaceID:           req.SpaceID,
		Title:             req.Title,
		ContextProviderID: req.ContextProviderID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.state.Update(ctx, func(doc *state.Document) error {
		if _, ok := doc.FindSpace(req.SpaceID); !ok {
			return fmt.Errorf("space %s: %w", req.SpaceID, domain.ErrNotFound)
		}
		doc.Sessions = append(doc.Sessions, sess)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	slog.Info("session created", "session_id", sess.ID, "space_id", sess.SpaceID)
	return &sess, nil
}

// Get returns a session by id.
func (s *SessionService) Get(_ context.Context, id string) (*session.Session, error) {
	sess, ok := s.state.Snapshot().FindSession(id)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return &sess, nil
}

// List returns the sessions in a space, or all sessions when spaceID is empty.
func (s *SessionService) List(_ context.Context, spaceID string) []session.Session {
	all := s.state.Snapshot().Sessions
	if spaceID == "" {
		return all
	}
	out := make([]session.Session, 0, len(all))
	for _, sess := range all {
		if sess.SpaceID == spaceID {
			out = append(out, sess)
		}
	}
	return out
}
