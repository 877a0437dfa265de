package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/overseer-hq/overseer/internal/domain"
	"github.com/overseer-hq/overseer/internal/domain/space"
	"github.com/overseer-hq/overseer/internal/domain/state"
)

// SpaceService manages workspaces in the document.
type SpaceService struct {
	state *StateService
}

// NewSpaceService creates a SpaceService.
func NewSpaceService(st *StateService) *SpaceService {
	return &SpaceService{state: st}
}

// Create validates and persists a new space.
func (s *SpaceService) Create(ctx context.Context, req space.CreateRequest) (*space.Space, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sp := space.Space{
		ID:                uuid.NewString(),
		Name:              req.Name,
		RootPath:          req.RootPath,
		ContextProviderID: req.ContextProviderID,
		ProviderID:        req.ProviderID,
		ModelID:           req.ModelID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.state.Update(ctx, func(doc *state.Document) error {
		doc.Spaces = append(doc.Spaces, sp)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create space: %w", err)
	}

	slog.Info("space created", "space_id", sp.ID, "name", sp.Name)
	return &sp, nil
}

// Get returns a space by id.
func (s *SpaceService) Get(_ context.Context, id string) (*space.Space, error) {
	sp, ok := s.state.Snapshot().FindSpace(id)
	if !ok {
		return nil, fmt.Errorf("space %s: %w", id, domain.ErrNotFound)
	}
	return &sp, nil
}

// List returns all spaces.
func (s *SpaceService) List(_ context.Context) []space.Space {
	return s.state.Snapshot().Spaces
}
