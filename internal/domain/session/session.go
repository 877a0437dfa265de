// Package session defines the Session domain entity, one conversation
// thread within a space.
package session

import (
	"fmt"
	"time"

	"github.com/overseer-hq/overseer/internal/domain"
)

// Session is one conversation thread within a space.
type Session struct {
	ID                string    `json:"id"`
	SpaceID           string    `json:"spaceId"`
	Title             string    `json:"title"`
	ContextProviderID string    `json:"contextProviderId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CreateRequest holds the fields needed to create a session.
type CreateRequest struct {
	SpaceID           string `json:"space_id"`
	Title             string `json:"title"`
	ContextProviderID string `json:"context_provider_id,omitempty"`
}

// Validate checks that a CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.SpaceID == "" {
		return fmt.Errorf("space_id is required: %w", domain.ErrValidation)
	}
	if r.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	return nil
}
