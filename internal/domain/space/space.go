// Package space defines the Space domain entity, a workspace a run
// executes against.
package space

import (
	"fmt"
	"time"

	"github.com/overseer-hq/overseer/internal/domain"
)

// Space is a workspace with its context and model provider defaults.
type Space struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	RootPath          string    `json:"rootPath,omitempty"`
	ContextProviderID string    `json:"contextProviderId,omitempty"`
	ProviderID        string    `json:"providerId,omitempty"`
	ModelID           string    `json:"modelId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CreateRequest holds the fields needed to create a space.
type CreateRequest struct {
	Name              string `json:"name"`
	RootPath          string `json:"root_path,omitempty"`
	ContextProviderID string `json:"context_provider_id,omitempty"`
	ProviderID        string `json:"provider_id,omitempty"`
	ModelID           string `json:"model_id,omitempty"`
}

// Validate checks that a CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	return nil
}
