package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bidworks/collab-api/internal/models"
	"github.com/bidworks/collab-api/pkg/config"
)

// DraftingClient calls the AI drafting collaborator.
type DraftingClient struct {
	baseURL string
	http    *http.Client
}

// NewDraftingClient constructs the drafting client.
func NewDraftingClient(cfg config.DraftingConfig) *DraftingClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &DraftingClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// GenerateDraft requests generated section content from the drafting
// collaborator.
func (c *DraftingClient) GenerateDraft(ctx context.Context, entityID, sectionID, instructions string) (*models.DraftResult, error) {
	var result models.DraftResult
	path := fmt.Sprintf("/entities/%s/sections/%s/draft", entityID, sectionID)
	body := map[string]string{"instructions": instructions}
	if err := doJSON(ctx, c.http, http.MethodPost, c.baseURL+path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidationClient calls the proposal validation collaborator.
type ValidationClient struct {
	baseURL string
	http    *http.Client
}

// NewValidationClient constructs the validation client.
func NewValidationClient(cfg config.ValidationConfig) *ValidationClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ValidationClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Validate scores the entity's current proposal content.
func (c *ValidationClient) Validate(ctx context.Context, entityID string) (*models.ValidationReport, error) {
	var report models.ValidationReport
	path := fmt.Sprintf("/entities/%s/validate", entityID)
	if err := doJSON(ctx, c.http, http.MethodPost, c.baseURL+path, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
