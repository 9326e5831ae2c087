package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bidworks/collab-api/internal/models"
	"github.com/bidworks/collab-api/pkg/config"
)

// Client talks to the remote authority's HTTP API. Update and assign calls
// are idempotent for the same payload, so the reconciler may retry them
// freely.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a remote authority client.
func NewClient(cfg config.RemoteConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health probes the remote authority. A nil return means reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// GetCollaborationData fetches the collaboration snapshot for an entity.
func (c *Client) GetCollaborationData(ctx context.Context, entityID string) (*models.CollaborationData, error) {
	var data models.CollaborationData
	path := fmt.Sprintf("/entities/%s/collaboration", entityID)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UpdateSectionContent pushes the latest local section content upstream.
func (c *Client) UpdateSectionContent(ctx context.Context, entityID, sectionID, content string) error {
	path := fmt.Sprintf("/entities/%s/sections/%s/content", entityID, sectionID)
	body := map[string]string{"content": content}
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// AssignUser grants a section permission upstream.
func (c *Client) AssignUser(ctx context.Context, entityID, sectionID, userID string, permission models.Permission) error {
	path := fmt.Sprintf("/entities/%s/sections/%s/assignments", entityID, sectionID)
	body := map[string]string{"userId": userID, "permission": string(permission)}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// RemoveAssignment revokes a section permission upstream.
func (c *Client) RemoveAssignment(ctx context.Context, entityID, sectionID, userID string) error {
	path := fmt.Sprintf("/entities/%s/sections/%s/assignments/%s", entityID, sectionID, userID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CreateComment records a new comment or reply upstream.
func (c *Client) CreateComment(ctx context.Context, payload models.CommentPayload) (*models.CommentNode, error) {
	var node models.CommentNode
	path := fmt.Sprintf("/entities/%s/comments", payload.EntityID)
	if err := c.do(ctx, http.MethodPost, path, payload, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// UpdateComment edits a comment's content upstream.
func (c *Client) UpdateComment(ctx context.Context, entityID, commentID, content string) error {
	path := fmt.Sprintf("/entities/%s/comments/%s", entityID, commentID)
	body := map[string]string{"content": content}
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// DeleteComment removes a comment and its replies upstream.
func (c *Client) DeleteComment(ctx context.Context, entityID, commentID string) error {
	path := fmt.Sprintf("/entities/%s/comments/%s", entityID, commentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// SetCommentResolved flips a comment's resolution state upstream.
func (c *Client) SetCommentResolved(ctx context.Context, entityID, commentID string, resolved bool) error {
	path := fmt.Sprintf("/entities/%s/comments/%s/resolution", entityID, commentID)
	body := map[string]bool{"resolved": resolved}
	return c.do(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	return doJSON(ctx, c.http, method, c.baseURL+path, body, dest)
}

func doJSON(ctx context.Context, client *http.Client, method, url string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, url, resp.StatusCode, snippet)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
