package dto

import "github.com/bidworks/collab-api/internal/models"

// CommentListResponse carries a section's comment forest with its counters.
type CommentListResponse struct {
	Comments   []*models.CommentNode `json:"comments"`
	Total      int                   `json:"total"`
	Unresolved int                   `json:"unresolved"`
}

// DeleteCommentResponse reports how many nodes a subtree removal discarded.
type DeleteCommentResponse struct {
	RemovedCount int `json:"removedCount"`
}

// SaveDraftResponse returns the stored draft and whether it only reached the
// in-memory fallback.
type SaveDraftResponse struct {
	Draft           *models.DraftRecord `json:"draft"`
	StorageDegraded bool                `json:"storageDegraded"`
}
