package models

import (
	"encoding/json"
	"time"
)

// SyncActionType discriminates queued mutation intents.
type SyncActionType string

const (
	SyncActionSectionUpdate    SyncActionType = "section_update"
	SyncActionAssignUser       SyncActionType = "assign_user"
	SyncActionRemoveAssignment SyncActionType = "remove_assignment"
	SyncActionAddComment       SyncActionType = "add_comment"
	SyncActionUpdateComment    SyncActionType = "update_comment"
	SyncActionDeleteComment    SyncActionType = "delete_comment"
	SyncActionResolveComment   SyncActionType = "resolve_comment"
)

// SyncItemStatus captures the queue lifecycle. Items are removed only on
// confirmed completion; failures keep the item queued for the next pass.
type SyncItemStatus string

const (
	SyncItemPending SyncItemStatus = "pending"
	SyncItemFailed  SyncItemStatus = "failed"
)

// SyncQueueItem is one append-only log entry of a pending mutation intent.
type SyncQueueItem struct {
	ID        int64           `db:"id" json:"id"`
	Type      SyncActionType  `db:"action_type" json:"type"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	Status    SyncItemStatus  `db:"status" json:"status"`
	Attempts  int             `db:"attempts" json:"attempts"`
	LastError *string         `db:"last_error" json:"lastError,omitempty"`
}

// SectionUpdatePayload is the payload for section_update queue items.
type SectionUpdatePayload struct {
	EntityID  string `json:"entityId"`
	SectionID string `json:"sectionId"`
	Content   string `json:"content"`
}

// AssignmentPayload is the payload for assign_user and remove_assignment
// queue items.
type AssignmentPayload struct {
	EntityID   string     `json:"entityId"`
	SectionID  string     `json:"sectionId"`
	UserID     string     `json:"userId"`
	Permission Permission `json:"permission,omitempty"`
}

// CommentPayload is the payload for add_comment queue items. CommentID
// carries the locally assigned id so retried creates stay idempotent.
type CommentPayload struct {
	CommentID  string `json:"commentId,omitempty"`
	EntityID   string `json:"entityId"`
	SectionID  string `json:"sectionId"`
	AuthorID   string `json:"authorId"`
	Content    string `json:"content"`
	QuotedText string `json:"quotedText,omitempty"`
	ParentID   string `json:"parentId,omitempty"`
}

// CommentOpPayload is the payload for update_comment, delete_comment and
// resolve_comment queue items.
type CommentOpPayload struct {
	EntityID  string `json:"entityId"`
	CommentID string `json:"commentId"`
	Content   string `json:"content,omitempty"`
	Resolved  bool   `json:"resolved,omitempty"`
}
