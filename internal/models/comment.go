package models

import "time"

// CommentNode is one threaded comment. Replies are exclusively owned by
// their parent node; a node belongs to exactly one section and one root
// tree. Resolution state applies to each node independently.
type CommentNode struct {
	ID         string         `json:"id"`
	SectionID  string         `json:"sectionId"`
	AuthorID   string         `json:"authorId"`
	Content    string         `json:"content"`
	QuotedText string         `json:"quotedText,omitempty"`
	IsResolved bool           `json:"isResolved"`
	CreatedAt  time.Time      `json:"createdAt"`
	Replies    []*CommentNode `json:"replies"`
}

// CommentCounts aggregates per-section totals maintained in lock-step with
// tree mutations.
type CommentCounts struct {
	Total      int `json:"total"`
	Unresolved int `json:"unresolved"`
}
