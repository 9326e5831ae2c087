package models

import "time"

// CollaborationData is the remote authority's snapshot for one entity:
// ownership, per-section assignments, the comment forest and recent
// activity. It seeds the permission snapshot on session load.
type CollaborationData struct {
	EntityID    string              `json:"entityId"`
	OwnerID     string              `json:"ownerId"`
	Assignments []SectionAssignment `json:"assignments"`
	Comments    []*CommentNode      `json:"comments"`
	Activity    []ActivityEntry     `json:"activity"`
}

// ActivityEntry records a collaboration event for the entity feed.
type ActivityEntry struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entityId"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	SectionID string    `json:"sectionId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DraftResult is the AI drafting collaborator's response.
type DraftResult struct {
	Draft string `json:"draft"`
}

// SectionValidation scores one section of the validation report.
type SectionValidation struct {
	SectionID string   `json:"sectionId"`
	Score     float64  `json:"score"`
	Issues    []string `json:"issues,omitempty"`
}

// ValidationReport is the validation collaborator's response.
type ValidationReport struct {
	Score           float64             `json:"score"`
	Sections        []SectionValidation `json:"sections"`
	Recommendations []string            `json:"recommendations"`
}
