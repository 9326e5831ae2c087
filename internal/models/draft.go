package models

import "time"

// DraftRecord is the durable local copy of an entity's in-progress section
// content. At most one record exists per entity; every local write resets
// Synced so the reconciler picks the record up on its next pass.
type DraftRecord struct {
	ID        string    `db:"id" json:"id"`
	EntityID  string    `db:"entity_id" json:"entityId"`
	SectionID string    `db:"section_id" json:"sectionId"`
	Content   string    `db:"content" json:"content"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Synced    bool      `db:"synced" json:"synced"`
}

// DraftPatch carries the fields merged into a DraftRecord on upsert. Nil
// fields leave the stored value untouched.
type DraftPatch struct {
	SectionID *string `json:"sectionId,omitempty"`
	Content   *string `json:"content,omitempty"`
}
