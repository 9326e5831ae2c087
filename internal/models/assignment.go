package models

import "time"

// Permission grades what a principal may do within a section. Owner
// permission is derived from entity ownership and never stored per section.
type Permission string

const (
	PermissionOwner       Permission = "OWNER"
	PermissionEdit        Permission = "EDIT"
	PermissionReadComment Permission = "READ_AND_COMMENT"
)

// CanEdit reports whether the permission allows content mutation.
func (p Permission) CanEdit() bool {
	return p == PermissionOwner || p == PermissionEdit
}

// CanComment reports whether the permission allows commenting.
func (p Permission) CanComment() bool {
	return p == PermissionOwner || p == PermissionEdit || p == PermissionReadComment
}

// SectionAssignment grants a user a permission within one section of an
// entity. A user holds at most one assignment per section.
type SectionAssignment struct {
	ID         string     `db:"id" json:"id"`
	EntityID   string     `db:"entity_id" json:"entityId"`
	SectionID  string     `db:"section_id" json:"sectionId"`
	UserID     string     `db:"user_id" json:"userId"`
	Permission Permission `db:"permission" json:"permission"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}
