package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bidworks/collab-api/internal/models"
)

func TestPermissionGateOwnerShortCircuits(t *testing.T) {
	gate := NewPermissionGate("owner-1", []models.SectionAssignment{
		{SectionID: "s1", UserID: "owner-1", Permission: models.PermissionReadComment},
	})

	// A lower per-section grant never overrides owning authority.
	permission, ok := gate.PermissionOf("s1", "owner-1")
	assert.True(t, ok)
	assert.Equal(t, models.PermissionOwner, permission)
	assert.True(t, gate.CanEdit("s1", "owner-1"))
	assert.True(t, gate.CanEdit("unassigned-section", "owner-1"))
	assert.True(t, gate.IsOwner("owner-1"))
}

func TestPermissionGateAssignmentResolution(t *testing.T) {
	gate := NewPermissionGate("owner-1", []models.SectionAssignment{
		{SectionID: "s1", UserID: "editor", Permission: models.PermissionEdit},
		{SectionID: "s1", UserID: "commenter", Permission: models.PermissionReadComment},
	})

	assert.True(t, gate.CanEdit("s1", "editor"))
	assert.True(t, gate.CanComment("s1", "editor"))

	assert.False(t, gate.CanEdit("s1", "commenter"))
	assert.True(t, gate.CanComment("s1", "commenter"))

	assert.False(t, gate.CanEdit("s1", "stranger"))
	assert.False(t, gate.CanComment("s1", "stranger"))
	_, ok := gate.PermissionOf("s1", "stranger")
	assert.False(t, ok)

	// Grants are per section, not per entity.
	assert.False(t, gate.CanComment("s2", "editor"))
}

func TestPermissionGateGrantAndRevoke(t *testing.T) {
	gate := NewPermissionGate("owner-1", nil)

	gate.Grant("s1", "user-1", models.PermissionEdit)
	assert.True(t, gate.CanEdit("s1", "user-1"))

	// Downgrade: content edits stop, commenting continues.
	gate.Grant("s1", "user-1", models.PermissionReadComment)
	assert.False(t, gate.CanEdit("s1", "user-1"))
	assert.True(t, gate.CanComment("s1", "user-1"))

	gate.Revoke("s1", "user-1")
	assert.False(t, gate.CanComment("s1", "user-1"))
}
