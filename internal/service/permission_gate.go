package service

import (
	"sync"

	"github.com/bidworks/collab-api/internal/models"
)

// PermissionGate resolves what a principal may do within each section of one
// entity. It holds the snapshot loaded at session start; it is refreshed by
// an explicit session refresh and never inferred from cached comment or
// assignment data.
//
// Resolution order: entity owner short-circuits everything; otherwise the
// per-section grant decides; absence of a grant rejects all mutation.
type PermissionGate struct {
	mu      sync.RWMutex
	ownerID string
	grants  map[string]map[string]models.Permission
}

// NewPermissionGate builds a gate from the owner and assignment snapshot.
func NewPermissionGate(ownerID string, assignments []models.SectionAssignment) *PermissionGate {
	g := &PermissionGate{ownerID: ownerID, grants: make(map[string]map[string]models.Permission)}
	for _, a := range assignments {
		g.setLocked(a.SectionID, a.UserID, a.Permission)
	}
	return g
}

func (g *PermissionGate) setLocked(sectionID, userID string, permission models.Permission) {
	section, ok := g.grants[sectionID]
	if !ok {
		section = make(map[string]models.Permission)
		g.grants[sectionID] = section
	}
	section[userID] = permission
}

// Grant records a per-section permission for a user.
func (g *PermissionGate) Grant(sectionID, userID string, permission models.Permission) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setLocked(sectionID, userID, permission)
}

// Revoke removes a user's grant for a section.
func (g *PermissionGate) Revoke(sectionID, userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if section, ok := g.grants[sectionID]; ok {
		delete(section, userID)
	}
}

// IsOwner reports whether the user holds owning authority over the entity.
func (g *PermissionGate) IsOwner(userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ownerID != "" && g.ownerID == userID
}

// PermissionOf resolves the effective permission for a user in a section.
// The second return is false when the user has no access at all.
func (g *PermissionGate) PermissionOf(sectionID, userID string) (models.Permission, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.ownerID != "" && g.ownerID == userID {
		return models.PermissionOwner, true
	}
	if section, ok := g.grants[sectionID]; ok {
		if permission, ok := section[userID]; ok {
			return permission, true
		}
	}
	return "", false
}

// HasAnyAccess reports whether the user participates in the entity at all:
// owner, or holder of at least one section grant.
func (g *PermissionGate) HasAnyAccess(userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.ownerID != "" && g.ownerID == userID {
		return true
	}
	for _, section := range g.grants {
		if _, ok := section[userID]; ok {
			return true
		}
	}
	return false
}

// CanEdit reports whether the user may mutate section content.
func (g *PermissionGate) CanEdit(sectionID, userID string) bool {
	permission, ok := g.PermissionOf(sectionID, userID)
	return ok && permission.CanEdit()
}

// CanComment reports whether the user may comment in the section.
func (g *PermissionGate) CanComment(sectionID, userID string) bool {
	permission, ok := g.PermissionOf(sectionID, userID)
	return ok && permission.CanComment()
}
