package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bidworks/collab-api/internal/models"
)

// AssignmentRepository persists per-section permission grants. Assignments
// drive permission resolution for non-owner principals.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByEntity returns all assignments for an entity.
func (r *AssignmentRepository) ListByEntity(ctx context.Context, entityID string) ([]models.SectionAssignment, error) {
	const query = `
SELECT id, entity_id, section_id, user_id, permission, created_at, updated_at
FROM section_assignments
WHERE entity_id = $1
ORDER BY section_id ASC, created_at ASC`
	var assignments []models.SectionAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, entityID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// Upsert creates or updates the grant for (entity, section, user). A user
// holds at most one permission per section.
func (r *AssignmentRepository) Upsert(ctx context.Context, assignment *models.SectionAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `
INSERT INTO section_assignments (id, entity_id, section_id, user_id, permission, created_at, updated_at)
VALUES (:id, :entity_id, :section_id, :user_id, :permission, :created_at, :updated_at)
ON CONFLICT (entity_id, section_id, user_id) DO UPDATE SET
    permission = EXCLUDED.permission,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}
	return nil
}

// Delete removes the grant for (entity, section, user).
func (r *AssignmentRepository) Delete(ctx context.Context, entityID, sectionID, userID string) error {
	const query = `DELETE FROM section_assignments WHERE entity_id = $1 AND section_id = $2 AND user_id = $3`
	result, err := r.db.ExecContext(ctx, query, entityID, sectionID, userID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
