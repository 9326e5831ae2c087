package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bidworks/collab-api/internal/models"
)

// DraftRepository persists in-progress section content in the
// draft_proposals table, keyed by entity id. It is the durable store the
// offline edit path writes through and the reconciler drains.
type DraftRepository struct {
	db *sqlx.DB
}

// NewDraftRepository constructs the repository.
func NewDraftRepository(db *sqlx.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Put upserts the draft for an entity. The patch is merged into the stored
// record; updated_at is always stamped and synced always resets to false, so
// every local write invalidates sync state.
func (r *DraftRepository) Put(ctx context.Context, entityID string, patch models.DraftPatch) (*models.DraftRecord, error) {
	const query = `
INSERT INTO draft_proposals (id, entity_id, section_id, content, updated_at, synced)
VALUES ($1, $2, COALESCE($3, ''), COALESCE($4, ''), $5, FALSE)
ON CONFLICT (entity_id) DO UPDATE SET
    section_id = COALESCE($3, draft_proposals.section_id),
    content    = COALESCE($4, draft_proposals.content),
    updated_at = $5,
    synced     = FALSE
RETURNING id, entity_id, section_id, content, updated_at, synced`
	var record models.DraftRecord
	now := time.Now().UTC()
	if err := r.db.GetContext(ctx, &record, query, uuid.NewString(), entityID, patch.SectionID, patch.Content, now); err != nil {
		return nil, fmt.Errorf("put draft: %w", err)
	}
	return &record, nil
}

// Get returns the draft for an entity, or sql.ErrNoRows when absent.
func (r *DraftRepository) Get(ctx context.Context, entityID string) (*models.DraftRecord, error) {
	const query = `SELECT id, entity_id, section_id, content, updated_at, synced FROM draft_proposals WHERE entity_id = $1`
	var record models.DraftRecord
	if err := r.db.GetContext(ctx, &record, query, entityID); err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return &record, nil
}

// GetAll returns every stored draft ordered by last update.
func (r *DraftRepository) GetAll(ctx context.Context) ([]models.DraftRecord, error) {
	const query = `SELECT id, entity_id, section_id, content, updated_at, synced FROM draft_proposals ORDER BY updated_at ASC`
	var records []models.DraftRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return records, nil
}

// ListUnsynced returns drafts awaiting reconciliation, oldest first.
func (r *DraftRepository) ListUnsynced(ctx context.Context) ([]models.DraftRecord, error) {
	const query = `SELECT id, entity_id, section_id, content, updated_at, synced FROM draft_proposals WHERE synced = FALSE ORDER BY updated_at ASC`
	var records []models.DraftRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list unsynced drafts: %w", err)
	}
	return records, nil
}

// Delete discards the draft for an entity.
func (r *DraftRepository) Delete(ctx context.Context, entityID string) error {
	const query = `DELETE FROM draft_proposals WHERE entity_id = $1`
	if _, err := r.db.ExecContext(ctx, query, entityID); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// MarkSynced flags the draft as acknowledged by the remote authority.
func (r *DraftRepository) MarkSynced(ctx context.Context, entityID string) error {
	const query = `UPDATE draft_proposals SET synced = TRUE WHERE entity_id = $1`
	if _, err := r.db.ExecContext(ctx, query, entityID); err != nil {
		return fmt.Errorf("mark draft synced: %w", err)
	}
	return nil
}

// CountUnsynced returns the number of drafts still awaiting sync.
func (r *DraftRepository) CountUnsynced(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM draft_proposals WHERE synced = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count unsynced drafts: %w", err)
	}
	return count, nil
}
