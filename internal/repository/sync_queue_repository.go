package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bidworks/collab-api/internal/models"
)

// SyncQueueRepository persists the ordered log of pending mutation intents
// in the sync_queue table. Items leave the queue only on confirmed remote
// acknowledgment; failures keep them queued with retry metadata.
type SyncQueueRepository struct {
	db *sqlx.DB
}

// NewSyncQueueRepository constructs the repository.
func NewSyncQueueRepository(db *sqlx.DB) *SyncQueueRepository {
	return &SyncQueueRepository{db: db}
}

// Enqueue appends a mutation intent and returns its id.
func (r *SyncQueueRepository) Enqueue(ctx context.Context, actionType models.SyncActionType, payload interface{}) (int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal sync payload: %w", err)
	}
	const query = `
INSERT INTO sync_queue (action_type, payload, created_at, status, attempts)
VALUES ($1, $2, $3, 'pending', 0)
RETURNING id`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, actionType, raw, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("enqueue sync item: %w", err)
	}
	return id, nil
}

// ListPending returns unfinished items in creation order. Failed items stay
// pending from the reconciler's point of view and are retried in order.
func (r *SyncQueueRepository) ListPending(ctx context.Context) ([]models.SyncQueueItem, error) {
	const query = `
SELECT id, action_type, payload, created_at, status, attempts, last_error
FROM sync_queue
WHERE status IN ('pending', 'failed')
ORDER BY created_at ASC, id ASC`
	var items []models.SyncQueueItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list pending sync items: %w", err)
	}
	return items, nil
}

// Complete removes an item after confirmed remote acknowledgment.
func (r *SyncQueueRepository) Complete(ctx context.Context, id int64) error {
	const query = `DELETE FROM sync_queue WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("complete sync item: %w", err)
	}
	return nil
}

// Fail records a failed attempt. The item is never removed here; it remains
// queued for the next reconciliation pass.
func (r *SyncQueueRepository) Fail(ctx context.Context, id int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	const query = `UPDATE sync_queue SET status = 'failed', attempts = attempts + 1, last_error = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, msg); err != nil {
		return fmt.Errorf("fail sync item: %w", err)
	}
	return nil
}

// CountPending returns the number of unfinished queue items.
func (r *SyncQueueRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM sync_queue WHERE status IN ('pending', 'failed')`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count pending sync items: %w", err)
	}
	return count, nil
}
