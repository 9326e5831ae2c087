package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bidworks/collab-api/internal/models"
)

type draftStore interface {
	ListUnsynced(ctx context.Context) ([]models.DraftRecord, error)
	MarkSynced(ctx context.Context, entityID string) error
}

type queueStore interface {
	ListPending(ctx context.Context) ([]models.SyncQueueItem, error)
	Complete(ctx context.Context, id int64) error
	Fail(ctx context.Context, id int64, cause error) error
}

type remoteSyncer interface {
	UpdateSectionContent(ctx context.Context, entityID, sectionID, content string) error
	AssignUser(ctx context.Context, entityID, sectionID, userID string, permission models.Permission) error
	RemoveAssignment(ctx context.Context, entityID, sectionID, userID string) error
	CreateComment(ctx context.Context, payload models.CommentPayload) (*models.CommentNode, error)
	UpdateComment(ctx context.Context, entityID, commentID, content string) error
	DeleteComment(ctx context.Context, entityID, commentID string) error
	SetCommentResolved(ctx context.Context, entityID, commentID string, resolved bool) error
}

type connectivity interface {
	Online() bool
	Subscribe() <-chan bool
}

type syncMarker interface {
	SetLastSynced(ctx context.Context, at time.Time)
}

// Observer receives reconciliation telemetry.
type Observer interface {
	ObserveReconciliation(duration time.Duration, stats DrainStats)
}

// DrainStats summarizes one reconciliation pass.
type DrainStats struct {
	DraftsSynced   int
	DraftsFailed   int
	ItemsCompleted int
	ItemsFailed    int
}

// Failures returns the total failed operations in the pass.
func (s DrainStats) Failures() int {
	return s.DraftsFailed + s.ItemsFailed
}

// Reconciler drains unsynced drafts and pending queue items against the
// remote authority. At most one drain is in flight at a time and no two
// concurrent remote calls are made for the same entity: records are
// processed strictly one at a time, in creation order.
type Reconciler struct {
	drafts   draftStore
	queue    queueStore
	remote   remoteSyncer
	monitor  connectivity
	marker   syncMarker
	observer Observer
	logger   *zap.Logger
	interval time.Duration

	draining   atomic.Bool
	force      chan struct{}
	lastSynced atomic.Value // time.Time
}

// NewReconciler constructs the reconciliation loop.
func NewReconciler(drafts draftStore, queue queueStore, remote remoteSyncer, monitor connectivity, marker syncMarker, observer Observer, logger *zap.Logger, interval time.Duration) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reconciler{
		drafts:   drafts,
		queue:    queue,
		remote:   remote,
		monitor:  monitor,
		marker:   marker,
		observer: observer,
		logger:   logger,
		interval: interval,
		force:    make(chan struct{}, 1),
	}
}

// Run drains on online transitions, on a fixed interval while online, and on
// explicit force requests, until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	events := r.monitor.Subscribe()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case online := <-events:
			if online {
				r.Drain(ctx)
			}
		case <-ticker.C:
			r.Drain(ctx)
		case <-r.force:
			r.Drain(ctx)
		}
	}
}

// ForceSync requests an immediate drain without waiting for the interval.
func (r *Reconciler) ForceSync() {
	select {
	case r.force <- struct{}{}:
	default:
	}
}

// IsSyncing reports whether a drain is currently in flight.
func (r *Reconciler) IsSyncing() bool {
	return r.draining.Load()
}

// LastSynced returns the completion time of the last clean pass.
func (r *Reconciler) LastSynced() time.Time {
	if at, ok := r.lastSynced.Load().(time.Time); ok {
		return at
	}
	return time.Time{}
}

// Drain runs one reconciliation pass. It is a no-op while offline or while
// another drain is in flight. One failure never aborts the rest of the
// batch; failed records stay queued for the next pass.
func (r *Reconciler) Drain(ctx context.Context) DrainStats {
	var stats DrainStats
	if !r.monitor.Online() {
		return stats
	}
	if !r.draining.CompareAndSwap(false, true) {
		return stats
	}
	defer r.draining.Store(false)

	start := time.Now()
	stats = r.drainDrafts(ctx, stats)
	stats = r.drainQueue(ctx, stats)

	if stats.Failures() == 0 {
		now := time.Now().UTC()
		r.lastSynced.Store(now)
		if r.marker != nil {
			r.marker.SetLastSynced(ctx, now)
		}
	}
	if r.observer != nil {
		r.observer.ObserveReconciliation(time.Since(start), stats)
	}
	if stats.DraftsSynced+stats.ItemsCompleted+stats.Failures() > 0 {
		r.logger.Sugar().Infow("reconciliation pass finished",
			"drafts_synced", stats.DraftsSynced,
			"drafts_failed", stats.DraftsFailed,
			"items_completed", stats.ItemsCompleted,
			"items_failed", stats.ItemsFailed,
			"duration", time.Since(start))
	}
	return stats
}

func (r *Reconciler) drainDrafts(ctx context.Context, stats DrainStats) DrainStats {
	records, err := r.drafts.ListUnsynced(ctx)
	if err != nil {
		r.logger.Sugar().Warnw("failed to list unsynced drafts", "error", err)
		return stats
	}
	for _, record := range records {
		if ctx.Err() != nil {
			return stats
		}
		if err := r.remote.UpdateSectionContent(ctx, record.EntityID, record.SectionID, record.Content); err != nil {
			stats.DraftsFailed++
			r.logger.Sugar().Warnw("draft sync failed",
				"entity_id", record.EntityID, "section_id", record.SectionID, "error", err)
			continue
		}
		if err := r.drafts.MarkSynced(ctx, record.EntityID); err != nil {
			stats.DraftsFailed++
			r.logger.Sugar().Warnw("failed to mark draft synced", "entity_id", record.EntityID, "error", err)
			continue
		}
		stats.DraftsSynced++
	}
	return stats
}

func (r *Reconciler) drainQueue(ctx context.Context, stats DrainStats) DrainStats {
	items, err := r.queue.ListPending(ctx)
	if err != nil {
		r.logger.Sugar().Warnw("failed to list pending sync items", "error", err)
		return stats
	}
	for _, item := range items {
		if ctx.Err() != nil {
			return stats
		}
		if err := r.dispatch(ctx, item); err != nil {
			stats.ItemsFailed++
			if failErr := r.queue.Fail(ctx, item.ID, err); failErr != nil {
				r.logger.Sugar().Errorw("failed to record sync item failure", "item_id", item.ID, "error", failErr)
			}
			r.logger.Sugar().Warnw("sync item failed",
				"item_id", item.ID, "type", item.Type, "attempts", item.Attempts+1, "error", err)
			continue
		}
		if err := r.queue.Complete(ctx, item.ID); err != nil {
			stats.ItemsFailed++
			r.logger.Sugar().Errorw("failed to complete sync item", "item_id", item.ID, "error", err)
			continue
		}
		stats.ItemsCompleted++
	}
	return stats
}

func (r *Reconciler) dispatch(ctx context.Context, item models.SyncQueueItem) error {
	switch item.Type {
	case models.SyncActionSectionUpdate:
		var payload models.SectionUpdatePayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode section_update payload: %w", err)
		}
		return r.remote.UpdateSectionContent(ctx, payload.EntityID, payload.SectionID, payload.Content)
	case models.SyncActionAssignUser:
		var payload models.AssignmentPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode assign_user payload: %w", err)
		}
		return r.remote.AssignUser(ctx, payload.EntityID, payload.SectionID, payload.UserID, payload.Permission)
	case models.SyncActionRemoveAssignment:
		var payload models.AssignmentPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode remove_assignment payload: %w", err)
		}
		return r.remote.RemoveAssignment(ctx, payload.EntityID, payload.SectionID, payload.UserID)
	case models.SyncActionAddComment:
		var payload models.CommentPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode add_comment payload: %w", err)
		}
		_, err := r.remote.CreateComment(ctx, payload)
		return err
	case models.SyncActionUpdateComment:
		var payload models.CommentOpPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode update_comment payload: %w", err)
		}
		return r.remote.UpdateComment(ctx, payload.EntityID, payload.CommentID, payload.Content)
	case models.SyncActionDeleteComment:
		var payload models.CommentOpPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode delete_comment payload: %w", err)
		}
		return r.remote.DeleteComment(ctx, payload.EntityID, payload.CommentID)
	case models.SyncActionResolveComment:
		var payload models.CommentOpPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			return fmt.Errorf("decode resolve_comment payload: %w", err)
		}
		return r.remote.SetCommentResolved(ctx, payload.EntityID, payload.CommentID, payload.Resolved)
	default:
		return fmt.Errorf("unknown sync action type %q", item.Type)
	}
}
