package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bidworks/collab-api/internal/dto"
	"github.com/bidworks/collab-api/internal/models"
	appErrors "github.com/bidworks/collab-api/pkg/errors"
)

type draftWriter interface {
	Put(ctx context.Context, entityID string, patch models.DraftPatch) (*models.DraftRecord, error)
	CountUnsynced(ctx context.Context) (int, error)
}

type pendingCounter interface {
	actionQueue
	CountPending(ctx context.Context) (int, error)
}

type syncControl interface {
	IsSyncing() bool
	LastSynced() time.Time
	ForceSync()
}

type onlineChecker interface {
	Online() bool
}

type lastSyncedReader interface {
	LastSynced(ctx context.Context) time.Time
}

type actionAuthorizer interface {
	AuthorizeAction(ctx context.Context, principal models.Principal, actionType models.SyncActionType, payload interface{}) error
}

// OfflineService is the offline-capable surface: durable local saves with an
// in-memory fallback when storage is unavailable, intent queueing and sync
// status reporting.
type OfflineService struct {
	drafts     draftWriter
	queue      pendingCounter
	control    syncControl
	monitor    onlineChecker
	marker     lastSyncedReader
	authorizer actionAuthorizer
	logger     *zap.Logger

	mu       sync.Mutex
	fallback map[string]models.DraftRecord
}

// SetControl attaches the reconciler after construction. The reconciler
// observes metrics fed by this service, so the two cannot be built in one
// step.
func (s *OfflineService) SetControl(control syncControl) {
	s.mu.Lock()
	s.control = control
	s.mu.Unlock()
}

// SetAuthorizer attaches the permission check for queued intents. The
// collaboration service saves drafts through this service, so the two cannot
// be built in one step either.
func (s *OfflineService) SetAuthorizer(authorizer actionAuthorizer) {
	s.mu.Lock()
	s.authorizer = authorizer
	s.mu.Unlock()
}

// NewOfflineService constructs the service.
func NewOfflineService(drafts draftWriter, queue pendingCounter, control syncControl, monitor onlineChecker, marker lastSyncedReader, logger *zap.Logger) *OfflineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfflineService{
		drafts:   drafts,
		queue:    queue,
		control:  control,
		monitor:  monitor,
		marker:   marker,
		logger:   logger,
		fallback: make(map[string]models.DraftRecord),
	}
}

// IsOnline reports current connectivity to the remote authority.
func (s *OfflineService) IsOnline() bool {
	return s.monitor.Online()
}

func (s *OfflineService) syncControl() syncControl {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control
}

// IsSyncing reports whether a reconciliation pass is in flight.
func (s *OfflineService) IsSyncing() bool {
	if control := s.syncControl(); control != nil {
		return control.IsSyncing()
	}
	return false
}

// PendingChanges counts unsynced drafts plus queued intents, including any
// memory-only saves made while storage was down.
func (s *OfflineService) PendingChanges(ctx context.Context) int {
	total := 0
	if n, err := s.drafts.CountUnsynced(ctx); err == nil {
		total += n
	} else {
		s.logger.Sugar().Warnw("failed to count unsynced drafts", "error", err)
	}
	if n, err := s.queue.CountPending(ctx); err == nil {
		total += n
	} else {
		s.logger.Sugar().Warnw("failed to count pending sync items", "error", err)
	}
	s.mu.Lock()
	total += len(s.fallback)
	s.mu.Unlock()
	return total
}

// LastSynced returns the completion time of the last clean reconciliation
// pass, preferring this instance's reconciler and falling back to the shared
// marker.
func (s *OfflineService) LastSynced(ctx context.Context) time.Time {
	if control := s.syncControl(); control != nil {
		if at := control.LastSynced(); !at.IsZero() {
			return at
		}
	}
	if s.marker != nil {
		return s.marker.LastSynced(ctx)
	}
	return time.Time{}
}

// SaveOffline persists a draft patch locally. The save never fails outright:
// when durable storage is down the patch lands in an in-memory fallback and
// the degraded flag is returned true. Online saves kick the reconciler.
func (s *OfflineService) SaveOffline(ctx context.Context, entityID string, patch models.DraftPatch) (*models.DraftRecord, bool, error) {
	record, err := s.drafts.Put(ctx, entityID, patch)
	if err != nil {
		s.logger.Sugar().Warnw("durable draft save failed, keeping in memory",
			"entity_id", entityID, "error", err)
		record = s.saveFallback(entityID, patch)
		return record, true, nil
	}

	s.flushFallback(ctx)
	if control := s.syncControl(); control != nil && s.monitor.Online() {
		control.ForceSync()
	}
	return record, false, nil
}

// QueueAction records a mutation intent in the durable sync queue. The
// reconciler replays queued intents without further checks, so the principal
// must pass the same permission gate as the direct mutation would.
func (s *OfflineService) QueueAction(ctx context.Context, principal models.Principal, actionType models.SyncActionType, payload interface{}) (int64, error) {
	s.mu.Lock()
	authorizer := s.authorizer
	s.mu.Unlock()
	if authorizer != nil {
		if err := authorizer.AuthorizeAction(ctx, principal, actionType, payload); err != nil {
			return 0, err
		}
	}
	id, err := s.queue.Enqueue(ctx, actionType, payload)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to queue action")
	}
	return id, nil
}

// ForceSync requests an immediate reconciliation pass. Memory-only saves are
// flushed first so a recovered store drains even without a further edit.
func (s *OfflineService) ForceSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.flushFallback(ctx)

	if control := s.syncControl(); control != nil {
		control.ForceSync()
	}
}

// Status snapshots the sync state for the status endpoint.
func (s *OfflineService) Status(ctx context.Context) dto.SyncStatusResponse {
	s.mu.Lock()
	degraded := len(s.fallback) > 0
	s.mu.Unlock()

	resp := dto.SyncStatusResponse{
		IsOnline:        s.IsOnline(),
		IsSyncing:       s.IsSyncing(),
		PendingChanges:  s.PendingChanges(ctx),
		StorageDegraded: degraded,
	}
	if at := s.LastSynced(ctx); !at.IsZero() {
		resp.LastSynced = &at
	}
	return resp
}

func (s *OfflineService) saveFallback(entityID string, patch models.DraftPatch) *models.DraftRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.fallback[entityID]
	record.EntityID = entityID
	if patch.SectionID != nil {
		record.SectionID = *patch.SectionID
	}
	if patch.Content != nil {
		record.Content = *patch.Content
	}
	record.UpdatedAt = time.Now().UTC()
	record.Synced = false
	s.fallback[entityID] = record

	out := record
	return &out
}

// flushFallback replays memory-only saves into durable storage once it
// recovers. Entries that still fail stay in memory for the next attempt.
func (s *OfflineService) flushFallback(ctx context.Context) {
	s.mu.Lock()
	if len(s.fallback) == 0 {
		s.mu.Unlock()
		return
	}
	pending := make(map[string]models.DraftRecord, len(s.fallback))
	for id, record := range s.fallback {
		pending[id] = record
	}
	s.mu.Unlock()

	for entityID, record := range pending {
		sectionID, content := record.SectionID, record.Content
		patch := models.DraftPatch{SectionID: &sectionID, Content: &content}
		if _, err := s.drafts.Put(ctx, entityID, patch); err != nil {
			s.logger.Sugar().Warnw("fallback flush failed", "entity_id", entityID, "error", err)
			continue
		}
		s.mu.Lock()
		delete(s.fallback, entityID)
		s.mu.Unlock()
		s.logger.Sugar().Infow("recovered memory-only draft into storage", "entity_id", entityID)
	}
}
