package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bidworks/collab-api/internal/models"
)

type draftStoreStub struct {
	records map[string]*models.DraftRecord
	order   []string
	listErr error
}

func newDraftStoreStub(records ...models.DraftRecord) *draftStoreStub {
	s := &draftStoreStub{records: make(map[string]*models.DraftRecord)}
	for i := range records {
		r := records[i]
		s.records[r.EntityID] = &r
		s.order = append(s.order, r.EntityID)
	}
	return s
}

func (s *draftStoreStub) ListUnsynced(ctx context.Context) ([]models.DraftRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.DraftRecord
	for _, id := range s.order {
		if r := s.records[id]; !r.Synced {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *draftStoreStub) MarkSynced(ctx context.Context, entityID string) error {
	s.records[entityID].Synced = true
	return nil
}

type queueStoreStub struct {
	items     []models.SyncQueueItem
	completed []int64
	failed    map[int64]string
}

func (s *queueStoreStub) ListPending(ctx context.Context) ([]models.SyncQueueItem, error) {
	var out []models.SyncQueueItem
	for _, item := range s.items {
		if !containsID(s.completed, item.ID) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *queueStoreStub) Complete(ctx context.Context, id int64) error {
	s.completed = append(s.completed, id)
	return nil
}

func (s *queueStoreStub) Fail(ctx context.Context, id int64, cause error) error {
	if s.failed == nil {
		s.failed = make(map[int64]string)
	}
	s.failed[id] = cause.Error()
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type remoteStub struct {
	updates      []string
	assigns      []string
	removes      []string
	comments     []models.CommentPayload
	failEntities map[string]error
}

func (s *remoteStub) UpdateSectionContent(ctx context.Context, entityID, sectionID, content string) error {
	if err := s.failEntities[entityID]; err != nil {
		return err
	}
	s.updates = append(s.updates, entityID+":"+sectionID+":"+content)
	return nil
}

func (s *remoteStub) AssignUser(ctx context.Context, entityID, sectionID, userID string, permission models.Permission) error {
	s.assigns = append(s.assigns, entityID+":"+sectionID+":"+userID+":"+string(permission))
	return nil
}

func (s *remoteStub) RemoveAssignment(ctx context.Context, entityID, sectionID, userID string) error {
	s.removes = append(s.removes, entityID+":"+sectionID+":"+userID)
	return nil
}

func (s *remoteStub) CreateComment(ctx context.Context, payload models.CommentPayload) (*models.CommentNode, error) {
	s.comments = append(s.comments, payload)
	return &models.CommentNode{ID: "remote-1"}, nil
}

func (s *remoteStub) UpdateComment(ctx context.Context, entityID, commentID, content string) error {
	s.updates = append(s.updates, "comment:"+commentID+":"+content)
	return nil
}

func (s *remoteStub) DeleteComment(ctx context.Context, entityID, commentID string) error {
	s.removes = append(s.removes, "comment:"+commentID)
	return nil
}

func (s *remoteStub) SetCommentResolved(ctx context.Context, entityID, commentID string, resolved bool) error {
	s.updates = append(s.updates, fmt.Sprintf("resolve:%s:%t", commentID, resolved))
	return nil
}

type connectivityStub struct {
	online bool
	ch     chan bool
}

func (s *connectivityStub) Online() bool { return s.online }

func (s *connectivityStub) Subscribe() <-chan bool {
	if s.ch == nil {
		s.ch = make(chan bool, 4)
	}
	return s.ch
}

func newTestReconciler(drafts *draftStoreStub, queue *queueStoreStub, remote *remoteStub, online bool) *Reconciler {
	return NewReconciler(drafts, queue, remote, &connectivityStub{online: online}, nil, nil, zap.NewNop(), time.Minute)
}

func TestDrainOfflineIsNoop(t *testing.T) {
	drafts := newDraftStoreStub(models.DraftRecord{EntityID: "entity-1", SectionID: "s1", Content: "a"})
	remote := &remoteStub{}
	r := newTestReconciler(drafts, &queueStoreStub{}, remote, false)

	stats := r.Drain(context.Background())
	assert.Zero(t, stats.DraftsSynced)
	assert.Empty(t, remote.updates)
	assert.False(t, drafts.records["entity-1"].Synced)
}

func TestDrainPartialBatchFailure(t *testing.T) {
	drafts := newDraftStoreStub(
		models.DraftRecord{EntityID: "entity-1", SectionID: "s1", Content: "a"},
		models.DraftRecord{EntityID: "entity-2", SectionID: "s2", Content: "b"},
	)
	remote := &remoteStub{failEntities: map[string]error{"entity-1": errors.New("remote unavailable")}}
	r := newTestReconciler(drafts, &queueStoreStub{}, remote, true)

	stats := r.Drain(context.Background())
	assert.Equal(t, 1, stats.DraftsSynced)
	assert.Equal(t, 1, stats.DraftsFailed)
	assert.False(t, drafts.records["entity-1"].Synced)
	assert.True(t, drafts.records["entity-2"].Synced)
	assert.Equal(t, []string{"entity-2:s2:b"}, remote.updates)
	assert.True(t, r.LastSynced().IsZero(), "a failing pass must not publish last synced")
}

func TestDrainIdempotentSecondPassMakesNoRemoteCalls(t *testing.T) {
	drafts := newDraftStoreStub(models.DraftRecord{EntityID: "entity-1", SectionID: "s1", Content: "draft B"})
	remote := &remoteStub{}
	r := newTestReconciler(drafts, &queueStoreStub{}, remote, true)

	first := r.Drain(context.Background())
	assert.Equal(t, 1, first.DraftsSynced)
	require.Len(t, remote.updates, 1)
	assert.Equal(t, "entity-1:s1:draft B", remote.updates[0])
	assert.False(t, r.LastSynced().IsZero())

	second := r.Drain(context.Background())
	assert.Zero(t, second.DraftsSynced)
	assert.Zero(t, second.Failures())
	assert.Len(t, remote.updates, 1, "no new local edits means zero additional remote calls")
}

func TestDrainQueueDispatchAndFailureKeepsItem(t *testing.T) {
	assignPayload, _ := json.Marshal(models.AssignmentPayload{
		EntityID: "entity-1", SectionID: "s1", UserID: "user-2", Permission: models.PermissionEdit,
	})
	badPayload := []byte(`{`)
	commentPayload, _ := json.Marshal(models.CommentPayload{
		EntityID: "entity-1", SectionID: "s1", AuthorID: "user-2", Content: "hello",
	})
	queue := &queueStoreStub{items: []models.SyncQueueItem{
		{ID: 1, Type: models.SyncActionAssignUser, Payload: assignPayload},
		{ID: 2, Type: models.SyncActionSectionUpdate, Payload: badPayload},
		{ID: 3, Type: models.SyncActionAddComment, Payload: commentPayload},
	}}
	remote := &remoteStub{}
	r := newTestReconciler(newDraftStoreStub(), queue, remote, true)

	stats := r.Drain(context.Background())
	assert.Equal(t, 2, stats.ItemsCompleted)
	assert.Equal(t, 1, stats.ItemsFailed)
	assert.Equal(t, []int64{1, 3}, queue.completed)
	require.Contains(t, queue.failed, int64(2))
	require.Len(t, remote.comments, 1)
	assert.Equal(t, "user-2", remote.comments[0].AuthorID)
	assert.Equal(t, []string{"entity-1:s1:user-2:EDIT"}, remote.assigns)
}

func TestDrainUnknownActionTypeFails(t *testing.T) {
	queue := &queueStoreStub{items: []models.SyncQueueItem{
		{ID: 9, Type: models.SyncActionType("time_travel"), Payload: []byte(`{}`)},
	}}
	r := newTestReconciler(newDraftStoreStub(), queue, &remoteStub{}, true)

	stats := r.Drain(context.Background())
	assert.Equal(t, 1, stats.ItemsFailed)
	assert.Contains(t, queue.failed[9], "unknown sync action")
}

func TestForceSyncCoalesces(t *testing.T) {
	r := newTestReconciler(newDraftStoreStub(), &queueStoreStub{}, &remoteStub{}, true)
	r.ForceSync()
	r.ForceSync()
	r.ForceSync()
	assert.Len(t, r.force, 1)
}
