package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bidworks/collab-api/internal/models"
	"github.com/bidworks/collab-api/internal/repository"
	"github.com/bidworks/collab-api/internal/tree"
	appErrors "github.com/bidworks/collab-api/pkg/errors"
	"github.com/bidworks/collab-api/pkg/jobs"
)

type collaborationRemote interface {
	GetCollaborationData(ctx context.Context, entityID string) (*models.CollaborationData, error)
}

type draftingRemote interface {
	GenerateDraft(ctx context.Context, entityID, sectionID, instructions string) (*models.DraftResult, error)
}

type validationRemote interface {
	Validate(ctx context.Context, entityID string) (*models.ValidationReport, error)
}

type assignmentStore interface {
	ListByEntity(ctx context.Context, entityID string) ([]models.SectionAssignment, error)
	Upsert(ctx context.Context, assignment *models.SectionAssignment) error
	Delete(ctx context.Context, entityID, sectionID, userID string) error
}

type actionQueue interface {
	Enqueue(ctx context.Context, actionType models.SyncActionType, payload interface{}) (int64, error)
}

type confirmDispatcher interface {
	Enqueue(task jobs.Task) error
}

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type contentSaver interface {
	SaveOffline(ctx context.Context, entityID string, patch models.DraftPatch) (*models.DraftRecord, bool, error)
}

type usageRecorder interface {
	RecordCommentOperation(operation string)
	RecordCacheLookup(hit bool)
}

// AssignUserRequest grants a section permission.
type AssignUserRequest struct {
	UserID     string `json:"userId" validate:"required"`
	Permission string `json:"permission" validate:"required,oneof=EDIT READ_AND_COMMENT"`
}

// AddCommentRequest creates a root comment or a reply.
type AddCommentRequest struct {
	SectionID  string `json:"sectionId" validate:"required"`
	Content    string `json:"content" validate:"required"`
	QuotedText string `json:"quotedText"`
	ParentID   string `json:"parentId"`
}

// UpdateCommentRequest edits a comment's content.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// UpdateSectionRequest replaces a section's draft content.
type UpdateSectionRequest struct {
	Content string `json:"content" validate:"required"`
}

// GenerateDraftRequest asks the drafting collaborator for content.
type GenerateDraftRequest struct {
	Instructions string `json:"instructions" validate:"required"`
}

// session holds the loaded collaboration state for one entity: the
// permission snapshot, the comment forest and the activity feed. Mutations
// apply here optimistically before remote confirmation.
type session struct {
	mu       sync.Mutex
	entityID string
	gate     *PermissionGate
	forest   *tree.Forest
	activity []models.ActivityEntry
	loadedAt time.Time
}

// CollaborationService orchestrates the collaboration state of proposal
// entities: loading snapshots, gating mutations, applying them optimistically
// and handing remote confirmation to the background queue with the sync
// queue as durable fallback.
type CollaborationService struct {
	remote      collaborationRemote
	drafting    draftingRemote
	validation  validationRemote
	assignments assignmentStore
	syncQueue   actionQueue
	confirms    confirmDispatcher
	cache       snapshotCache
	saver       contentSaver
	usage       usageRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	snapshotTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*session
	loads    singleflight.Group
}

// NewCollaborationService constructs the service.
func NewCollaborationService(
	remote collaborationRemote,
	drafting draftingRemote,
	validation validationRemote,
	assignments assignmentStore,
	syncQueue actionQueue,
	confirms confirmDispatcher,
	cache snapshotCache,
	saver contentSaver,
	usage usageRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	snapshotTTL time.Duration,
) *CollaborationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Minute
	}
	return &CollaborationService{
		remote:      remote,
		drafting:    drafting,
		validation:  validation,
		assignments: assignments,
		syncQueue:   syncQueue,
		confirms:    confirms,
		cache:       cache,
		saver:       saver,
		usage:       usage,
		validator:   validate,
		logger:      logger,
		snapshotTTL: snapshotTTL,
		sessions:    make(map[string]*session),
	}
}

// loadedSession pairs the fetched snapshot with the session built from it so
// callers never have to re-read the session map after a load.
type loadedSession struct {
	data *models.CollaborationData
	sess *session
}

// Load fetches the collaboration snapshot for an entity and installs the
// session. Concurrent loads for the same entity share a single round trip.
func (s *CollaborationService) Load(ctx context.Context, entityID string) (*models.CollaborationData, error) {
	data, _, err := s.loadSession(ctx, entityID)
	return data, err
}

func (s *CollaborationService) loadSession(ctx context.Context, entityID string) (*models.CollaborationData, *session, error) {
	v, err, _ := s.loads.Do(entityID, func() (interface{}, error) {
		data, err := s.fetchSnapshot(ctx, entityID)
		if err != nil {
			return nil, err
		}
		return loadedSession{data: data, sess: s.installSession(entityID, data)}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	loaded := v.(loadedSession)
	return loaded.data, loaded.sess, nil
}

// Refresh drops the cached snapshot and reloads the session, picking up
// permission changes made elsewhere.
func (s *CollaborationService) Refresh(ctx context.Context, entityID string) (*models.CollaborationData, error) {
	if err := s.cache.Delete(ctx, repository.CollaborationKey(entityID)); err != nil {
		s.logger.Sugar().Warnw("failed to drop cached snapshot", "entity_id", entityID, "error", err)
	}
	s.mu.Lock()
	delete(s.sessions, entityID)
	s.mu.Unlock()
	return s.Load(ctx, entityID)
}

func (s *CollaborationService) fetchSnapshot(ctx context.Context, entityID string) (*models.CollaborationData, error) {
	cached := &models.CollaborationData{}
	if err := s.cache.Get(ctx, repository.CollaborationKey(entityID), cached); err == nil {
		s.recordCacheLookup(true)
		return s.overlayLocalAssignments(ctx, cached), nil
	}
	s.recordCacheLookup(false)

	data, err := s.remote.GetCollaborationData(ctx, entityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSyncFailed.Code, appErrors.ErrSyncFailed.Status, "failed to load collaboration data")
	}
	if err := s.cache.Set(ctx, repository.CollaborationKey(entityID), data, s.snapshotTTL); err != nil {
		s.logger.Sugar().Warnw("failed to cache snapshot", "entity_id", entityID, "error", err)
	}
	return s.overlayLocalAssignments(ctx, data), nil
}

// overlayLocalAssignments merges locally stored grants over the remote
// snapshot so optimistic assignment changes survive a reload made before
// their remote confirmation lands.
func (s *CollaborationService) overlayLocalAssignments(ctx context.Context, data *models.CollaborationData) *models.CollaborationData {
	local, err := s.assignments.ListByEntity(ctx, data.EntityID)
	if err != nil || len(local) == 0 {
		return data
	}
	seen := make(map[string]int, len(data.Assignments))
	for i, a := range data.Assignments {
		seen[a.SectionID+"|"+a.UserID] = i
	}
	for _, a := range local {
		if i, ok := seen[a.SectionID+"|"+a.UserID]; ok {
			data.Assignments[i].Permission = a.Permission
			continue
		}
		data.Assignments = append(data.Assignments, a)
	}
	return data
}

func (s *CollaborationService) installSession(entityID string, data *models.CollaborationData) *session {
	forest := tree.NewForest()
	bySection := make(map[string][]*models.CommentNode)
	var order []string
	for _, c := range data.Comments {
		if _, ok := bySection[c.SectionID]; !ok {
			order = append(order, c.SectionID)
		}
		bySection[c.SectionID] = append(bySection[c.SectionID], c)
	}
	for _, sectionID := range order {
		forest.Hydrate(sectionID, bySection[sectionID])
	}

	sess := &session{
		entityID: entityID,
		gate:     NewPermissionGate(data.OwnerID, data.Assignments),
		forest:   forest,
		activity: append([]models.ActivityEntry(nil), data.Activity...),
		loadedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[entityID] = sess
	s.mu.Unlock()
	return sess
}

// ensureSession returns the live session, loading it when absent. The loaded
// session is used directly rather than re-read from the map, since a
// concurrent Refresh may evict the entry at any point.
func (s *CollaborationService) ensureSession(ctx context.Context, entityID string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[entityID]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}
	_, sess, err := s.loadSession(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// AssignUser grants a section permission. Owner only. The grant applies
// optimistically (local store and gate) and is confirmed remotely in the
// background.
func (s *CollaborationService) AssignUser(ctx context.Context, entityID, sectionID string, principal models.Principal, req AssignUserRequest) (*models.SectionAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !sess.gate.IsOwner(principal.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the entity owner can manage assignments")
	}

	assignment := &models.SectionAssignment{
		EntityID:   entityID,
		SectionID:  sectionID,
		UserID:     req.UserID,
		Permission: models.Permission(req.Permission),
	}
	if err := s.assignments.Upsert(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to store assignment")
	}

	sess.gate.Grant(sectionID, req.UserID, assignment.Permission)
	s.invalidateSnapshot(ctx, entityID)
	s.recordActivity(sess, principal, "assigned", sectionID, req.UserID+" as "+req.Permission)

	s.confirm(ctx, models.SyncActionAssignUser, entityID, models.AssignmentPayload{
		EntityID:   entityID,
		SectionID:  sectionID,
		UserID:     req.UserID,
		Permission: assignment.Permission,
	})
	return assignment, nil
}

// RemoveAssignment revokes a section permission. Owner only.
func (s *CollaborationService) RemoveAssignment(ctx context.Context, entityID, sectionID, userID string, principal models.Principal) error {
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return err
	}
	if !sess.gate.IsOwner(principal.UserID) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the entity owner can manage assignments")
	}

	if err := s.assignments.Delete(ctx, entityID, sectionID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to remove assignment")
	}

	sess.gate.Revoke(sectionID, userID)
	s.invalidateSnapshot(ctx, entityID)
	s.recordActivity(sess, principal, "unassigned", sectionID, userID)

	s.confirm(ctx, models.SyncActionRemoveAssignment, entityID, models.AssignmentPayload{
		EntityID:  entityID,
		SectionID: sectionID,
		UserID:    userID,
	})
	return nil
}

// LoadComments returns the section's comment forest and counters. Requires
// any access to the entity.
func (s *CollaborationService) LoadComments(ctx context.Context, entityID, sectionID string, principal models.Principal) ([]*models.CommentNode, models.CommentCounts, error) {
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return nil, models.CommentCounts{}, err
	}
	if !sess.gate.HasAnyAccess(principal.UserID) {
		return nil, models.CommentCounts{}, appErrors.ErrForbidden
	}
	return sess.forest.Roots(sectionID), sess.forest.Counts(sectionID), nil
}

// AddComment creates a root comment or, when ParentID is set, a reply nested
// under the parent wherever it sits in the tree.
func (s *CollaborationService) AddComment(ctx context.Context, entityID string, principal models.Principal, req AddCommentRequest) (*models.CommentNode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !sess.gate.CanComment(req.SectionID, principal.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "commenting is not permitted in this section")
	}

	candidate := models.CommentNode{
		SectionID:  req.SectionID,
		AuthorID:   principal.UserID,
		Content:    req.Content,
		QuotedText: req.QuotedText,
	}
	var node *models.CommentNode
	if req.ParentID != "" {
		node, err = sess.forest.AddReply(req.ParentID, candidate)
		if err != nil {
			return nil, err
		}
	} else {
		node = sess.forest.AddRoot(candidate)
	}
	s.recordActivity(sess, principal, "commented", node.SectionID, "")
	s.recordCommentOp("add")

	s.confirm(ctx, models.SyncActionAddComment, entityID, models.CommentPayload{
		CommentID:  node.ID,
		EntityID:   entityID,
		SectionID:  node.SectionID,
		AuthorID:   principal.UserID,
		Content:    req.Content,
		QuotedText: req.QuotedText,
		ParentID:   req.ParentID,
	})
	return node, nil
}

// UpdateComment edits a comment in place. Authors edit their own comments;
// the owner may edit any.
func (s *CollaborationService) UpdateComment(ctx context.Context, entityID, commentID string, principal models.Principal, req UpdateCommentRequest) (*models.CommentNode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return nil, err
	}
	existing, err := sess.forest.Get(commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCommentMutation(sess, existing, principal); err != nil {
		return nil, err
	}

	node, err := sess.forest.Update(commentID, req.Content)
	if err != nil {
		return nil, err
	}
	s.recordCommentOp("update")
	s.confirm(ctx, models.SyncActionUpdateComment, entityID, models.CommentOpPayload{
		EntityID:  entityID,
		CommentID: commentID,
		Content:   req.Content,
	})
	return node, nil
}

// DeleteComment removes a comment and its whole reply subtree, returning the
// number of removed nodes.
func (s *CollaborationService) DeleteComment(ctx context.Context, entityID, commentID string, principal models.Principal) (int, error) {
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return 0, err
	}
	existing, err := sess.forest.Get(commentID)
	if err != nil {
		return 0, err
	}
	if err := s.authorizeCommentMutation(sess, existing, principal); err != nil {
		return 0, err
	}

	removed, err := sess.forest.Delete(commentID)
	if err != nil {
		return 0, err
	}
	s.recordActivity(sess, principal, "deleted_comment", existing.SectionID, "")
	s.recordCommentOp("delete")
	s.confirm(ctx, models.SyncActionDeleteComment, entityID, models.CommentOpPayload{
		EntityID:  entityID,
		CommentID: commentID,
	})
	return removed, nil
}

// SetCommentResolved resolves or unresolves a single comment node.
func (s *CollaborationService) SetCommentResolved(ctx context.Context, entityID, commentID string, principal models.Principal, resolved bool) error {
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return err
	}
	existing, err := sess.forest.Get(commentID)
	if err != nil {
		return err
	}
	if !sess.gate.CanComment(existing.SectionID, principal.UserID) {
		return appErrors.Clone(appErrors.ErrForbidden, "commenting is not permitted in this section")
	}

	if err := sess.forest.SetResolved(commentID, resolved); err != nil {
		return err
	}
	operation := "resolve"
	if !resolved {
		operation = "unresolve"
	}
	s.recordCommentOp(operation)
	s.confirm(ctx, models.SyncActionResolveComment, entityID, models.CommentOpPayload{
		EntityID:  entityID,
		CommentID: commentID,
		Resolved:  resolved,
	})
	return nil
}

// UpdateSection applies a content edit through the offline-capable save
// path. The returned flag reports storage degradation (memory-only saves).
func (s *CollaborationService) UpdateSection(ctx context.Context, entityID, sectionID string, principal models.Principal, req UpdateSectionRequest) (*models.DraftRecord, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid content payload")
	}
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return nil, false, err
	}
	if !sess.gate.CanEdit(sectionID, principal.UserID) {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "editing is not permitted in this section")
	}

	record, degraded, err := s.saver.SaveOffline(ctx, entityID, models.DraftPatch{
		SectionID: &sectionID,
		Content:   &req.Content,
	})
	if err != nil {
		return nil, degraded, err
	}
	s.recordActivity(sess, principal, "edited", sectionID, "")
	return record, degraded, nil
}

// GenerateDraft asks the drafting collaborator for section content. Edit
// permission is required since the result lands in the section.
func (s *CollaborationService) GenerateDraft(ctx context.Context, entityID, sectionID string, principal models.Principal, req GenerateDraftRequest) (*models.DraftResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drafting payload")
	}
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !sess.gate.CanEdit(sectionID, principal.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "editing is not permitted in this section")
	}

	result, err := s.drafting.GenerateDraft(ctx, entityID, sectionID, req.Instructions)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidationUnavailable.Code, appErrors.ErrValidationUnavailable.Status, "drafting service unavailable")
	}
	return result, nil
}

// Validate scores the entity's proposal content. Failures surface to the
// caller and are never retried automatically.
func (s *CollaborationService) Validate(ctx context.Context, entityID string, principal models.Principal) (*models.ValidationReport, error) {
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !sess.gate.HasAnyAccess(principal.UserID) {
		return nil, appErrors.ErrForbidden
	}

	report, err := s.validation.Validate(ctx, entityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidationUnavailable.Code, appErrors.ErrValidationUnavailable.Status, "validation service unavailable")
	}
	return report, nil
}

// Activity returns the session's activity feed, newest last.
func (s *CollaborationService) Activity(ctx context.Context, entityID string, principal models.Principal) ([]models.ActivityEntry, error) {
	sess, err := s.ensureSession(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !sess.gate.HasAnyAccess(principal.UserID) {
		return nil, appErrors.ErrForbidden
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return append([]models.ActivityEntry(nil), sess.activity...), nil
}

// AuthorizeAction checks that the principal may enqueue the given mutation
// intent. Queued actions replay through the reconciler without any further
// principal context, so they pass the same gate as their direct counterparts.
func (s *CollaborationService) AuthorizeAction(ctx context.Context, principal models.Principal, actionType models.SyncActionType, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid action payload")
	}

	switch actionType {
	case models.SyncActionSectionUpdate:
		var p models.SectionUpdatePayload
		if err := json.Unmarshal(raw, &p); err != nil || p.EntityID == "" || p.SectionID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "invalid section update payload")
		}
		sess, err := s.ensureSession(ctx, p.EntityID)
		if err != nil {
			return err
		}
		if !sess.gate.CanEdit(p.SectionID, principal.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "editing is not permitted in this section")
		}

	case models.SyncActionAssignUser, models.SyncActionRemoveAssignment:
		var p models.AssignmentPayload
		if err := json.Unmarshal(raw, &p); err != nil || p.EntityID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "invalid assignment payload")
		}
		sess, err := s.ensureSession(ctx, p.EntityID)
		if err != nil {
			return err
		}
		if !sess.gate.IsOwner(principal.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "only the entity owner can manage assignments")
		}

	case models.SyncActionAddComment:
		var p models.CommentPayload
		if err := json.Unmarshal(raw, &p); err != nil || p.EntityID == "" || p.SectionID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "invalid comment payload")
		}
		sess, err := s.ensureSession(ctx, p.EntityID)
		if err != nil {
			return err
		}
		if !sess.gate.CanComment(p.SectionID, principal.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "commenting is not permitted in this section")
		}

	case models.SyncActionUpdateComment, models.SyncActionDeleteComment:
		var p models.CommentOpPayload
		if err := json.Unmarshal(raw, &p); err != nil || p.EntityID == "" || p.CommentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "invalid comment payload")
		}
		sess, err := s.ensureSession(ctx, p.EntityID)
		if err != nil {
			return err
		}
		existing, err := sess.forest.Get(p.CommentID)
		if err != nil {
			return err
		}
		if err := s.authorizeCommentMutation(sess, existing, principal); err != nil {
			return err
		}

	case models.SyncActionResolveComment:
		var p models.CommentOpPayload
		if err := json.Unmarshal(raw, &p); err != nil || p.EntityID == "" || p.CommentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "invalid comment payload")
		}
		sess, err := s.ensureSession(ctx, p.EntityID)
		if err != nil {
			return err
		}
		existing, err := sess.forest.Get(p.CommentID)
		if err != nil {
			return err
		}
		if !sess.gate.CanComment(existing.SectionID, principal.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "commenting is not permitted in this section")
		}

	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown action type")
	}
	return nil
}

func (s *CollaborationService) authorizeCommentMutation(sess *session, comment *models.CommentNode, principal models.Principal) error {
	if !sess.gate.CanComment(comment.SectionID, principal.UserID) {
		return appErrors.Clone(appErrors.ErrForbidden, "commenting is not permitted in this section")
	}
	if comment.AuthorID != principal.UserID && !sess.gate.IsOwner(principal.UserID) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or the owner can modify this comment")
	}
	return nil
}

func (s *CollaborationService) recordActivity(sess *session, principal models.Principal, action, sectionID, detail string) {
	entry := models.ActivityEntry{
		ID:        uuid.NewString(),
		EntityID:  sess.entityID,
		UserID:    principal.UserID,
		Action:    action,
		SectionID: sectionID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	sess.mu.Lock()
	sess.activity = append(sess.activity, entry)
	sess.mu.Unlock()
}

func (s *CollaborationService) recordCommentOp(operation string) {
	if s.usage != nil {
		s.usage.RecordCommentOperation(operation)
	}
}

func (s *CollaborationService) recordCacheLookup(hit bool) {
	if s.usage != nil {
		s.usage.RecordCacheLookup(hit)
	}
}

func (s *CollaborationService) invalidateSnapshot(ctx context.Context, entityID string) {
	if err := s.cache.Delete(ctx, repository.CollaborationKey(entityID)); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate snapshot cache", "entity_id", entityID, "error", err)
	}
}

// confirm hands the remote confirmation of an optimistic mutation to the
// background queue, falling back to the durable sync queue so the intent is
// never lost.
func (s *CollaborationService) confirm(ctx context.Context, actionType models.SyncActionType, entityID string, payload interface{}) {
	if s.confirms != nil {
		task := jobs.Task{
			ID:       uuid.NewString(),
			Type:     string(actionType),
			EntityID: entityID,
			Payload:  payload,
		}
		if err := s.confirms.Enqueue(task); err == nil {
			return
		}
	}
	if _, err := s.syncQueue.Enqueue(ctx, actionType, payload); err != nil {
		s.logger.Sugar().Errorw("failed to queue mutation intent",
			"entity_id", entityID, "type", actionType, "error", err)
	}
}
