package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bidworks/collab-api/internal/models"
	"github.com/bidworks/collab-api/pkg/jobs"
)

type confirmRemote interface {
	UpdateSectionContent(ctx context.Context, entityID, sectionID, content string) error
	AssignUser(ctx context.Context, entityID, sectionID, userID string, permission models.Permission) error
	RemoveAssignment(ctx context.Context, entityID, sectionID, userID string) error
	CreateComment(ctx context.Context, payload models.CommentPayload) (*models.CommentNode, error)
	UpdateComment(ctx context.Context, entityID, commentID, content string) error
	DeleteComment(ctx context.Context, entityID, commentID string) error
	SetCommentResolved(ctx context.Context, entityID, commentID string, resolved bool) error
}

// NewConfirmHandler returns the jobs handler that pushes an optimistic
// mutation to the remote authority. Payloads arrive as the typed structs the
// services enqueue.
func NewConfirmHandler(remote confirmRemote, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task jobs.Task) error {
		switch models.SyncActionType(task.Type) {
		case models.SyncActionSectionUpdate:
			p, ok := task.Payload.(models.SectionUpdatePayload)
			if !ok {
				return fmt.Errorf("unexpected payload %T for %s", task.Payload, task.Type)
			}
			return remote.UpdateSectionContent(ctx, p.EntityID, p.SectionID, p.Content)
		case models.SyncActionAssignUser:
			p, ok := task.Payload.(models.AssignmentPayload)
			if !ok {
				return fmt.Errorf("unexpected payload %T for %s", task.Payload, task.Type)
			}
			return remote.AssignUser(ctx, p.EntityID, p.SectionID, p.UserID, p.Permission)
		case models.SyncActionRemoveAssignment:
			p, ok := task.Payload.(models.AssignmentPayload)
			if !ok {
				return fmt.Errorf("unexpected payload %T for %s", task.Payload, task.Type)
			}
			return remote.RemoveAssignment(ctx, p.EntityID, p.SectionID, p.UserID)
		case models.SyncActionAddComment:
			p, ok := task.Payload.(models.CommentPayload)
			if !ok {
				return fmt.Errorf("unexpected payload %T for %s", task.Payload, task.Type)
			}
			_, err := remote.CreateComment(ctx, p)
			return err
		case models.SyncActionUpdateComment:
			p, ok := task.Payload.(models.CommentOpPayload)
			if !ok {
				return fmt.Errorf("unexpected payload %T for %s", task.Payload, task.Type)
			}
			return remote.UpdateComment(ctx, p.EntityID, p.CommentID, p.Content)
		case models.SyncActionDeleteComment:
			p, ok := task.Payload.(models.CommentOpPayload)
			if !ok {
				return fmt.Errorf("unexpected payload %T for %s", task.Payload, task.Type)
			}
			return remote.DeleteComment(ctx, p.EntityID, p.CommentID)
		case models.SyncActionResolveComment:
			p, ok := task.Payload.(models.CommentOpPayload)
			if !ok {
				return fmt.Errorf("unexpected payload %T for %s", task.Payload, task.Type)
			}
			return remote.SetCommentResolved(ctx, p.EntityID, p.CommentID, p.Resolved)
		default:
			return fmt.Errorf("unknown confirmation type %q", task.Type)
		}
	}
}

// NewExhaustedHook diverts confirmations that failed all retries into the
// durable sync queue so the reconciler replays them on the next pass.
func NewExhaustedHook(queue actionQueue, logger *zap.Logger) jobs.ExhaustedFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task jobs.Task, cause error) {
		if _, err := queue.Enqueue(ctx, models.SyncActionType(task.Type), task.Payload); err != nil {
			logger.Sugar().Errorw("failed to persist exhausted confirmation",
				"task_id", task.ID, "type", task.Type, "entity_id", task.EntityID,
				"cause", cause, "error", err)
			return
		}
		logger.Sugar().Warnw("confirmation diverted to sync queue",
			"task_id", task.ID, "type", task.Type, "entity_id", task.EntityID, "cause", cause)
	}
}
