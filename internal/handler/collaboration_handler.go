package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bidworks/collab-api/internal/dto"
	"github.com/bidworks/collab-api/internal/models"
	"github.com/bidworks/collab-api/internal/service"
	appErrors "github.com/bidworks/collab-api/pkg/errors"
	"github.com/bidworks/collab-api/pkg/response"
)

type collaborationService interface {
	Load(ctx context.Context, entityID string) (*models.CollaborationData, error)
	Refresh(ctx context.Context, entityID string) (*models.CollaborationData, error)
	AssignUser(ctx context.Context, entityID, sectionID string, principal models.Principal, req service.AssignUserRequest) (*models.SectionAssignment, error)
	RemoveAssignment(ctx context.Context, entityID, sectionID, userID string, principal models.Principal) error
	LoadComments(ctx context.Context, entityID, sectionID string, principal models.Principal) ([]*models.CommentNode, models.CommentCounts, error)
	AddComment(ctx context.Context, entityID string, principal models.Principal, req service.AddCommentRequest) (*models.CommentNode, error)
	UpdateComment(ctx context.Context, entityID, commentID string, principal models.Principal, req service.UpdateCommentRequest) (*models.CommentNode, error)
	DeleteComment(ctx context.Context, entityID, commentID string, principal models.Principal) (int, error)
	SetCommentResolved(ctx context.Context, entityID, commentID string, principal models.Principal, resolved bool) error
	UpdateSection(ctx context.Context, entityID, sectionID string, principal models.Principal, req service.UpdateSectionRequest) (*models.DraftRecord, bool, error)
	GenerateDraft(ctx context.Context, entityID, sectionID string, principal models.Principal, req service.GenerateDraftRequest) (*models.DraftResult, error)
	Validate(ctx context.Context, entityID string, principal models.Principal) (*models.ValidationReport, error)
	Activity(ctx context.Context, entityID string, principal models.Principal) ([]models.ActivityEntry, error)
}

// CollaborationHandler exposes the collaboration session endpoints.
type CollaborationHandler struct {
	service collaborationService
}

// NewCollaborationHandler builds a new handler.
func NewCollaborationHandler(service collaborationService) *CollaborationHandler {
	return &CollaborationHandler{service: service}
}

// Load returns the collaboration snapshot for an entity.
func (h *CollaborationHandler) Load(c *gin.Context) {
	data, err := h.service.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// Refresh drops cached state and reloads the snapshot.
func (h *CollaborationHandler) Refresh(c *gin.Context) {
	data, err := h.service.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// UpdateSection saves section content through the offline-capable path.
func (h *CollaborationHandler) UpdateSection(c *gin.Context) {
	var req service.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid content payload"))
		return
	}
	record, degraded, err := h.service.UpdateSection(c.Request.Context(), c.Param("id"), c.Param("sectionId"), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SaveDraftResponse{Draft: record, StorageDegraded: degraded}, nil)
}

// AssignUser grants a section permission.
func (h *CollaborationHandler) AssignUser(c *gin.Context) {
	var req service.AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.AssignUser(c.Request.Context(), c.Param("id"), c.Param("sectionId"), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// RemoveAssignment revokes a section permission.
func (h *CollaborationHandler) RemoveAssignment(c *gin.Context) {
	err := h.service.RemoveAssignment(c.Request.Context(), c.Param("id"), c.Param("sectionId"), c.Param("userId"), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListComments returns a section's comment forest with counters.
func (h *CollaborationHandler) ListComments(c *gin.Context) {
	comments, counts, err := h.service.LoadComments(c.Request.Context(), c.Param("id"), c.Param("sectionId"), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CommentListResponse{
		Comments:   comments,
		Total:      counts.Total,
		Unresolved: counts.Unresolved,
	}, nil)
}

// AddComment creates a root comment or a reply.
func (h *CollaborationHandler) AddComment(c *gin.Context) {
	var req service.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}
	node, err := h.service.AddComment(c.Request.Context(), c.Param("id"), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, node)
}

// UpdateComment edits a comment's content.
func (h *CollaborationHandler) UpdateComment(c *gin.Context) {
	var req service.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}
	node, err := h.service.UpdateComment(c.Request.Context(), c.Param("id"), c.Param("commentId"), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, node, nil)
}

// DeleteComment removes a comment and its reply subtree.
func (h *CollaborationHandler) DeleteComment(c *gin.Context) {
	removed, err := h.service.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("commentId"), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeleteCommentResponse{RemovedCount: removed}, nil)
}

type resolutionRequest struct {
	Resolved bool `json:"resolved"`
}

// SetResolution resolves or unresolves a comment.
func (h *CollaborationHandler) SetResolution(c *gin.Context) {
	var req resolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}
	err := h.service.SetCommentResolved(c.Request.Context(), c.Param("id"), c.Param("commentId"), principalFromContext(c), req.Resolved)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GenerateDraft requests section content from the drafting collaborator.
func (h *CollaborationHandler) GenerateDraft(c *gin.Context) {
	var req service.GenerateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid drafting payload"))
		return
	}
	result, err := h.service.GenerateDraft(c.Request.Context(), c.Param("id"), c.Param("sectionId"), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Validate scores the entity's proposal content.
func (h *CollaborationHandler) Validate(c *gin.Context) {
	report, err := h.service.Validate(c.Request.Context(), c.Param("id"), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Activity returns the entity's collaboration activity feed.
func (h *CollaborationHandler) Activity(c *gin.Context) {
	entries, err := h.service.Activity(c.Request.Context(), c.Param("id"), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
