package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bidworks/collab-api/internal/dto"
	"github.com/bidworks/collab-api/internal/models"
	appErrors "github.com/bidworks/collab-api/pkg/errors"
	"github.com/bidworks/collab-api/pkg/response"
)

type offlineService interface {
	Status(ctx context.Context) dto.SyncStatusResponse
	ForceSync()
	QueueAction(ctx context.Context, principal models.Principal, actionType models.SyncActionType, payload interface{}) (int64, error)
}

// OfflineHandler exposes the sync status and control endpoints.
type OfflineHandler struct {
	service offlineService
}

// NewOfflineHandler builds a new handler.
func NewOfflineHandler(service offlineService) *OfflineHandler {
	return &OfflineHandler{service: service}
}

// Status reports connectivity, in-flight sync and pending change counts.
func (h *OfflineHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Status(c.Request.Context()), nil)
}

// ForceSync requests an immediate reconciliation pass.
func (h *OfflineHandler) ForceSync(c *gin.Context) {
	h.service.ForceSync()
	response.JSON(c, http.StatusAccepted, gin.H{"status": "sync requested"}, nil)
}

// QueueAction records a mutation intent for later replay.
func (h *OfflineHandler) QueueAction(c *gin.Context) {
	var req dto.QueueActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid queue payload"))
		return
	}
	id, err := h.service.QueueAction(c.Request.Context(), principalFromContext(c), models.SyncActionType(req.Type), req.Payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.QueueActionResponse{ID: id})
}
