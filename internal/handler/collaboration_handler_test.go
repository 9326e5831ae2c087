package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidworks/collab-api/internal/middleware"
	"github.com/bidworks/collab-api/internal/models"
	"github.com/bidworks/collab-api/internal/service"
	appErrors "github.com/bidworks/collab-api/pkg/errors"
)

type collaborationServiceMock struct {
	loadResp   *models.CollaborationData
	loadErr    error
	addResp    *models.CommentNode
	addErr     error
	deleteResp int
	deleteErr  error
	lastAdd    service.AddCommentRequest
}

func (m *collaborationServiceMock) Load(ctx context.Context, entityID string) (*models.CollaborationData, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.loadResp, nil
}

func (m *collaborationServiceMock) Refresh(ctx context.Context, entityID string) (*models.CollaborationData, error) {
	return m.Load(ctx, entityID)
}

func (m *collaborationServiceMock) AssignUser(ctx context.Context, entityID, sectionID string, principal models.Principal, req service.AssignUserRequest) (*models.SectionAssignment, error) {
	return &models.SectionAssignment{EntityID: entityID, SectionID: sectionID, UserID: req.UserID, Permission: models.Permission(req.Permission)}, nil
}

func (m *collaborationServiceMock) RemoveAssignment(ctx context.Context, entityID, sectionID, userID string, principal models.Principal) error {
	return nil
}

func (m *collaborationServiceMock) LoadComments(ctx context.Context, entityID, sectionID string, principal models.Principal) ([]*models.CommentNode, models.CommentCounts, error) {
	return nil, models.CommentCounts{}, nil
}

func (m *collaborationServiceMock) AddComment(ctx context.Context, entityID string, principal models.Principal, req service.AddCommentRequest) (*models.CommentNode, error) {
	m.lastAdd = req
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.addResp, nil
}

func (m *collaborationServiceMock) UpdateComment(ctx context.Context, entityID, commentID string, principal models.Principal, req service.UpdateCommentRequest) (*models.CommentNode, error) {
	return &models.CommentNode{ID: commentID, Content: req.Content}, nil
}

func (m *collaborationServiceMock) DeleteComment(ctx context.Context, entityID, commentID string, principal models.Principal) (int, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return m.deleteResp, nil
}

func (m *collaborationServiceMock) SetCommentResolved(ctx context.Context, entityID, commentID string, principal models.Principal, resolved bool) error {
	return nil
}

func (m *collaborationServiceMock) UpdateSection(ctx context.Context, entityID, sectionID string, principal models.Principal, req service.UpdateSectionRequest) (*models.DraftRecord, bool, error) {
	return &models.DraftRecord{EntityID: entityID, SectionID: sectionID, Content: req.Content}, false, nil
}

func (m *collaborationServiceMock) GenerateDraft(ctx context.Context, entityID, sectionID string, principal models.Principal, req service.GenerateDraftRequest) (*models.DraftResult, error) {
	return &models.DraftResult{Draft: "generated"}, nil
}

func (m *collaborationServiceMock) Validate(ctx context.Context, entityID string, principal models.Principal) (*models.ValidationReport, error) {
	return &models.ValidationReport{Score: 1}, nil
}

func (m *collaborationServiceMock) Activity(ctx context.Context, entityID string, principal models.Principal) ([]models.ActivityEntry, error) {
	return nil, nil
}

func testContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	return c, w
}

func TestCollaborationHandlerLoad(t *testing.T) {
	mock := &collaborationServiceMock{loadResp: &models.CollaborationData{EntityID: "entity-1", OwnerID: "owner-1"}}
	handler := NewCollaborationHandler(mock)

	c, w := testContext(t, http.MethodGet, "/entities/entity-1/collaboration", nil)
	c.Params = gin.Params{{Key: "id", Value: "entity-1"}}

	handler.Load(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "owner-1")
}

func TestCollaborationHandlerLoadForbidden(t *testing.T) {
	mock := &collaborationServiceMock{loadErr: appErrors.ErrForbidden}
	handler := NewCollaborationHandler(mock)

	c, w := testContext(t, http.MethodGet, "/entities/entity-1/collaboration", nil)
	c.Params = gin.Params{{Key: "id", Value: "entity-1"}}

	handler.Load(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCollaborationHandlerAddComment(t *testing.T) {
	mock := &collaborationServiceMock{addResp: &models.CommentNode{ID: "c1", SectionID: "s1", Content: "hello"}}
	handler := NewCollaborationHandler(mock)

	c, w := testContext(t, http.MethodPost, "/entities/entity-1/comments",
		service.AddCommentRequest{SectionID: "s1", Content: "hello"})
	c.Params = gin.Params{{Key: "id", Value: "entity-1"}}

	handler.AddComment(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s1", mock.lastAdd.SectionID)
}

func TestCollaborationHandlerAddCommentInvalidBody(t *testing.T) {
	handler := NewCollaborationHandler(&collaborationServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/entities/entity-1/comments", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.AddComment(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollaborationHandlerDeleteComment(t *testing.T) {
	mock := &collaborationServiceMock{deleteResp: 3}
	handler := NewCollaborationHandler(mock)

	c, w := testContext(t, http.MethodDelete, "/entities/entity-1/comments/c1", nil)
	c.Params = gin.Params{{Key: "id", Value: "entity-1"}, {Key: "commentId", Value: "c1"}}

	handler.DeleteComment(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removedCount":3`)
}

func TestCollaborationHandlerDeleteCommentNotFound(t *testing.T) {
	mock := &collaborationServiceMock{deleteErr: appErrors.ErrNotFound}
	handler := NewCollaborationHandler(mock)

	c, w := testContext(t, http.MethodDelete, "/entities/entity-1/comments/ghost", nil)
	c.Params = gin.Params{{Key: "id", Value: "entity-1"}, {Key: "commentId", Value: "ghost"}}

	handler.DeleteComment(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
