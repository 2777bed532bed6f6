package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reviewflow/internal/api/handlers"
	"reviewflow/internal/api/middleware"
	"reviewflow/internal/domain"
	"reviewflow/internal/mocks"
)

const testSecret = "test-secret"

var alice = &domain.User{ID: 1, Username: "alice", Authenticated: true}

func setupTestRouter(mockService *mocks.ReviewService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewHandler(mockService, testSecret)
	return handler.InitRoutes()
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}, user *domain.User) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := middleware.IssueToken(user, testSecret)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func isAlice(u *domain.User) bool {
	return u.ID == alice.ID && u.Authenticated
}

func TestCreateReviewRequestHandler_Success(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	repoID, changeNum := int64(3), int64(42)
	mockService.On("CreateReviewRequest", mock.Anything, mock.MatchedBy(isAlice), mock.MatchedBy(func(input *domain.CreateReviewRequestInput) bool {
		return *input.RepositoryID == repoID && *input.ChangeNum == changeNum
	})).Return(&domain.ReviewRequest{
		ID:          10,
		SubmitterID: alice.ID,
		Status:      domain.StatusPending,
		ChangeNum:   &changeNum,
	}, nil)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/review-requests", map[string]interface{}{
		"repository_id": repoID,
		"changenum":     changeNum,
	}, alice)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	rr := decode(t, w)["review_request"].(map[string]interface{})
	assert.Equal(t, float64(10), rr["id"])
	assert.Equal(t, "pending", rr["status"])
}

func TestCreateReviewRequestHandler_RequiresAuthentication(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/review-requests", map[string]interface{}{}, nil)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	errorObj := decode(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "UNAUTHORIZED", errorObj["code"])
}

func TestGetReviewRequestHandler_AnonymousNotFound(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("GetReviewRequest", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return !u.Authenticated
	}), int64(7)).Return(nil, domain.ErrResourceNotFound)

	// Act
	w := doRequest(t, router, http.MethodGet, "/api/v1/review-requests/7", nil, nil)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	errorObj := decode(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", errorObj["code"])
}

func TestGetReviewRequestHandler_InvalidID(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	// Act
	w := doRequest(t, router, http.MethodGet, "/api/v1/review-requests/abc", nil, alice)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateDraftHandler_OnlyProvidedFields(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("UpdateDraft", mock.Anything, mock.Anything, int64(5), mock.MatchedBy(func(input *domain.UpdateDraftInput) bool {
		return input.Summary != nil && *input.Summary == "New summary" &&
			input.Description == nil &&
			input.TargetGroups != nil && len(*input.TargetGroups) == 1 &&
			input.TargetPeople == nil
	})).Return(&domain.ReviewRequestDraft{
		ID:              1,
		ReviewRequestID: 5,
		Summary:         "New summary",
		TargetGroups:    []domain.Group{{ID: 2, Name: "core"}},
	}, nil)

	// Act
	w := doRequest(t, router, http.MethodPatch, "/api/v1/review-requests/5/draft", map[string]interface{}{
		"summary":       "New summary",
		"target_groups": []string{"core"},
	}, alice)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	draft := decode(t, w)["draft"].(map[string]interface{})
	assert.Equal(t, "New summary", draft["summary"])
	assert.Equal(t, []interface{}{"core"}, draft["target_groups"])
}

func TestCloseReviewRequestHandler_RejectsUnknownType(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/review-requests/5/close", map[string]interface{}{
		"type": "pending",
	}, alice)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errorObj := decode(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_REQUEST", errorObj["code"])
}

func TestCloseReviewRequestHandler_PermissionDenied(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("CloseReviewRequest", mock.Anything, mock.Anything, int64(5), &domain.CloseInput{
		Type:        domain.StatusSubmitted,
		Description: "landed",
	}).Return(nil, domain.ErrPermissionDenied)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/review-requests/5/close", map[string]interface{}{
		"type":        "submitted",
		"description": "landed",
	}, alice)

	// Assert
	assert.Equal(t, http.StatusForbidden, w.Code)
	errorObj := decode(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "PERMISSION_DENIED", errorObj["code"])
}

func TestPublishReviewRequestHandler_ReturnsChangeDescription(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("PublishReviewRequest", mock.Anything, mock.Anything, int64(5)).Return(&domain.PublishResult{
		ReviewRequest: &domain.ReviewRequest{ID: 5, Public: true, Status: domain.StatusPending},
		ChangeDescription: &domain.ChangeDescription{
			ID:     9,
			Text:   "rebased",
			Public: true,
			FieldsChanged: map[string]domain.FieldChange{
				"summary": {Old: []string{"a"}, New: []string{"b"}},
			},
		},
	}, nil)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/review-requests/5/publish", nil, alice)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	cd := response["changedescription"].(map[string]interface{})
	assert.Equal(t, "rebased", cd["text"])
	assert.Contains(t, cd["fields_changed"], "summary")
}

func TestPublishReviewRequestHandler_FirstPublishHasNoChangeDescription(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("PublishReviewRequest", mock.Anything, mock.Anything, int64(5)).Return(&domain.PublishResult{
		ReviewRequest: &domain.ReviewRequest{ID: 5, Public: true, Status: domain.StatusPending},
	}, nil)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/review-requests/5/publish", nil, alice)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "changedescription")
}

func TestAddCommentHandler_ValidatesKind(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/reviews/3/comments", map[string]interface{}{
		"kind":      "unknown",
		"target_id": 1,
		"text":      "nit",
	}, alice)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddCommentHandler_Success(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("AddComment", mock.Anything, mock.Anything, int64(3), mock.MatchedBy(func(input *domain.CommentInput) bool {
		return input.Kind == domain.CommentKindDiff && input.TargetID == 11 &&
			input.IssueOpened && *input.FirstLine == 4
	})).Return(&domain.Comment{
		ID:          8,
		ReviewID:    3,
		Kind:        domain.CommentKindDiff,
		TargetID:    11,
		Text:        "off by one",
		IssueOpened: true,
		IssueStatus: domain.IssueOpen,
	}, nil)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/reviews/3/comments", map[string]interface{}{
		"kind":         "diff",
		"target_id":    11,
		"text":         "off by one",
		"issue_opened": true,
		"first_line":   4,
		"num_lines":    1,
	}, alice)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	comment := decode(t, w)["comment"].(map[string]interface{})
	assert.Equal(t, "open", comment["issue_status"])
}

func TestSetIssueStatusHandler_Success(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("SetIssueStatus", mock.Anything, mock.Anything, int64(8), domain.IssueResolved).
		Return(&domain.Comment{ID: 8, IssueOpened: true, IssueStatus: domain.IssueResolved}, nil)

	// Act
	w := doRequest(t, router, http.MethodPut, "/api/v1/comments/8/issue-status", map[string]interface{}{
		"status": "resolved",
	}, alice)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterUserHandler_InvalidEmail(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/users", map[string]interface{}{
		"id":       2,
		"username": "bob",
		"email":    "not-an-email",
	}, alice)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateGroupHandler_DefaultsVisible(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("CreateGroup", mock.Anything, mock.Anything, mock.MatchedBy(func(input *domain.CreateGroupInput) bool {
		return input.Name == "core" && input.Visible && input.ReadyForReviews && !input.InviteOnly
	})).Return(&domain.Group{ID: 1, Name: "core", DisplayName: "Core", Visible: true}, nil)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/groups", map[string]interface{}{
		"name":         "core",
		"display_name": "Core",
	}, alice)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestListGroupsHandler_SiteFilter(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("ListGroups", mock.Anything, mock.Anything, mock.MatchedBy(func(siteID *int64) bool {
		return siteID != nil && *siteID == 2
	})).Return([]domain.Group{{ID: 1, Name: "core"}}, nil)

	// Act
	w := doRequest(t, router, http.MethodGet, "/api/v1/groups?site_id=2", nil, nil)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	groups := decode(t, w)["groups"].([]interface{})
	assert.Len(t, groups, 1)
}

func TestCreateDefaultReviewerHandler_RejectsBadRegex(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/default-reviewers", map[string]interface{}{
		"name":       "docs",
		"file_regex": "docs/(",
	}, alice)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttachDiffHandler_RequiresFiles(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	// Act
	w := doRequest(t, router, http.MethodPost, "/api/v1/review-requests/5/draft/diffs", map[string]interface{}{
		"files": []interface{}{},
	}, alice)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteReviewRequestHandler_NoContent(t *testing.T) {
	// Arrange
	mockService := mocks.NewReviewService(t)
	router := setupTestRouter(mockService)

	mockService.On("DeleteReviewRequest", mock.Anything, mock.Anything, int64(5)).Return(nil)

	// Act
	w := doRequest(t, router, http.MethodDelete, "/api/v1/review-requests/5", nil, alice)

	// Assert
	assert.Equal(t, http.StatusNoContent, w.Code)
}
