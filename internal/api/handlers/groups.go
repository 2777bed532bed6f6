package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"reviewflow/internal/api"
	"reviewflow/internal/api/middleware"
	"reviewflow/internal/domain"
)

// RegisterUser создаёт или обновляет пользователя по данным провайдера идентификации
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.RegisterUser(c.Request.Context(), middleware.CurrentUser(c), &domain.RegisterUserInput{
		ID:       req.ID,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"user": mapUserToAPI(user),
	})
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	input := &domain.CreateGroupInput{
		Name:            req.Name,
		DisplayName:     req.DisplayName,
		MailingList:     req.MailingList,
		SiteID:          req.SiteID,
		InviteOnly:      req.InviteOnly,
		Visible:         true,
		ReadyForReviews: true,
	}
	if req.Visible != nil {
		input.Visible = *req.Visible
	}
	if req.ReadyForReviews != nil {
		input.ReadyForReviews = *req.ReadyForReviews
	}

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Str("group_name", req.Name).
		Msg("creating group")

	group, err := h.service.CreateGroup(c.Request.Context(), middleware.CurrentUser(c), input)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"group": mapGroupToAPI(group),
	})
}

func (h *Handler) AddGroupMember(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.service.AddGroupMember(c.Request.Context(), middleware.CurrentUser(c), groupID, req.UserID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"group": mapGroupToAPI(group),
	})
}

// ListGroups возвращает группы сайта (?site_id=), видимые текущему пользователю
func (h *Handler) ListGroups(c *gin.Context) {
	var siteID *int64
	if raw := c.Query("site_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{
				Error: api.Error{
					Code:    api.ErrCodeInvalidRequest,
					Message: "invalid site_id",
				},
			})
			return
		}
		siteID = &id
	}

	groups, err := h.service.ListGroups(c.Request.Context(), middleware.CurrentUser(c), siteID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	result := make([]map[string]interface{}, len(groups))
	for i := range groups {
		result[i] = mapGroupToAPI(&groups[i])
	}
	c.JSON(http.StatusOK, map[string]interface{}{
		"groups": result,
	})
}

func (h *Handler) CreateDefaultReviewer(c *gin.Context) {
	var req createDefaultReviewerRequest
	if !bindJSON(c, &req) {
		return
	}

	dr, err := h.service.CreateDefaultReviewer(c.Request.Context(), middleware.CurrentUser(c), &domain.CreateDefaultReviewerInput{
		Name:          req.Name,
		FileRegex:     req.FileRegex,
		SiteID:        req.SiteID,
		RepositoryIDs: req.RepositoryIDs,
		GroupIDs:      req.GroupIDs,
		PeopleIDs:     req.PeopleIDs,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"default_reviewer": mapDefaultReviewerToAPI(dr),
	})
}
