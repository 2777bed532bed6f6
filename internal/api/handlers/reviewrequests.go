package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"reviewflow/internal/api/middleware"
	"reviewflow/internal/domain"
)

// CreateReviewRequest создаёт review request в статусе pending
func (h *Handler) CreateReviewRequest(c *gin.Context) {
	var req createReviewRequestRequest
	if !bindJSON(c, &req) {
		return
	}

	user := middleware.CurrentUser(c)

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Int64("user_id", user.ID).
		Str("submit_as", req.SubmitAs).
		Msg("creating review request")

	rr, err := h.service.CreateReviewRequest(c.Request.Context(), user, &domain.CreateReviewRequestInput{
		RepositoryID: req.RepositoryID,
		SiteID:       req.SiteID,
		ChangeNum:    req.ChangeNum,
		SubmitAs:     req.SubmitAs,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Int64("review_request_id", rr.ID).
		Msg("successfully created review request")

	c.JSON(http.StatusCreated, map[string]interface{}{
		"review_request": mapReviewRequestToAPI(rr),
	})
}

func (h *Handler) GetReviewRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rr, err := h.service.GetReviewRequest(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review_request": mapReviewRequestToAPI(rr),
	})
}

// PublishReviewRequest публикует черновик; в ответе - созданная запись истории, если она есть
func (h *Handler) PublishReviewRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Int64("review_request_id", id).
		Msg("publishing review request")

	result, err := h.service.PublishReviewRequest(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	resp := map[string]interface{}{
		"review_request": mapReviewRequestToAPI(result.ReviewRequest),
	}
	if result.ChangeDescription != nil {
		resp["changedescription"] = mapChangeDescriptionToAPI(result.ChangeDescription)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CloseReviewRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req closeRequest
	if !bindJSON(c, &req) {
		return
	}

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Int64("review_request_id", id).
		Str("type", req.Type).
		Msg("closing review request")

	rr, err := h.service.CloseReviewRequest(c.Request.Context(), middleware.CurrentUser(c), id, &domain.CloseInput{
		Type:        domain.ReviewRequestStatus(req.Type),
		Description: req.Description,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review_request": mapReviewRequestToAPI(rr),
	})
}

func (h *Handler) ReopenReviewRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rr, err := h.service.ReopenReviewRequest(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review_request": mapReviewRequestToAPI(rr),
	})
}

func (h *Handler) DeleteReviewRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Int64("review_request_id", id).
		Msg("deleting review request")

	if err := h.service.DeleteReviewRequest(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		handleDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdateChangeNum(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req changeNumRequest
	if !bindJSON(c, &req) {
		return
	}

	rr, err := h.service.UpdateChangeNum(c.Request.Context(), middleware.CurrentUser(c), id, req.ChangeNum)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review_request": mapReviewRequestToAPI(rr),
	})
}

func (h *Handler) StarReviewRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.StarReviewRequest(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		handleDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) UnstarReviewRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.UnstarReviewRequest(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		handleDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
