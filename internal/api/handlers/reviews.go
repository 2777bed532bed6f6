package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"reviewflow/internal/api/middleware"
	"reviewflow/internal/domain"
)

// CreateReview создаёт неопубликованное ревью или ответ на review request
func (h *Handler) CreateReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.service.CreateReview(c.Request.Context(), middleware.CurrentUser(c), id, &domain.CreateReviewInput{
		BodyTop:             req.BodyTop,
		BodyBottom:          req.BodyBottom,
		ShipIt:              req.ShipIt,
		BaseReplyToID:       req.BaseReplyToID,
		BodyTopReplyToID:    req.BodyTopReplyToID,
		BodyBottomReplyToID: req.BodyBottomReplyToID,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"review": mapReviewToAPI(review),
	})
}

func (h *Handler) AddComment(c *gin.Context) {
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), middleware.CurrentUser(c), reviewID, &domain.CommentInput{
		Kind:        domain.CommentKind(req.Kind),
		TargetID:    req.TargetID,
		ReplyToID:   req.ReplyToID,
		Text:        req.Text,
		IssueOpened: req.IssueOpened,
		FirstLine:   req.FirstLine,
		NumLines:    req.NumLines,
		X:           req.X,
		Y:           req.Y,
		W:           req.W,
		H:           req.H,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"comment": mapCommentToAPI(comment),
	})
}

func (h *Handler) PublishReview(c *gin.Context) {
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Int64("review_id", reviewID).
		Msg("publishing review")

	review, err := h.service.PublishReview(c.Request.Context(), middleware.CurrentUser(c), reviewID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"review": mapReviewToAPI(review),
	})
}

func (h *Handler) SetIssueStatus(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req issueStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.service.SetIssueStatus(c.Request.Context(), middleware.CurrentUser(c), commentID, domain.IssueStatus(req.Status))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"comment": mapCommentToAPI(comment),
	})
}

func (h *Handler) ListReviews(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	reviews, err := h.service.ListPublicReviews(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	result := make([]map[string]interface{}, len(reviews))
	for i := range reviews {
		result[i] = mapReviewToAPI(&reviews[i])
	}
	c.JSON(http.StatusOK, map[string]interface{}{
		"reviews": result,
	})
}

func (h *Handler) ListParticipants(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	users, err := h.service.ListParticipants(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	result := make([]map[string]interface{}, len(users))
	for i := range users {
		result[i] = mapUserToAPI(&users[i])
	}
	c.JSON(http.StatusOK, map[string]interface{}{
		"participants": result,
	})
}
