package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"reviewflow/internal/api/middleware"
	"reviewflow/internal/domain"
)

// GetDraft возвращает черновик; первый вызов создаёт его из review request
func (h *Handler) GetDraft(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	draft, err := h.service.GetDraft(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"draft": mapDraftToAPI(draft),
	})
}

func (h *Handler) UpdateDraft(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateDraftRequest
	if !bindJSON(c, &req) {
		return
	}

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Int64("review_request_id", id).
		Msg("updating draft")

	draft, err := h.service.UpdateDraft(c.Request.Context(), middleware.CurrentUser(c), id, req.toInput())
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"draft": mapDraftToAPI(draft),
	})
}

func (h *Handler) DiscardDraft(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DiscardDraft(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		handleDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) AttachDiff(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req attachDiffRequest
	if !bindJSON(c, &req) {
		return
	}

	files := make([]domain.FileDiff, len(req.Files))
	for i, f := range req.Files {
		files[i] = domain.FileDiff{SourceFile: f.SourceFile, DestFile: f.DestFile}
	}

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Int64("review_request_id", id).
		Int("files", len(files)).
		Msg("attaching diff")

	diffset, err := h.service.AttachDiff(c.Request.Context(), middleware.CurrentUser(c), id, &domain.AttachDiffInput{Files: files})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"diffset": mapDiffSetToAPI(diffset),
	})
}

func (h *Handler) AddScreenshot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req attachmentRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.service.AddScreenshot(c.Request.Context(), middleware.CurrentUser(c), id, &domain.AttachmentInput{
		Caption: req.Caption,
		Path:    req.Path,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"screenshot": mapScreenshots([]domain.Screenshot{*s})[0],
	})
}

func (h *Handler) AddFileAttachment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req attachmentRequest
	if !bindJSON(c, &req) {
		return
	}

	f, err := h.service.AddFileAttachment(c.Request.Context(), middleware.CurrentUser(c), id, &domain.AttachmentInput{
		Caption:  req.Caption,
		Path:     req.Path,
		MimeType: req.MimeType,
	})
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"file_attachment": mapFileAttachments([]domain.FileAttachment{*f})[0],
	})
}

func (h *Handler) RemoveScreenshot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "attachment_id")
	if !ok {
		return
	}

	if err := h.service.RemoveScreenshot(c.Request.Context(), middleware.CurrentUser(c), id, attachmentID); err != nil {
		handleDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveFileAttachment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "attachment_id")
	if !ok {
		return
	}

	if err := h.service.RemoveFileAttachment(c.Request.Context(), middleware.CurrentUser(c), id, attachmentID); err != nil {
		handleDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateFromChangeset заполняет черновик данными из внешней системы
func (h *Handler) UpdateFromChangeset(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req changeNumRequest
	if !bindJSON(c, &req) {
		return
	}

	log.Info().
		Str("request_id", requestID(c)).
		Str("layer", "handler").
		Int64("review_request_id", id).
		Int64("changenum", req.ChangeNum).
		Msg("updating draft from changeset")

	draft, err := h.service.UpdateFromChangeset(c.Request.Context(), middleware.CurrentUser(c), id, req.ChangeNum)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"draft": mapDraftToAPI(draft),
	})
}
