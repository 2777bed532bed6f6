package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"reviewflow/internal/api"
	"reviewflow/internal/api/middleware"
	"reviewflow/internal/domain"
)

const (
	APIPathRoute     = "/api/v1"
	MetricsRoute     = "/metrics"
	HealthRoute      = "/health"
	ReviewRequestsPR = "/review-requests"
	ReviewsPath      = "/reviews"
	CommentsPath     = "/comments"
	UsersPath        = "/users"
	GroupsPath       = "/groups"
	DefaultRevsPath  = "/default-reviewers"
)

type Handler struct {
	service   domain.ReviewService
	jwtSecret string
}

func NewHandler(service domain.ReviewService, jwtSecret string) *Handler {
	return &Handler{service: service, jwtSecret: jwtSecret}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.LoggerMiddleware(),
		middleware.RecoveryMiddleware(),
		middleware.MetricsMiddleware(),
	)

	r.GET(MetricsRoute, gin.WrapH(promhttp.Handler()))
	r.GET(HealthRoute, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group(APIPathRoute, middleware.AuthMiddleware(h.jwtSecret))

	// чтение доступно анонимам, видимость проверяет сервис
	rr := v1.Group(ReviewRequestsPR)
	{
		rr.GET("/:id", h.GetReviewRequest)
		rr.GET("/:id/reviews", h.ListReviews)
		rr.GET("/:id/participants", h.ListParticipants)
	}

	authed := v1.Group("", middleware.RequireUser())

	rrw := authed.Group(ReviewRequestsPR)
	{
		rrw.POST("", h.CreateReviewRequest)
		rrw.DELETE("/:id", h.DeleteReviewRequest)
		rrw.POST("/:id/publish", h.PublishReviewRequest)
		rrw.POST("/:id/close", h.CloseReviewRequest)
		rrw.POST("/:id/reopen", h.ReopenReviewRequest)
		rrw.PUT("/:id/changenum", h.UpdateChangeNum)
		rrw.PUT("/:id/star", h.StarReviewRequest)
		rrw.DELETE("/:id/star", h.UnstarReviewRequest)
		rrw.POST("/:id/reviews", h.CreateReview)

		rrw.GET("/:id/draft", h.GetDraft)
		rrw.PATCH("/:id/draft", h.UpdateDraft)
		rrw.DELETE("/:id/draft", h.DiscardDraft)
		rrw.POST("/:id/draft/diffs", h.AttachDiff)
		rrw.POST("/:id/draft/screenshots", h.AddScreenshot)
		rrw.DELETE("/:id/draft/screenshots/:attachment_id", h.RemoveScreenshot)
		rrw.POST("/:id/draft/files", h.AddFileAttachment)
		rrw.DELETE("/:id/draft/files/:attachment_id", h.RemoveFileAttachment)
		rrw.POST("/:id/draft/changeset", h.UpdateFromChangeset)
	}

	reviews := authed.Group(ReviewsPath)
	{
		reviews.POST("/:id/comments", h.AddComment)
		reviews.POST("/:id/publish", h.PublishReview)
	}

	authed.PUT(CommentsPath+"/:id/issue-status", h.SetIssueStatus)

	authed.POST(UsersPath, h.RegisterUser)

	groups := authed.Group(GroupsPath)
	{
		groups.POST("", h.CreateGroup)
		groups.POST("/:id/members", h.AddGroupMember)
	}
	v1.GET(GroupsPath, h.ListGroups)

	authed.POST(DefaultRevsPath, h.CreateDefaultReviewer)

	return r
}

type validatable interface {
	Validate() error
}

func requestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// bindJSON разбирает тело и валидирует его; при ошибке сам отвечает 400
func bindJSON(c *gin.Context, req validatable) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", requestID(c)).
			Str("layer", "handler").
			Msg("failed to parse request")

		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: api.Error{
				Code:    api.ErrCodeInvalidRequest,
				Message: "Failed to parse request: " + err.Error(),
			},
		})
		return false
	}
	return true
}

// pathID читает положительный int64 из пути; при ошибке сам отвечает 400
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: api.Error{
				Code:    api.ErrCodeInvalidRequest,
				Message: "invalid " + name,
			},
		})
		return 0, false
	}
	return id, true
}
