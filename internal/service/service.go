package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/access"
	"reviewflow/internal/domain"
	"reviewflow/internal/events"
	"reviewflow/internal/logger"
	"reviewflow/internal/metrics"
	"reviewflow/internal/reviewers"
	"reviewflow/internal/storage"
)

// Service реализует domain.ReviewService используя storage.TxManager
type Service struct {
	txmgr      storage.TxManager
	access     *access.Checker
	matcher    *reviewers.Matcher
	changesets domain.ChangesetSource
	events     *events.Dispatcher
	now        func() time.Time
}

// Проверка что Service реализует интерфейс domain.ReviewService
var _ domain.ReviewService = (*Service)(nil)

// Option настраивает Service
type Option func(*Service)

// WithChecker задаёт провайдеры прав
func WithChecker(checker *access.Checker) Option {
	return func(s *Service) { s.access = checker }
}

// WithChangesetSource задаёт внешнюю систему changeset
func WithChangesetSource(source domain.ChangesetSource) Option {
	return func(s *Service) { s.changesets = source }
}

// WithDispatcher задаёт получателей событий
func WithDispatcher(dispatcher *events.Dispatcher) Option {
	return func(s *Service) { s.events = dispatcher }
}

// WithClock подменяет часы (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New создаёт новый Service с TxManager
func New(txmgr storage.TxManager, opts ...Option) *Service {
	s := &Service{
		txmgr:   txmgr,
		access:  access.NewDefaultChecker(),
		matcher: reviewers.NewMatcher(),
		events:  events.NewDispatcher(events.LogSink{}, events.MetricsSink{}),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// formatError преобразует ошибки storage слоя в доменные ошибки с правильными HTTP кодами
func (s *Service) formatError(ctx context.Context, op string, err error) error {
	var result error
	switch {
	case domain.IsDomainError(err):
		result = err
	case errors.Is(err, storage.ErrNotFound):
		result = domain.ErrResourceNotFound
	case errors.Is(err, storage.ErrAlreadyExists), errors.Is(err, storage.ErrConflict):
		result = domain.ErrConflict
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return ctx.Err()
	default:
		log.Error().
			Str("request_id", logger.GetRequestID(ctx)).
			Str("layer", "service").
			Err(err).
			Str("operation", op).
			Msg("operation failed")
		metrics.ErrorsTotal.WithLabelValues("internal", "service").Inc()
		return domain.ErrInternal
	}

	var de *domain.Error
	if errors.As(result, &de) {
		metrics.DomainErrorsTotal.WithLabelValues(string(de.Code)).Inc()
	}
	return result
}

// observe записывает длительность операции
func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.ServiceOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// requireUser проверяет, что пользователь аутентифицирован
func requireUser(user *domain.User) error {
	if user == nil || !user.Authenticated {
		return domain.ErrPermissionDenied
	}
	return nil
}

// loadSite возвращает сайт или nil для запросов без сайта
func loadSite(ctx context.Context, tx storage.Tx, siteID *int64) (*domain.Site, error) {
	if siteID == nil {
		return nil, nil
	}
	return tx.SiteRepo().GetByID(ctx, *siteID)
}

// viewContext собирает данные для access.Checker.CanView
func (s *Service) viewContext(ctx context.Context, tx storage.Tx, req *domain.ReviewRequest) (access.ViewContext, error) {
	site, err := loadSite(ctx, tx, req.SiteID)
	if err != nil {
		return access.ViewContext{}, err
	}

	var repo *domain.Repository
	if req.RepositoryID != nil {
		repo, err = tx.CodeRepoRepo().GetByID(ctx, *req.RepositoryID)
		if err != nil {
			return access.ViewContext{}, err
		}
	}

	submitter := &domain.User{ID: req.SubmitterID, Authenticated: true}
	return access.ViewContext{
		Site:       site,
		Repository: repo,
		SubmitterGroups: func() []domain.Group {
			groups, err := tx.GroupRepo().ListBySite(ctx, req.SiteID)
			if err != nil {
				log.Error().
					Str("request_id", logger.GetRequestID(ctx)).
					Str("layer", "service").
					Int64("review_request_id", req.ID).
					Err(err).
					Msg("failed to load submitter groups")
				return nil
			}
			return s.access.AccessibleGroups(groups, site, submitter)
		},
	}, nil
}

// loadVisible загружает review request и проверяет видимость
func (s *Service) loadVisible(ctx context.Context, tx storage.Tx, user *domain.User, id int64) (*domain.ReviewRequest, error) {
	req, err := tx.ReviewRequestRepo().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vc, err := s.viewContext(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	if !s.access.CanView(req, user, vc) {
		// Невидимый запрос неотличим от несуществующего
		return nil, domain.ErrResourceNotFound
	}
	return req, nil
}

// loadModifiable загружает review request и проверяет право редактирования
func (s *Service) loadModifiable(ctx context.Context, tx storage.Tx, user *domain.User, id int64) (*domain.ReviewRequest, error) {
	req, err := tx.ReviewRequestRepo().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.access.CanModify(req, user) {
		return nil, domain.ErrPermissionDenied
	}
	return req, nil
}
