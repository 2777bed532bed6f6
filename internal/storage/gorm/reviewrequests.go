package gorm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reviewflow/internal/domain"
	"reviewflow/internal/logger"
	"reviewflow/internal/storage"
)

type reviewRequestRepository struct {
	db *gorm.DB
}

// NewReviewRequestRepository создаёт репозиторий review requests
func NewReviewRequestRepository(db *gorm.DB) storage.ReviewRequestRepository {
	return &reviewRequestRepository{db: db}
}

// Create создаёт review request и его связи
func (r *reviewRequestRepository) Create(ctx context.Context, rr *domain.ReviewRequest) error {
	const op = "storage.ReviewRequest.Create"
	requestID := logger.GetRequestID(ctx)

	now := time.Now().UTC()
	if rr.CreatedAt.IsZero() {
		rr.CreatedAt = now
	}
	rr.UpdatedAt = now

	row := requestFromDomain(rr)
	if err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(row).Error; err != nil {
		return translate(ctx, err, op, 0, storage.ErrConflict)
	}
	rr.ID = row.ID

	if err := requestLinks.replace(ctx, r.db, rr.ID, requestTargets(rr)); err != nil {
		return translate(ctx, err, op, rr.ID, storage.ErrConflict)
	}

	log.Info().
		Str("request_id", requestID).
		Str("layer", "storage").
		Int64("review_request_id", rr.ID).
		Msg("review request created")

	return nil
}

// GetByID загружает review request со связями и историей
func (r *reviewRequestRepository) GetByID(ctx context.Context, id int64) (*domain.ReviewRequest, error) {
	const op = "storage.ReviewRequest.GetByID"

	var row ReviewRequest
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrConflict)
	}

	rr, err := row.toDomain()
	if err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrConflict)
	}
	t, err := requestLinks.load(ctx, r.db, id)
	if err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrConflict)
	}
	rr.TargetGroups = t.groups
	rr.TargetPeople = t.people
	rr.Screenshots = t.screenshots
	rr.InactiveScreenshots = t.inactiveScreenshots
	rr.FileAttachments = t.files
	rr.InactiveFileAttachments = t.inactiveFiles

	var history []ChangeDescription
	err = r.db.WithContext(ctx).
		Where("review_request_id = ?", id).
		Order("id").
		Find(&history).Error
	if err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrConflict)
	}
	rr.ChangeDescriptions = make([]domain.ChangeDescription, 0, len(history))
	for _, cd := range history {
		rr.ChangeDescriptions = append(rr.ChangeDescriptions, cd.toDomain())
	}

	return rr, nil
}

// Save обновляет поля и связи. shipit_count меняется только через счётчики.
func (r *reviewRequestRepository) Save(ctx context.Context, rr *domain.ReviewRequest) error {
	const op = "storage.ReviewRequest.Save"
	requestID := logger.GetRequestID(ctx)

	rr.UpdatedAt = time.Now().UTC()
	row := requestFromDomain(rr)

	result := r.db.WithContext(ctx).
		Model(&ReviewRequest{ID: rr.ID}).
		Select("*").
		Omit("id", "shipit_count", "created_at").
		Updates(row)
	if err := notFoundIfNone(result); err != nil {
		return translate(ctx, err, op, rr.ID, storage.ErrConflict)
	}

	if err := requestLinks.replace(ctx, r.db, rr.ID, requestTargets(rr)); err != nil {
		return translate(ctx, err, op, rr.ID, storage.ErrConflict)
	}

	var shipIt int64
	err := r.db.WithContext(ctx).
		Model(&ReviewRequest{}).
		Where("id = ?", rr.ID).
		Pluck("shipit_count", &shipIt).Error
	if err != nil {
		return translate(ctx, err, op, rr.ID, storage.ErrConflict)
	}
	rr.ShipItCount = shipIt

	log.Debug().
		Str("request_id", requestID).
		Str("layer", "storage").
		Int64("review_request_id", rr.ID).
		Msg("review request saved")

	return nil
}

// Delete удаляет review request; связи, черновик и история удаляются каскадом
func (r *reviewRequestRepository) Delete(ctx context.Context, id int64) error {
	const op = "storage.ReviewRequest.Delete"

	result := r.db.WithContext(ctx).Delete(&ReviewRequest{}, "id = ?", id)
	return translate(ctx, notFoundIfNone(result), op, id, storage.ErrConflict)
}

// NextLocalID выдаёт следующий local id. Advisory lock сериализует выдачу
// внутри сайта до конца транзакции.
func (r *reviewRequestRepository) NextLocalID(ctx context.Context, siteID int64) (int64, error) {
	const op = "storage.ReviewRequest.NextLocalID"

	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", siteID).Error; err != nil {
		return 0, translate(ctx, err, op, siteID, storage.ErrConflict)
	}

	var next int64
	err := r.db.WithContext(ctx).
		Raw("SELECT COALESCE(MAX(local_id), 0) + 1 FROM review_requests WHERE site_id = ?", siteID).
		Scan(&next).Error
	if err != nil {
		return 0, translate(ctx, err, op, siteID, storage.ErrConflict)
	}
	return next, nil
}

func requestTargets(rr *domain.ReviewRequest) *targets {
	return &targets{
		groups:              rr.TargetGroups,
		people:              rr.TargetPeople,
		screenshots:         rr.Screenshots,
		inactiveScreenshots: rr.InactiveScreenshots,
		files:               rr.FileAttachments,
		inactiveFiles:       rr.InactiveFileAttachments,
	}
}
