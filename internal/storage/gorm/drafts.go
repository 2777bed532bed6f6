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

type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository создаёт репозиторий черновиков
func NewDraftRepository(db *gorm.DB) storage.DraftRepository {
	return &draftRepository{db: db}
}

func (r *draftRepository) GetByRequestID(ctx context.Context, requestID int64) (*domain.ReviewRequestDraft, error) {
	const op = "storage.Draft.GetByRequestID"

	var row Draft
	if err := r.db.WithContext(ctx).First(&row, "review_request_id = ?", requestID).Error; err != nil {
		return nil, translate(ctx, err, op, requestID, storage.ErrAlreadyExists)
	}
	draft, err := r.hydrate(ctx, &row)
	if err != nil {
		return nil, translate(ctx, err, op, requestID, storage.ErrAlreadyExists)
	}
	return draft, nil
}

// CreateIfAbsent вставляет черновик с ON CONFLICT DO NOTHING по review_request_id.
// Гонка двух создателей решается уникальным индексом, а не проверкой.
func (r *draftRepository) CreateIfAbsent(ctx context.Context, draft *domain.ReviewRequestDraft) (*domain.ReviewRequestDraft, bool, error) {
	const op = "storage.Draft.CreateIfAbsent"
	requestID := logger.GetRequestID(ctx)

	draft.UpdatedAt = time.Now().UTC()
	row := draftFromDomain(draft)
	row.ID = 0
	row.ChangeDescriptionID = nil

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "review_request_id"}}, DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return nil, false, translate(ctx, result.Error, op, draft.ReviewRequestID, storage.ErrAlreadyExists)
	}

	if result.RowsAffected == 0 {
		existing, err := r.GetByRequestID(ctx, draft.ReviewRequestID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	draft.ID = row.ID
	if err := r.saveChangeDescription(ctx, draft); err != nil {
		return nil, false, translate(ctx, err, op, draft.ReviewRequestID, storage.ErrAlreadyExists)
	}
	if draft.ChangeDescription != nil {
		err := r.db.WithContext(ctx).
			Model(&Draft{ID: draft.ID}).
			Update("change_description_id", draft.ChangeDescription.ID).Error
		if err != nil {
			return nil, false, translate(ctx, err, op, draft.ReviewRequestID, storage.ErrAlreadyExists)
		}
	}
	if err := draftLinks.replace(ctx, r.db, draft.ID, draftTargets(draft)); err != nil {
		return nil, false, translate(ctx, err, op, draft.ReviewRequestID, storage.ErrAlreadyExists)
	}

	log.Info().
		Str("request_id", requestID).
		Str("layer", "storage").
		Int64("review_request_id", draft.ReviewRequestID).
		Int64("draft_id", draft.ID).
		Msg("draft created")

	created, err := r.GetByRequestID(ctx, draft.ReviewRequestID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (r *draftRepository) Save(ctx context.Context, draft *domain.ReviewRequestDraft) error {
	const op = "storage.Draft.Save"

	var current Draft
	if err := r.db.WithContext(ctx).First(&current, "review_request_id = ?", draft.ReviewRequestID).Error; err != nil {
		return translate(ctx, err, op, draft.ReviewRequestID, storage.ErrAlreadyExists)
	}
	draft.ID = current.ID
	draft.UpdatedAt = time.Now().UTC()

	if draft.ChangeDescription == nil && current.ChangeDescriptionID != nil {
		err := r.db.WithContext(ctx).
			Where("id = ? AND review_request_id IS NULL", *current.ChangeDescriptionID).
			Delete(&ChangeDescription{}).Error
		if err != nil {
			return translate(ctx, err, op, draft.ReviewRequestID, storage.ErrAlreadyExists)
		}
	}
	if err := r.saveChangeDescription(ctx, draft); err != nil {
		return translate(ctx, err, op, draft.ReviewRequestID, storage.ErrAlreadyExists)
	}

	row := draftFromDomain(draft)
	err := r.db.WithContext(ctx).
		Model(&Draft{ID: draft.ID}).
		Select("*").
		Omit("id", "review_request_id").
		Updates(row).Error
	if err != nil {
		return translate(ctx, err, op, draft.ReviewRequestID, storage.ErrAlreadyExists)
	}

	if err := draftLinks.replace(ctx, r.db, draft.ID, draftTargets(draft)); err != nil {
		return translate(ctx, err, op, draft.ReviewRequestID, storage.ErrAlreadyExists)
	}
	return nil
}

// Delete удаляет черновик вместе с неопубликованной записью истории
func (r *draftRepository) Delete(ctx context.Context, requestID int64) error {
	const op = "storage.Draft.Delete"

	var current Draft
	if err := r.db.WithContext(ctx).First(&current, "review_request_id = ?", requestID).Error; err != nil {
		return translate(ctx, err, op, requestID, storage.ErrAlreadyExists)
	}

	if err := r.db.WithContext(ctx).Delete(&Draft{}, "id = ?", current.ID).Error; err != nil {
		return translate(ctx, err, op, requestID, storage.ErrAlreadyExists)
	}
	if current.ChangeDescriptionID != nil {
		err := r.db.WithContext(ctx).
			Where("id = ? AND review_request_id IS NULL", *current.ChangeDescriptionID).
			Delete(&ChangeDescription{}).Error
		if err != nil {
			return translate(ctx, err, op, requestID, storage.ErrAlreadyExists)
		}
	}
	return nil
}

func (r *draftRepository) saveChangeDescription(ctx context.Context, draft *domain.ReviewRequestDraft) error {
	if draft.ChangeDescription == nil {
		return nil
	}
	row := changeDescriptionFromDomain(draft.ChangeDescription)
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return err
	}
	draft.ChangeDescription.ID = row.ID
	return nil
}

func (r *draftRepository) hydrate(ctx context.Context, row *Draft) (*domain.ReviewRequestDraft, error) {
	draft := row.toDomain()

	t, err := draftLinks.load(ctx, r.db, row.ID)
	if err != nil {
		return nil, err
	}
	draft.TargetGroups = t.groups
	draft.TargetPeople = t.people
	draft.Screenshots = t.screenshots
	draft.InactiveScreenshots = t.inactiveScreenshots
	draft.FileAttachments = t.files
	draft.InactiveFileAttachments = t.inactiveFiles

	if row.ChangeDescriptionID != nil {
		var cd ChangeDescription
		if err := r.db.WithContext(ctx).First(&cd, "id = ?", *row.ChangeDescriptionID).Error; err != nil {
			return nil, err
		}
		value := cd.toDomain()
		draft.ChangeDescription = &value
	}
	return draft, nil
}

func draftTargets(d *domain.ReviewRequestDraft) *targets {
	return &targets{
		groups:              d.TargetGroups,
		people:              d.TargetPeople,
		screenshots:         d.Screenshots,
		inactiveScreenshots: d.InactiveScreenshots,
		files:               d.FileAttachments,
		inactiveFiles:       d.InactiveFileAttachments,
	}
}

type changeDescriptionRepository struct {
	db *gorm.DB
}

// NewChangeDescriptionRepository создаёт репозиторий истории изменений
func NewChangeDescriptionRepository(db *gorm.DB) storage.ChangeDescriptionRepository {
	return &changeDescriptionRepository{db: db}
}

func (r *changeDescriptionRepository) Save(ctx context.Context, cd *domain.ChangeDescription) error {
	row := changeDescriptionFromDomain(cd)
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return translate(ctx, err, "storage.ChangeDescription.Save", cd.ID, storage.ErrConflict)
	}
	cd.ID = row.ID
	return nil
}

func (r *changeDescriptionRepository) LatestPublic(ctx context.Context, requestID int64) (*domain.ChangeDescription, error) {
	var row ChangeDescription
	err := r.db.WithContext(ctx).
		Where("review_request_id = ? AND public", requestID).
		Order("timestamp DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, translate(ctx, err, "storage.ChangeDescription.LatestPublic", requestID, storage.ErrConflict)
	}
	cd := row.toDomain()
	return &cd, nil
}

func (r *changeDescriptionRepository) DeleteByRequest(ctx context.Context, requestID int64) error {
	err := r.db.WithContext(ctx).
		Where("review_request_id = ?", requestID).
		Delete(&ChangeDescription{}).Error
	return translate(ctx, err, "storage.ChangeDescription.DeleteByRequest", requestID, storage.ErrConflict)
}
