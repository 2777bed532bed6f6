package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository создаёт репозиторий профилей
func NewProfileRepository(db *gorm.DB) storage.ProfileRepository {
	return &profileRepository{db: db}
}

// Ensure возвращает профиль пользователя на сайте. Новый профиль
// сразу получает выведенные значения счётчиков.
func (r *profileRepository) Ensure(ctx context.Context, userID int64, siteID *int64) (*domain.SiteProfile, error) {
	const op = "storage.Profile.Ensure"

	row, err := r.find(ctx, userID, siteID)
	if err == nil {
		return r.toDomain(ctx, row)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate(ctx, err, op, userID, storage.ErrAlreadyExists)
	}

	created := &SiteProfile{UserID: userID, SiteID: siteID}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(created)
	if result.Error != nil {
		return nil, translate(ctx, result.Error, op, userID, storage.ErrAlreadyExists)
	}
	if result.RowsAffected > 0 {
		counters := &counterStore{db: r.db}
		for _, counter := range storage.AllCounters {
			if !isProfileCounter(counter) {
				continue
			}
			if _, err := counters.Recompute(ctx, counter, created.ID); err != nil {
				return nil, err
			}
		}
	}

	row, err = r.find(ctx, userID, siteID)
	if err != nil {
		return nil, translate(ctx, err, op, userID, storage.ErrAlreadyExists)
	}
	return r.toDomain(ctx, row)
}

func (r *profileRepository) find(ctx context.Context, userID int64, siteID *int64) (*SiteProfile, error) {
	var row SiteProfile
	err := sameSite(r.db.WithContext(ctx), siteID).
		Where("user_id = ?", userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *profileRepository) toDomain(ctx context.Context, row *SiteProfile) (*domain.SiteProfile, error) {
	starred, err := starredRequests.load(ctx, r.db, row.ID, false)
	if err != nil {
		return nil, translate(ctx, err, "storage.Profile.Load", row.ID, storage.ErrAlreadyExists)
	}
	return &domain.SiteProfile{
		ID:                row.ID,
		UserID:            row.UserID,
		SiteID:            row.SiteID,
		DirectIncoming:    row.DirectIncoming,
		TotalIncoming:     row.TotalIncoming,
		PendingOutgoing:   row.PendingOutgoing,
		TotalOutgoing:     row.TotalOutgoing,
		StarredPublic:     row.StarredPublic,
		StarredRequestIDs: starred,
	}, nil
}

func (r *profileRepository) DirectIncomingIDs(ctx context.Context, siteID *int64, userIDs []int64) ([]int64, error) {
	if len(userIDs) == 0 {
		return make([]int64, 0), nil
	}
	return r.ids(ctx, sameSite(r.db.WithContext(ctx), siteID).Where("user_id IN ?", userIDs))
}

func (r *profileRepository) TotalIncomingIDs(ctx context.Context, siteID *int64, userIDs, groupIDs []int64) ([]int64, error) {
	if len(userIDs) == 0 && len(groupIDs) == 0 {
		return make([]int64, 0), nil
	}
	q := sameSite(r.db.WithContext(ctx), siteID)
	switch {
	case len(groupIDs) == 0:
		q = q.Where("user_id IN ?", userIDs)
	case len(userIDs) == 0:
		q = q.Where("user_id IN (SELECT user_id FROM group_members WHERE group_id IN ?)", groupIDs)
	default:
		q = q.Where("user_id IN ? OR user_id IN (SELECT user_id FROM group_members WHERE group_id IN ?)", userIDs, groupIDs)
	}
	return r.ids(ctx, q)
}

func (r *profileRepository) StarredIDs(ctx context.Context, siteID *int64, requestID int64) ([]int64, error) {
	q := sameSite(r.db.WithContext(ctx), siteID).
		Where("id IN (SELECT profile_id FROM profile_starred_review_requests WHERE review_request_id = ?)", requestID)
	return r.ids(ctx, q)
}

func (r *profileRepository) ids(ctx context.Context, q *gorm.DB) ([]int64, error) {
	ids := make([]int64, 0)
	if err := q.Model(&SiteProfile{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, translate(ctx, err, "storage.Profile.IDs", 0, storage.ErrAlreadyExists)
	}
	return ids, nil
}

func (r *profileRepository) Star(ctx context.Context, profileID, requestID int64) (bool, error) {
	added, err := starredRequests.insert(ctx, r.db, profileID, requestID)
	if err != nil {
		return false, translate(ctx, err, "storage.Profile.Star", profileID, storage.ErrAlreadyExists)
	}
	return added, nil
}

func (r *profileRepository) Unstar(ctx context.Context, profileID, requestID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&SiteProfile{}).Where("id = ?", profileID).Count(&count).Error; err != nil {
		return false, translate(ctx, err, "storage.Profile.Unstar", profileID, storage.ErrAlreadyExists)
	}
	if count == 0 {
		return false, translate(ctx, gorm.ErrRecordNotFound, "storage.Profile.Unstar", profileID, storage.ErrAlreadyExists)
	}
	removed, err := starredRequests.remove(ctx, r.db, profileID, requestID)
	if err != nil {
		return false, translate(ctx, err, "storage.Profile.Unstar", profileID, storage.ErrAlreadyExists)
	}
	return removed, nil
}

func (r *profileRepository) DeleteStars(ctx context.Context, requestID int64) error {
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM profile_starred_review_requests WHERE review_request_id = ?", requestID).Error
	return translate(ctx, err, "storage.Profile.DeleteStars", requestID, storage.ErrAlreadyExists)
}

func isProfileCounter(counter storage.Counter) bool {
	return counter != storage.CounterGroupIncoming && counter != storage.CounterShipIt
}
