package gorm

import (
	"context"

	"gorm.io/gorm"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository создаёт репозиторий ревью
func NewReviewRepository(db *gorm.DB) storage.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	row := reviewFromDomain(review)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(ctx, err, "storage.Review.Create", review.ReviewRequestID, storage.ErrConflict)
	}
	review.ID = row.ID
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	const op = "storage.Review.GetByID"

	var row Review
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrConflict)
	}
	comments, err := r.comments(ctx, []int64{id})
	if err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrConflict)
	}
	review := row.toDomain(commentsOr(comments[id]))
	return &review, nil
}

// Save обновляет поля ревью; комментарии сохраняются через SaveComment
func (r *reviewRepository) Save(ctx context.Context, review *domain.Review) error {
	result := r.db.WithContext(ctx).
		Model(&Review{ID: review.ID}).
		Select("*").
		Omit("id", "review_request_id", "user_id").
		Updates(reviewFromDomain(review))
	return translate(ctx, notFoundIfNone(result), "storage.Review.Save", review.ID, storage.ErrConflict)
}

func (r *reviewRepository) ListByRequest(ctx context.Context, requestID int64) ([]domain.Review, error) {
	const op = "storage.Review.ListByRequest"

	var rows []Review
	if err := r.db.WithContext(ctx).Where("review_request_id = ?", requestID).Order("id").Find(&rows).Error; err != nil {
		return nil, translate(ctx, err, op, requestID, storage.ErrConflict)
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	comments, err := r.comments(ctx, ids)
	if err != nil {
		return nil, translate(ctx, err, op, requestID, storage.ErrConflict)
	}

	reviews := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toDomain(commentsOr(comments[row.ID])))
	}
	return reviews, nil
}

// DeleteByRequest удаляет ревью; комментарии удаляются каскадом
func (r *reviewRepository) DeleteByRequest(ctx context.Context, requestID int64) error {
	err := r.db.WithContext(ctx).Where("review_request_id = ?", requestID).Delete(&Review{}).Error
	return translate(ctx, err, "storage.Review.DeleteByRequest", requestID, storage.ErrConflict)
}

func (r *reviewRepository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	row := commentFromDomain(comment)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(ctx, err, "storage.Review.CreateComment", comment.ReviewID, storage.ErrConflict)
	}
	comment.ID = row.ID
	return nil
}

func (r *reviewRepository) GetComment(ctx context.Context, id int64) (*domain.Comment, error) {
	var row Comment
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(ctx, err, "storage.Review.GetComment", id, storage.ErrConflict)
	}
	comment, err := row.toDomain()
	if err != nil {
		return nil, translate(ctx, err, "storage.Review.GetComment", id, storage.ErrConflict)
	}
	return &comment, nil
}

func (r *reviewRepository) SaveComment(ctx context.Context, comment *domain.Comment) error {
	result := r.db.WithContext(ctx).
		Model(&Comment{ID: comment.ID}).
		Select("*").
		Omit("id", "review_id").
		Updates(commentFromDomain(comment))
	return translate(ctx, notFoundIfNone(result), "storage.Review.SaveComment", comment.ID, storage.ErrConflict)
}

func (r *reviewRepository) comments(ctx context.Context, reviewIDs []int64) (map[int64][]domain.Comment, error) {
	byReview := make(map[int64][]domain.Comment, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return byReview, nil
	}
	var rows []Comment
	if err := r.db.WithContext(ctx).Where("review_id IN ?", reviewIDs).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		comment, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		byReview[row.ReviewID] = append(byReview[row.ReviewID], comment)
	}
	return byReview, nil
}

func commentsOr(comments []domain.Comment) []domain.Comment {
	if comments == nil {
		return make([]domain.Comment, 0)
	}
	return comments
}
