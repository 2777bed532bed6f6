package memory

import (
	"context"
	"sort"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type reviewRepo struct {
	st *state
}

func (r *reviewRepo) Create(_ context.Context, review *domain.Review) error {
	if _, ok := r.st.Requests[review.ReviewRequestID]; !ok {
		return storage.ErrNotFound
	}
	review.ID = r.st.nextID()
	r.st.Reviews[review.ID] = r.row(review)
	return nil
}

func (r *reviewRepo) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	review, ok := r.st.Reviews[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.hydrate(review), nil
}

func (r *reviewRepo) Save(_ context.Context, review *domain.Review) error {
	if _, ok := r.st.Reviews[review.ID]; !ok {
		return storage.ErrNotFound
	}
	r.st.Reviews[review.ID] = r.row(review)
	return nil
}

func (r *reviewRepo) ListByRequest(_ context.Context, requestID int64) ([]domain.Review, error) {
	reviews := make([]domain.Review, 0)
	for _, review := range r.st.Reviews {
		if review.ReviewRequestID == requestID {
			reviews = append(reviews, *r.hydrate(review))
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].ID < reviews[j].ID
	})
	return reviews, nil
}

func (r *reviewRepo) DeleteByRequest(_ context.Context, requestID int64) error {
	for id, review := range r.st.Reviews {
		if review.ReviewRequestID != requestID {
			continue
		}
		for cid, c := range r.st.Comments {
			if c.ReviewID == id {
				delete(r.st.Comments, cid)
			}
		}
		delete(r.st.Reviews, id)
	}
	return nil
}

func (r *reviewRepo) CreateComment(_ context.Context, comment *domain.Comment) error {
	if _, ok := r.st.Reviews[comment.ReviewID]; !ok {
		return storage.ErrNotFound
	}
	comment.ID = r.st.nextID()
	r.st.Comments[comment.ID] = clone(comment)
	return nil
}

func (r *reviewRepo) GetComment(_ context.Context, id int64) (*domain.Comment, error) {
	c, ok := r.st.Comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(c), nil
}

func (r *reviewRepo) SaveComment(_ context.Context, comment *domain.Comment) error {
	if _, ok := r.st.Comments[comment.ID]; !ok {
		return storage.ErrNotFound
	}
	r.st.Comments[comment.ID] = clone(comment)
	return nil
}

// row хранит ревью без комментариев; комментарии живут отдельно
func (r *reviewRepo) row(review *domain.Review) *domain.Review {
	row := clone(review)
	row.Comments = nil
	return row
}

func (r *reviewRepo) hydrate(row *domain.Review) *domain.Review {
	review := clone(row)
	review.Comments = make([]domain.Comment, 0)
	for _, c := range r.st.Comments {
		if c.ReviewID == review.ID {
			review.Comments = append(review.Comments, *clone(c))
		}
	}
	sort.Slice(review.Comments, func(i, j int) bool {
		return review.Comments[i].ID < review.Comments[j].ID
	})
	return review
}
