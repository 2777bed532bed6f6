package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/domain"
	"reviewflow/internal/events"
	"reviewflow/internal/logger"
	"reviewflow/internal/storage"
)

// CreateReview создаёт черновик ревью или ответа
func (s *Service) CreateReview(outerCtx context.Context, user *domain.User, requestID int64, input *domain.CreateReviewInput) (*domain.Review, error) {
	const op = "service.CreateReview"
	defer observe(op)()
	var review *domain.Review

	if err := requireUser(user); err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := s.loadVisible(ctx, tx, user, requestID); err != nil {
			return err
		}

		review = &domain.Review{
			ReviewRequestID:     requestID,
			UserID:              user.ID,
			ShipIt:              input.ShipIt,
			BodyTop:             input.BodyTop,
			BodyBottom:          input.BodyBottom,
			BodyTopReplyToID:    input.BodyTopReplyToID,
			BodyBottomReplyToID: input.BodyBottomReplyToID,
			Timestamp:           s.now(),
		}

		if input.BaseReplyToID != nil {
			base, err := tx.ReviewRepo().GetByID(ctx, *input.BaseReplyToID)
			if err != nil {
				return err
			}
			if base.ReviewRequestID != requestID || !base.Public || base.IsReply() {
				return domain.InvalidArgument("review %d cannot be replied to", base.ID)
			}
			review.BaseReplyToID = &base.ID
			// Ответ не может ставить ship it
			review.ShipIt = false
		}

		return tx.ReviewRepo().Create(ctx, review)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return review, nil
}

// AddComment добавляет комментарий в неопубликованное ревью
func (s *Service) AddComment(outerCtx context.Context, user *domain.User, reviewID int64, input *domain.CommentInput) (*domain.Comment, error) {
	const op = "service.AddComment"
	defer observe(op)()
	var comment *domain.Comment

	switch input.Kind {
	case domain.CommentKindDiff, domain.CommentKindScreenshot, domain.CommentKindFileAttachment:
	default:
		return nil, s.formatError(outerCtx, op, domain.InvalidArgument("invalid comment kind %q", input.Kind))
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, s.formatError(outerCtx, op, domain.InvalidArgument("comment text is required"))
	}

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		review, err := s.loadOwnReview(ctx, tx, user, reviewID)
		if err != nil {
			return err
		}

		comment = &domain.Comment{
			ReviewID:    review.ID,
			Kind:        input.Kind,
			TargetID:    input.TargetID,
			ReplyToID:   input.ReplyToID,
			Text:        input.Text,
			IssueOpened: input.IssueOpened,
			FirstLine:   input.FirstLine,
			NumLines:    input.NumLines,
			X:           input.X,
			Y:           input.Y,
			W:           input.W,
			H:           input.H,
			Timestamp:   s.now(),
		}
		if comment.IssueOpened {
			comment.IssueStatus = domain.IssueOpen
		}
		return tx.ReviewRepo().CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return comment, nil
}

// loadOwnReview загружает неопубликованное ревью автора
func (s *Service) loadOwnReview(ctx context.Context, tx storage.Tx, user *domain.User, reviewID int64) (*domain.Review, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	review, err := tx.ReviewRepo().GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != user.ID {
		return nil, domain.ErrPermissionDenied
	}
	if review.Public {
		return nil, domain.InvalidArgument("review %d is already published", reviewID)
	}
	return review, nil
}

// PublishReview публикует ревью или ответ
func (s *Service) PublishReview(outerCtx context.Context, user *domain.User, reviewID int64) (*domain.Review, error) {
	const op = "service.PublishReview"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)

	var (
		review *domain.Review
		req    *domain.ReviewRequest
	)
	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		review, err = s.loadOwnReview(ctx, tx, user, reviewID)
		if err != nil {
			return err
		}
		req, err = s.loadVisible(ctx, tx, user, review.ReviewRequestID)
		if err != nil {
			return err
		}

		now := s.now()
		review.Public = true
		review.Timestamp = now
		for i := range review.Comments {
			review.Comments[i].Timestamp = now
			if err := tx.ReviewRepo().SaveComment(ctx, &review.Comments[i]); err != nil {
				return err
			}
		}

		if review.ShipIt && !review.IsReply() {
			if err := tx.Counters().Increment(ctx, storage.CounterShipIt, []int64{req.ID}); err != nil {
				return err
			}
		}
		if err := tx.ReviewRepo().Save(ctx, review); err != nil {
			return err
		}

		req.LastReviewAt = &now
		if err := tx.ReviewRequestRepo().Save(ctx, req); err != nil {
			return err
		}
		req, err = tx.ReviewRequestRepo().GetByID(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	eventType := events.ReviewPublished
	if review.IsReply() {
		eventType = events.ReplyPublished
	}
	s.events.Dispatch(outerCtx, events.Event{
		Type:          eventType,
		ReviewRequest: req,
		User:          user,
		Review:        review,
	})

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("review_id", review.ID).
		Int64("review_request_id", req.ID).
		Bool("reply", review.IsReply()).
		Bool("ship_it", review.ShipIt).
		Msg("review published")

	return review, nil
}

// SetIssueStatus меняет состояние issue. Это может сделать автор комментария,
// автор review request или пользователь с правом редактирования.
func (s *Service) SetIssueStatus(outerCtx context.Context, user *domain.User, commentID int64, status domain.IssueStatus) (*domain.Comment, error) {
	const op = "service.SetIssueStatus"
	defer observe(op)()
	var comment *domain.Comment

	if _, err := domain.ParseIssueStatus(string(status)); err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		if err := requireUser(user); err != nil {
			return err
		}

		var err error
		comment, err = tx.ReviewRepo().GetComment(ctx, commentID)
		if err != nil {
			return err
		}
		if !comment.IssueOpened {
			return domain.InvalidArgument("comment %d has no issue", commentID)
		}

		review, err := tx.ReviewRepo().GetByID(ctx, comment.ReviewID)
		if err != nil {
			return err
		}
		if !review.Public {
			return domain.InvalidArgument("review %d is not published", review.ID)
		}
		req, err := s.loadVisible(ctx, tx, user, review.ReviewRequestID)
		if err != nil {
			return err
		}
		if review.UserID != user.ID && req.SubmitterID != user.ID && !s.access.CanModify(req, user) {
			return domain.ErrPermissionDenied
		}

		comment.IssueStatus = status
		return tx.ReviewRepo().SaveComment(ctx, comment)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return comment, nil
}

// ListPublicReviews возвращает опубликованные ревью верхнего уровня, видимые пользователю
func (s *Service) ListPublicReviews(outerCtx context.Context, user *domain.User, requestID int64) ([]domain.Review, error) {
	const op = "service.ListPublicReviews"
	defer observe(op)()
	var result []domain.Review

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadVisible(ctx, tx, user, requestID)
		if err != nil {
			return err
		}
		site, err := loadSite(ctx, tx, req.SiteID)
		if err != nil {
			return err
		}
		groups, err := tx.GroupRepo().ListBySite(ctx, req.SiteID)
		if err != nil {
			return err
		}
		reviews, err := tx.ReviewRepo().ListByRequest(ctx, requestID)
		if err != nil {
			return err
		}

		viewerGroups := s.access.AccessibleGroups(groups, site, user)
		authorGroups := make(map[int64][]domain.Group)

		result = make([]domain.Review, 0, len(reviews))
		for _, review := range reviews {
			if !review.Public || review.IsReply() {
				continue
			}
			accessible, ok := authorGroups[review.UserID]
			if !ok {
				author := &domain.User{ID: review.UserID, Authenticated: true}
				accessible = s.access.AccessibleGroups(groups, site, author)
				authorGroups[review.UserID] = accessible
			}
			if s.access.CanViewReview(req, viewerGroups, accessible, site, user) {
				result = append(result, review)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return result, nil
}

// ListParticipants возвращает авторов опубликованных ревью и ответов
// в порядке обхода: ревью, затем ответы на него
func (s *Service) ListParticipants(outerCtx context.Context, user *domain.User, requestID int64) ([]domain.User, error) {
	const op = "service.ListParticipants"
	defer observe(op)()
	var participants []domain.User

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := s.loadVisible(ctx, tx, user, requestID); err != nil {
			return err
		}
		reviews, err := tx.ReviewRepo().ListByRequest(ctx, requestID)
		if err != nil {
			return err
		}

		replies := make(map[int64][]domain.Review)
		queue := make([]domain.Review, 0)
		for _, review := range reviews {
			if !review.Public {
				continue
			}
			if review.IsReply() {
				replies[*review.BaseReplyToID] = append(replies[*review.BaseReplyToID], review)
			} else {
				queue = append(queue, review)
			}
		}

		seen := make(map[int64]struct{})
		order := make([]int64, 0)
		for len(queue) > 0 {
			review := queue[0]
			queue = queue[1:]
			if _, ok := seen[review.UserID]; !ok {
				seen[review.UserID] = struct{}{}
				order = append(order, review.UserID)
			}
			queue = append(queue, replies[review.ID]...)
		}

		users, err := tx.UserRepo().GetByIDs(ctx, order)
		if err != nil {
			return err
		}
		byID := make(map[int64]domain.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		participants = make([]domain.User, 0, len(order))
		for _, id := range order {
			if u, ok := byID[id]; ok {
				participants = append(participants, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return participants, nil
}
