package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/domain"
	"reviewflow/internal/events"
	"reviewflow/internal/logger"
	"reviewflow/internal/metrics"
	"reviewflow/internal/storage"
)

// CreateReviewRequest создаёт новый review request в статусе pending
func (s *Service) CreateReviewRequest(outerCtx context.Context, user *domain.User, input *domain.CreateReviewRequestInput) (*domain.ReviewRequest, error) {
	const op = "service.CreateReviewRequest"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)

	if err := requireUser(user); err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}
	if input.SubmitAs != "" && input.SubmitAs != user.Username && !s.access.CanSubmitAs(user) {
		return nil, s.formatError(outerCtx, op, domain.ErrPermissionDenied)
	}

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Str("user", user.Username).
		Str("submit_as", input.SubmitAs).
		Msg("creating review request")

	changeset, err := s.prefetchChangeset(outerCtx, input)
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	var created *domain.ReviewRequest
	err = s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		submitterID := user.ID
		if input.SubmitAs != "" && input.SubmitAs != user.Username {
			users, err := tx.UserRepo().GetByUsernames(ctx, []string{input.SubmitAs})
			if errors.Is(err, storage.ErrNotFound) {
				return domain.InvalidArgument("unknown user %q", input.SubmitAs)
			}
			if err != nil {
				return err
			}
			submitterID = users[0].ID
		}

		site, err := loadSite(ctx, tx, input.SiteID)
		if err != nil {
			return err
		}
		if !s.access.CanViewSite(site, user) {
			return domain.ErrPermissionDenied
		}

		if input.RepositoryID != nil {
			repo, err := tx.CodeRepoRepo().GetByID(ctx, *input.RepositoryID)
			if errors.Is(err, storage.ErrNotFound) {
				return domain.InvalidArgument("unknown repository %d", *input.RepositoryID)
			}
			if err != nil {
				return err
			}
			if !s.access.CanViewRepository(repo, site, user) {
				return domain.ErrPermissionDenied
			}
		}

		historyID, err := tx.DiffRepo().CreateHistory(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		req := &domain.ReviewRequest{
			SiteID:        input.SiteID,
			SubmitterID:   submitterID,
			Status:        domain.StatusPending,
			ChangeNum:     input.ChangeNum,
			RepositoryID:  input.RepositoryID,
			DiffHistoryID: historyID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if input.SiteID != nil {
			localID, err := tx.ReviewRequestRepo().NextLocalID(ctx, *input.SiteID)
			if err != nil {
				return err
			}
			req.LocalID = &localID
		}
		if changeset != nil {
			applyChangeset(req, changeset)
		}

		if err := s.updateCounts(ctx, tx, req, nil); err != nil {
			return err
		}
		if err := tx.ReviewRequestRepo().Create(ctx, req); err != nil {
			return err
		}

		created, err = tx.ReviewRequestRepo().GetByID(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	metrics.ReviewRequestsCreatedTotal.Inc()
	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("review_request_id", created.ID).
		Int64("display_id", created.DisplayID()).
		Msg("review request created")

	return created, nil
}

// prefetchChangeset загружает changeset до основной транзакции, если он указан
func (s *Service) prefetchChangeset(outerCtx context.Context, input *domain.CreateReviewRequestInput) (*domain.Changeset, error) {
	if input.ChangeNum == nil || input.RepositoryID == nil || s.changesets == nil {
		return nil, nil
	}

	var repo *domain.Repository
	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		repo, err = tx.CodeRepoRepo().GetByID(ctx, *input.RepositoryID)
		if errors.Is(err, storage.ErrNotFound) {
			return domain.InvalidArgument("unknown repository %d", *input.RepositoryID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.changesets.GetChangeset(outerCtx, repo, *input.ChangeNum)
}

// applyChangeset заполняет поля нового review request из changeset
func applyChangeset(req *domain.ReviewRequest, changeset *domain.Changeset) {
	req.Summary = domain.TruncateSummary(changeset.Summary)
	req.Description = changeset.Description
	if changeset.TestingDone != "" {
		req.TestingDone = changeset.TestingDone
	}
	if changeset.Branch != "" {
		req.Branch = changeset.Branch
	}
	if len(changeset.BugsClosed) > 0 {
		req.BugsClosed = domain.NormalizeBugIDs(strings.Join(changeset.BugsClosed, ","))
	}
}

// GetReviewRequest возвращает review request, если пользователь может его видеть
func (s *Service) GetReviewRequest(outerCtx context.Context, user *domain.User, id int64) (*domain.ReviewRequest, error) {
	const op = "service.GetReviewRequest"
	defer observe(op)()
	var req *domain.ReviewRequest

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		req, err = s.loadVisible(ctx, tx, user, id)
		return err
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return req, nil
}

// CloseReviewRequest закрывает review request как submitted или discarded.
// Повторное закрытие в тот же статус только обновляет текст последней записи истории.
func (s *Service) CloseReviewRequest(outerCtx context.Context, user *domain.User, id int64, input *domain.CloseInput) (*domain.ReviewRequest, error) {
	const op = "service.CloseReviewRequest"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)

	if input.Type != domain.StatusSubmitted && input.Type != domain.StatusDiscarded {
		return nil, s.formatError(outerCtx, op, domain.InvalidArgument("invalid close type %q", input.Type))
	}

	var (
		closed  *domain.ReviewRequest
		cd      *domain.ChangeDescription
		changed bool
	)
	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := tx.ReviewRequestRepo().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !s.access.CanChangeStatus(req, user) {
			return domain.ErrPermissionDenied
		}

		if req.Status != input.Type {
			changed = true
			cd = domain.NewChangeDescription(input.Description, true)
			cd.RecordFieldChange(domain.FieldStatus, req.Status.Code(), input.Type.Code())

			prev := stateOf(req)
			req.Status = input.Type
			if err := s.updateCounts(ctx, tx, req, prev); err != nil {
				return err
			}
			if err := tx.ReviewRequestRepo().Save(ctx, req); err != nil {
				return err
			}

			cd.ReviewRequestID = &req.ID
			cd.Finalize(s.now())
			if err := tx.ChangeDescriptionRepo().Save(ctx, cd); err != nil {
				return err
			}
		} else {
			latest, err := tx.ChangeDescriptionRepo().LatestPublic(ctx, id)
			switch {
			case errors.Is(err, storage.ErrNotFound):
			case err != nil:
				return err
			default:
				latest.Text = input.Description
				latest.Timestamp = s.now()
				if err := tx.ChangeDescriptionRepo().Save(ctx, latest); err != nil {
					return err
				}
			}
		}

		if err := tx.DraftRepo().Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		closed, err = tx.ReviewRequestRepo().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	if changed {
		s.events.Dispatch(outerCtx, events.Event{
			Type:              events.Closed,
			ReviewRequest:     closed,
			User:              user,
			ChangeDescription: cd,
		})
	}

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("review_request_id", id).
		Str("status", string(closed.Status)).
		Bool("status_changed", changed).
		Msg("review request closed")

	return closed, nil
}

// ReopenReviewRequest возвращает review request в pending.
// Из discarded запрос становится непубличным и получает черновик с записью о переоткрытии.
func (s *Service) ReopenReviewRequest(outerCtx context.Context, user *domain.User, id int64) (*domain.ReviewRequest, error) {
	const op = "service.ReopenReviewRequest"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)

	var (
		reopened *domain.ReviewRequest
		cd       *domain.ChangeDescription
		from     domain.ReviewRequestStatus
	)
	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := tx.ReviewRequestRepo().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !s.access.CanChangeStatus(req, user) {
			return domain.ErrPermissionDenied
		}

		from = req.Status
		if from == domain.StatusPending {
			reopened = req
			return nil
		}

		prev := stateOf(req)
		cd = domain.NewChangeDescription("", false)
		cd.RecordFieldChange(domain.FieldStatus, from.Code(), domain.StatusPending.Code())

		req.Status = domain.StatusPending
		if from == domain.StatusDiscarded {
			req.Public = false
		}
		if err := s.updateCounts(ctx, tx, req, prev); err != nil {
			return err
		}
		if err := tx.ReviewRequestRepo().Save(ctx, req); err != nil {
			return err
		}

		if from == domain.StatusDiscarded {
			// Запись уйдёт в историю при следующей публикации
			draft, err := s.ensureDraft(ctx, tx, req)
			if err != nil {
				return err
			}
			draft.ChangeDescription = cd
			if err := tx.DraftRepo().Save(ctx, draft); err != nil {
				return err
			}
		} else {
			cd.ReviewRequestID = &req.ID
			cd.Finalize(s.now())
			if err := tx.ChangeDescriptionRepo().Save(ctx, cd); err != nil {
				return err
			}
		}

		reopened, err = tx.ReviewRequestRepo().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	if from == domain.StatusPending {
		return reopened, nil
	}

	metrics.ReviewRequestsReopenedTotal.WithLabelValues(string(from)).Inc()
	s.events.Dispatch(outerCtx, events.Event{
		Type:              events.Reopened,
		ReviewRequest:     reopened,
		User:              user,
		ChangeDescription: cd,
	})

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("review_request_id", id).
		Str("from", string(from)).
		Bool("public", reopened.Public).
		Msg("review request reopened")

	return reopened, nil
}

// DeleteReviewRequest снимает вклад запроса в счётчики и удаляет его вместе с ревью
func (s *Service) DeleteReviewRequest(outerCtx context.Context, user *domain.User, id int64) error {
	const op = "service.DeleteReviewRequest"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}

		if err := s.releaseIncoming(ctx, tx, req, stateOf(req)); err != nil {
			return err
		}
		profile, err := tx.ProfileRepo().Ensure(ctx, req.SubmitterID, req.SiteID)
		if err != nil {
			return err
		}
		self := []int64{profile.ID}
		if err := tx.Counters().Decrement(ctx, storage.CounterProfileTotalOutgoing, self); err != nil {
			return err
		}
		if req.Status == domain.StatusPending {
			if err := tx.Counters().Decrement(ctx, storage.CounterProfilePendingOutgoing, self); err != nil {
				return err
			}
		}

		if err := tx.DraftRepo().Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err := tx.ProfileRepo().DeleteStars(ctx, id); err != nil {
			return err
		}
		if err := tx.ReviewRepo().DeleteByRequest(ctx, id); err != nil {
			return err
		}
		if err := tx.ChangeDescriptionRepo().DeleteByRequest(ctx, id); err != nil {
			return err
		}
		return tx.ReviewRequestRepo().Delete(ctx, id)
	})
	if err != nil {
		return s.formatError(outerCtx, op, err)
	}

	metrics.ReviewRequestsDeletedTotal.Inc()
	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("review_request_id", id).
		Msg("review request deleted")

	return nil
}

// UpdateChangeNum меняет номер внешнего changeset
func (s *Service) UpdateChangeNum(outerCtx context.Context, user *domain.User, id int64, changeNum int64) (*domain.ReviewRequest, error) {
	const op = "service.UpdateChangeNum"
	defer observe(op)()
	var updated *domain.ReviewRequest

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}
		req.ChangeNum = &changeNum
		if err := tx.ReviewRequestRepo().Save(ctx, req); err != nil {
			return err
		}
		updated, err = tx.ReviewRequestRepo().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return updated, nil
}

// StarReviewRequest добавляет review request в избранное пользователя
func (s *Service) StarReviewRequest(outerCtx context.Context, user *domain.User, id int64) error {
	const op = "service.StarReviewRequest"
	defer observe(op)()

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		return s.toggleStar(ctx, tx, user, id, true)
	})
	if err != nil {
		return s.formatError(outerCtx, op, err)
	}
	return nil
}

// UnstarReviewRequest убирает review request из избранного пользователя
func (s *Service) UnstarReviewRequest(outerCtx context.Context, user *domain.User, id int64) error {
	const op = "service.UnstarReviewRequest"
	defer observe(op)()

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		return s.toggleStar(ctx, tx, user, id, false)
	})
	if err != nil {
		return s.formatError(outerCtx, op, err)
	}
	return nil
}

func (s *Service) toggleStar(ctx context.Context, tx storage.Tx, user *domain.User, id int64, star bool) error {
	if err := requireUser(user); err != nil {
		return err
	}
	req, err := s.loadVisible(ctx, tx, user, id)
	if err != nil {
		return err
	}
	profile, err := tx.ProfileRepo().Ensure(ctx, user.ID, req.SiteID)
	if err != nil {
		return err
	}

	var changed bool
	if star {
		changed, err = tx.ProfileRepo().Star(ctx, profile.ID, id)
	} else {
		changed, err = tx.ProfileRepo().Unstar(ctx, profile.ID, id)
	}
	if err != nil || !changed || !req.CountsIncoming() {
		return err
	}

	self := []int64{profile.ID}
	if star {
		return tx.Counters().Increment(ctx, storage.CounterProfileStarredPublic, self)
	}
	return tx.Counters().Decrement(ctx, storage.CounterProfileStarredPublic, self)
}
