package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/domain"
	"reviewflow/internal/logger"
	"reviewflow/internal/metrics"
	"reviewflow/internal/storage"
)

// newDraftFrom копирует изменяемые поля review request в новый черновик
func newDraftFrom(req *domain.ReviewRequest) *domain.ReviewRequestDraft {
	draft := &domain.ReviewRequestDraft{
		ReviewRequestID:         req.ID,
		Summary:                 req.Summary,
		Description:             req.Description,
		TestingDone:             req.TestingDone,
		BugsClosed:              req.BugsClosed,
		Branch:                  req.Branch,
		TargetGroups:            slices.Clone(req.TargetGroups),
		TargetPeople:            slices.Clone(req.TargetPeople),
		Screenshots:             slices.Clone(req.Screenshots),
		InactiveScreenshots:     slices.Clone(req.InactiveScreenshots),
		FileAttachments:         slices.Clone(req.FileAttachments),
		InactiveFileAttachments: slices.Clone(req.InactiveFileAttachments),
	}
	if req.Public {
		draft.ChangeDescription = domain.NewChangeDescription("", false)
	}
	return draft
}

// ensureDraft возвращает черновик review request, атомарно создавая его при отсутствии.
// При создании подписи вложений копируются в DraftCaption.
func (s *Service) ensureDraft(ctx context.Context, tx storage.Tx, req *domain.ReviewRequest) (*domain.ReviewRequestDraft, error) {
	draft, created, err := tx.DraftRepo().CreateIfAbsent(ctx, newDraftFrom(req))
	if err != nil {
		return nil, err
	}

	if !created {
		if draft.ChangeDescription == nil && req.Public {
			draft.ChangeDescription = domain.NewChangeDescription("", false)
			if err := tx.DraftRepo().Save(ctx, draft); err != nil {
				return nil, err
			}
		}
		return draft, nil
	}

	attachments := tx.AttachmentRepo()
	for _, list := range [][]domain.Screenshot{draft.Screenshots, draft.InactiveScreenshots} {
		for i := range list {
			list[i].DraftCaption = list[i].Caption
			if err := attachments.SaveScreenshot(ctx, &list[i]); err != nil {
				return nil, err
			}
		}
	}
	for _, list := range [][]domain.FileAttachment{draft.FileAttachments, draft.InactiveFileAttachments} {
		for i := range list {
			list[i].DraftCaption = list[i].Caption
			if err := attachments.SaveFileAttachment(ctx, &list[i]); err != nil {
				return nil, err
			}
		}
	}

	log.Debug().
		Str("request_id", logger.GetRequestID(ctx)).
		Str("layer", "service").
		Int64("review_request_id", req.ID).
		Int64("draft_id", draft.ID).
		Msg("draft created")

	return draft, nil
}

// GetDraft возвращает черновик, создавая его при первом обращении
func (s *Service) GetDraft(outerCtx context.Context, user *domain.User, id int64) (*domain.ReviewRequestDraft, error) {
	const op = "service.GetDraft"
	defer observe(op)()
	var draft *domain.ReviewRequestDraft

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}
		draft, err = s.ensureDraft(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return draft, nil
}

// UpdateDraft изменяет поля черновика
func (s *Service) UpdateDraft(outerCtx context.Context, user *domain.User, id int64, input *domain.UpdateDraftInput) (*domain.ReviewRequestDraft, error) {
	const op = "service.UpdateDraft"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)
	var draft *domain.ReviewRequestDraft

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("review_request_id", id).
		Msg("updating draft")

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}

		draft, err = s.ensureDraft(ctx, tx, req)
		if err != nil {
			return err
		}

		if err := s.applyDraftInput(ctx, tx, req, draft, input); err != nil {
			return err
		}

		draft.Normalize()
		return tx.DraftRepo().Save(ctx, draft)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return draft, nil
}

func (s *Service) applyDraftInput(ctx context.Context, tx storage.Tx, req *domain.ReviewRequest, draft *domain.ReviewRequestDraft, input *domain.UpdateDraftInput) error {
	if input.Summary != nil {
		draft.Summary = *input.Summary
	}
	if input.Description != nil {
		draft.Description = *input.Description
	}
	if input.TestingDone != nil {
		draft.TestingDone = *input.TestingDone
	}
	if input.Branch != nil {
		draft.Branch = *input.Branch
	}
	if input.BugsClosed != nil {
		draft.BugsClosed = *input.BugsClosed
	}
	if input.ChangeText != nil && draft.ChangeDescription != nil {
		draft.ChangeDescription.Text = *input.ChangeText
	}

	if input.TargetGroups != nil {
		names := compactNames(*input.TargetGroups)
		groups, err := tx.GroupRepo().GetByNames(ctx, req.SiteID, names)
		if errors.Is(err, storage.ErrNotFound) {
			return domain.InvalidArgument("unknown group in %v", names)
		}
		if err != nil {
			return err
		}
		draft.TargetGroups = groups
	}

	if input.TargetPeople != nil {
		names := compactNames(*input.TargetPeople)
		people, err := tx.UserRepo().GetByUsernames(ctx, names)
		if errors.Is(err, storage.ErrNotFound) {
			return domain.InvalidArgument("unknown user in %v", names)
		}
		if err != nil {
			return err
		}
		draft.TargetPeople = people
	}

	for screenshotID, caption := range input.ScreenshotCaptions {
		i := slices.IndexFunc(draft.Screenshots, func(sc domain.Screenshot) bool { return sc.ID == screenshotID })
		if i == -1 {
			return domain.InvalidArgument("screenshot %d is not attached to the draft", screenshotID)
		}
		draft.Screenshots[i].DraftCaption = caption
		if err := tx.AttachmentRepo().SaveScreenshot(ctx, &draft.Screenshots[i]); err != nil {
			return err
		}
	}

	for fileID, caption := range input.FileCaptions {
		i := slices.IndexFunc(draft.FileAttachments, func(f domain.FileAttachment) bool { return f.ID == fileID })
		if i == -1 {
			return domain.InvalidArgument("file attachment %d is not attached to the draft", fileID)
		}
		draft.FileAttachments[i].DraftCaption = caption
		if err := tx.AttachmentRepo().SaveFileAttachment(ctx, &draft.FileAttachments[i]); err != nil {
			return err
		}
	}

	return nil
}

// compactNames убирает пробелы, пустые имена и повторы
func compactNames(names []string) []string {
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" && !slices.Contains(result, name) {
			result = append(result, name)
		}
	}
	return result
}

// DiscardDraft удаляет черновик без публикации. Отсутствие черновика - не ошибка.
func (s *Service) DiscardDraft(outerCtx context.Context, user *domain.User, id int64) error {
	const op = "service.DiscardDraft"
	defer observe(op)()

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := s.loadModifiable(ctx, tx, user, id); err != nil {
			return err
		}
		if err := tx.DraftRepo().Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return s.formatError(outerCtx, op, err)
	}

	return nil
}

// AttachDiff загружает новый diffset в черновик и добавляет default reviewers
func (s *Service) AttachDiff(outerCtx context.Context, user *domain.User, id int64, input *domain.AttachDiffInput) (*domain.DiffSet, error) {
	const op = "service.AttachDiff"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)
	var diffset *domain.DiffSet

	if len(input.Files) == 0 {
		return nil, domain.InvalidArgument("diff must contain at least one file")
	}

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}

		draft, err := s.ensureDraft(ctx, tx, req)
		if err != nil {
			return err
		}

		published, err := tx.DiffRepo().CountInHistory(ctx, req.DiffHistoryID)
		if err != nil {
			return err
		}

		diffset = &domain.DiffSet{
			Revision:  published + 1,
			Files:     slices.Clone(input.Files),
			CreatedAt: s.now(),
		}
		if err := tx.DiffRepo().CreateDiffSet(ctx, diffset); err != nil {
			return err
		}
		draft.DiffSetID = &diffset.ID

		added, err := s.addDefaultReviewers(ctx, tx, req, draft, diffset)
		if err != nil {
			return err
		}

		log.Info().
			Str("request_id", requestID).
			Str("layer", "service").
			Int64("review_request_id", req.ID).
			Int64("diffset_id", diffset.ID).
			Int("revision", diffset.Revision).
			Int("default_reviewers_added", added).
			Msg("diff attached to draft")

		return tx.DraftRepo().Save(ctx, draft)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return diffset, nil
}

// addDefaultReviewers добавляет в черновик людей и группы из сработавших правил.
// Существующие цели никогда не удаляются.
func (s *Service) addDefaultReviewers(ctx context.Context, tx storage.Tx, req *domain.ReviewRequest, draft *domain.ReviewRequestDraft, diffset *domain.DiffSet) (int, error) {
	rules, err := tx.DefaultReviewerRepo().ListBySite(ctx, req.SiteID)
	if err != nil {
		return 0, err
	}

	paths := make([]string, 0, len(diffset.Files))
	for _, f := range diffset.Files {
		paths = append(paths, f.Path())
	}

	result := s.matcher.Match(req.RepositoryID, rules, paths)
	if result.Empty() {
		metrics.DefaultReviewersAdded.Observe(0)
		return 0, nil
	}

	added := 0

	missingGroups := make([]int64, 0)
	for _, gid := range result.GroupIDs() {
		if !slices.Contains(draft.TargetGroupIDs(), gid) {
			missingGroups = append(missingGroups, gid)
		}
	}
	if len(missingGroups) > 0 {
		groups, err := tx.GroupRepo().GetByIDs(ctx, missingGroups)
		if err != nil {
			return 0, err
		}
		draft.TargetGroups = append(draft.TargetGroups, groups...)
		added += len(groups)
	}

	missingPeople := make([]int64, 0)
	for _, uid := range result.PeopleIDs() {
		if !slices.Contains(draft.TargetPeopleIDs(), uid) {
			missingPeople = append(missingPeople, uid)
		}
	}
	if len(missingPeople) > 0 {
		people, err := tx.UserRepo().GetByIDs(ctx, missingPeople)
		if err != nil {
			return 0, err
		}
		draft.TargetPeople = append(draft.TargetPeople, people...)
		added += len(people)
	}

	metrics.DefaultReviewersAdded.Observe(float64(added))
	return added, nil
}

// AddScreenshot добавляет скриншот в черновик
func (s *Service) AddScreenshot(outerCtx context.Context, user *domain.User, id int64, input *domain.AttachmentInput) (*domain.Screenshot, error) {
	const op = "service.AddScreenshot"
	defer observe(op)()
	var screenshot *domain.Screenshot

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}
		draft, err := s.ensureDraft(ctx, tx, req)
		if err != nil {
			return err
		}

		screenshot = &domain.Screenshot{
			Caption:      input.Caption,
			DraftCaption: input.Caption,
			Path:         input.Path,
		}
		if err := tx.AttachmentRepo().CreateScreenshot(ctx, screenshot); err != nil {
			return err
		}

		draft.Screenshots = append(draft.Screenshots, *screenshot)
		return tx.DraftRepo().Save(ctx, draft)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return screenshot, nil
}

// AddFileAttachment добавляет файл в черновик
func (s *Service) AddFileAttachment(outerCtx context.Context, user *domain.User, id int64, input *domain.AttachmentInput) (*domain.FileAttachment, error) {
	const op = "service.AddFileAttachment"
	defer observe(op)()
	var attachment *domain.FileAttachment

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}
		draft, err := s.ensureDraft(ctx, tx, req)
		if err != nil {
			return err
		}

		attachment = &domain.FileAttachment{
			Caption:      input.Caption,
			DraftCaption: input.Caption,
			Path:         input.Path,
			MimeType:     input.MimeType,
		}
		if err := tx.AttachmentRepo().CreateFileAttachment(ctx, attachment); err != nil {
			return err
		}

		draft.FileAttachments = append(draft.FileAttachments, *attachment)
		return tx.DraftRepo().Save(ctx, draft)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return attachment, nil
}

// RemoveScreenshot переносит скриншот черновика в неактивные
func (s *Service) RemoveScreenshot(outerCtx context.Context, user *domain.User, id, screenshotID int64) error {
	const op = "service.RemoveScreenshot"
	defer observe(op)()

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}
		draft, err := s.ensureDraft(ctx, tx, req)
		if err != nil {
			return err
		}

		i := slices.IndexFunc(draft.Screenshots, func(sc domain.Screenshot) bool { return sc.ID == screenshotID })
		if i == -1 {
			return storage.ErrNotFound
		}
		draft.InactiveScreenshots = append(draft.InactiveScreenshots, draft.Screenshots[i])
		draft.Screenshots = slices.Delete(draft.Screenshots, i, i+1)
		return tx.DraftRepo().Save(ctx, draft)
	})
	if err != nil {
		return s.formatError(outerCtx, op, err)
	}

	return nil
}

// RemoveFileAttachment переносит файл черновика в неактивные
func (s *Service) RemoveFileAttachment(outerCtx context.Context, user *domain.User, id, attachmentID int64) error {
	const op = "service.RemoveFileAttachment"
	defer observe(op)()

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}
		draft, err := s.ensureDraft(ctx, tx, req)
		if err != nil {
			return err
		}

		i := slices.IndexFunc(draft.FileAttachments, func(f domain.FileAttachment) bool { return f.ID == attachmentID })
		if i == -1 {
			return storage.ErrNotFound
		}
		draft.InactiveFileAttachments = append(draft.InactiveFileAttachments, draft.FileAttachments[i])
		draft.FileAttachments = slices.Delete(draft.FileAttachments, i, i+1)
		return tx.DraftRepo().Save(ctx, draft)
	})
	if err != nil {
		return s.formatError(outerCtx, op, err)
	}

	return nil
}

// UpdateFromChangeset заполняет черновик из внешнего changeset.
// Запрос во внешнюю систему выполняется вне транзакции.
func (s *Service) UpdateFromChangeset(outerCtx context.Context, user *domain.User, id int64, changeNum int64) (*domain.ReviewRequestDraft, error) {
	const op = "service.UpdateFromChangeset"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)

	if s.changesets == nil {
		return nil, domain.InvalidArgument("changeset source is not configured")
	}

	var repo *domain.Repository
	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}
		if req.RepositoryID == nil {
			return domain.InvalidArgument("review request has no repository")
		}
		repo, err = tx.CodeRepoRepo().GetByID(ctx, *req.RepositoryID)
		return err
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	changeset, err := s.changesets.GetChangeset(outerCtx, repo, changeNum)
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}
	if !changeset.Pending {
		log.Warn().
			Str("request_id", requestID).
			Str("layer", "service").
			Int64("review_request_id", id).
			Int64("changenum", changeNum).
			Msg("changeset is no longer pending")
	}

	var draft *domain.ReviewRequestDraft
	err = s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}
		draft, err = s.ensureDraft(ctx, tx, req)
		if err != nil {
			return err
		}

		// Необязательные поля не затирают введённые пользователем значения
		draft.Summary = changeset.Summary
		draft.Description = changeset.Description
		if changeset.TestingDone != "" {
			draft.TestingDone = changeset.TestingDone
		}
		if changeset.Branch != "" {
			draft.Branch = changeset.Branch
		}
		if len(changeset.BugsClosed) > 0 {
			draft.BugsClosed = strings.Join(changeset.BugsClosed, ",")
		}

		draft.Normalize()
		return tx.DraftRepo().Save(ctx, draft)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return draft, nil
}
