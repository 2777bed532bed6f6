package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/domain"
	"reviewflow/internal/events"
	"reviewflow/internal/logger"
	"reviewflow/internal/storage"
)

// scalarField - текстовое поле, которое публикация переносит из черновика
type scalarField struct {
	name  string
	draft func(d *domain.ReviewRequestDraft) string
	live  func(r *domain.ReviewRequest) string
	set   func(r *domain.ReviewRequest, v string)
}

var scalarFields = []scalarField{
	{
		name:  domain.FieldSummary,
		draft: func(d *domain.ReviewRequestDraft) string { return d.Summary },
		live:  func(r *domain.ReviewRequest) string { return r.Summary },
		set:   func(r *domain.ReviewRequest, v string) { r.Summary = v },
	},
	{
		name:  domain.FieldDescription,
		draft: func(d *domain.ReviewRequestDraft) string { return d.Description },
		live:  func(r *domain.ReviewRequest) string { return r.Description },
		set:   func(r *domain.ReviewRequest, v string) { r.Description = v },
	},
	{
		name:  domain.FieldTestingDone,
		draft: func(d *domain.ReviewRequestDraft) string { return d.TestingDone },
		live:  func(r *domain.ReviewRequest) string { return r.TestingDone },
		set:   func(r *domain.ReviewRequest, v string) { r.TestingDone = v },
	},
	{
		name:  domain.FieldBranch,
		draft: func(d *domain.ReviewRequestDraft) string { return d.Branch },
		live:  func(r *domain.ReviewRequest) string { return r.Branch },
		set:   func(r *domain.ReviewRequest, v string) { r.Branch = v },
	},
}

// relationField - набор связанных объектов, который заменяется целиком
type relationField struct {
	name         string
	displayField string
	draft        func(d *domain.ReviewRequestDraft) []domain.ChangeItem
	live         func(r *domain.ReviewRequest) []domain.ChangeItem
	replace      func(r *domain.ReviewRequest, d *domain.ReviewRequestDraft)
}

var relationFields = []relationField{
	{
		name:         domain.FieldTargetGroups,
		displayField: "name",
		draft:        func(d *domain.ReviewRequestDraft) []domain.ChangeItem { return groupItems(d.TargetGroups) },
		live:         func(r *domain.ReviewRequest) []domain.ChangeItem { return groupItems(r.TargetGroups) },
		replace: func(r *domain.ReviewRequest, d *domain.ReviewRequestDraft) {
			r.TargetGroups = slices.Clone(d.TargetGroups)
		},
	},
	{
		name:         domain.FieldTargetPeople,
		displayField: "username",
		draft:        func(d *domain.ReviewRequestDraft) []domain.ChangeItem { return userItems(d.TargetPeople) },
		live:         func(r *domain.ReviewRequest) []domain.ChangeItem { return userItems(r.TargetPeople) },
		replace: func(r *domain.ReviewRequest, d *domain.ReviewRequestDraft) {
			r.TargetPeople = slices.Clone(d.TargetPeople)
		},
	},
	{
		name:         domain.FieldScreenshots,
		displayField: "caption",
		draft:        func(d *domain.ReviewRequestDraft) []domain.ChangeItem { return screenshotItems(d.Screenshots) },
		live:         func(r *domain.ReviewRequest) []domain.ChangeItem { return screenshotItems(r.Screenshots) },
		replace: func(r *domain.ReviewRequest, d *domain.ReviewRequestDraft) {
			r.Screenshots = slices.Clone(d.Screenshots)
		},
	},
	{
		name:         domain.FieldFiles,
		displayField: "caption",
		draft:        func(d *domain.ReviewRequestDraft) []domain.ChangeItem { return fileItems(d.FileAttachments) },
		live:         func(r *domain.ReviewRequest) []domain.ChangeItem { return fileItems(r.FileAttachments) },
		replace: func(r *domain.ReviewRequest, d *domain.ReviewRequestDraft) {
			r.FileAttachments = slices.Clone(d.FileAttachments)
		},
	},
}

// merge переносит черновик в review request и записывает изменения в cd (если он есть).
// Счётчики не трогает.
func (s *Service) merge(ctx context.Context, tx storage.Tx, req *domain.ReviewRequest, draft *domain.ReviewRequestDraft) (*domain.ChangeDescription, error) {
	cd := draft.ChangeDescription
	if cd == nil && req.Public {
		cd = domain.NewChangeDescription("", false)
	}

	for _, f := range scalarFields {
		newValue := f.draft(draft)
		oldValue := f.live(req)
		if newValue == oldValue {
			continue
		}
		if cd != nil {
			cd.RecordFieldChange(f.name, oldValue, newValue)
		}
		f.set(req, newValue)
	}

	oldBugs := req.BugList()
	newBugs := draft.BugList()
	if !domain.SameBugs(oldBugs, newBugs) {
		if cd != nil {
			cd.RecordListChange(domain.FieldBugsClosed, oldBugs, newBugs)
		}
	}
	req.BugsClosed = draft.BugsClosed

	liveScreenshots := screenshotItems(req.Screenshots)
	liveFiles := fileItems(req.FileAttachments)

	for _, f := range relationFields {
		oldItems := f.live(req)
		newItems := f.draft(draft)
		if sameItems(oldItems, newItems) {
			continue
		}
		if cd != nil {
			cd.RecordRelationChange(f.name, f.displayField, oldItems, newItems)
		}
		f.replace(req, draft)
	}

	// Неактивные вложения заменяются без записи в историю
	req.InactiveScreenshots = slices.Clone(draft.InactiveScreenshots)
	req.InactiveFileAttachments = slices.Clone(draft.InactiveFileAttachments)

	captions := make(map[int64]domain.CaptionChange)
	for i := range req.Screenshots {
		sc := &req.Screenshots[i]
		if !containsItem(liveScreenshots, sc.ID) || sc.Caption == sc.DraftCaption {
			continue
		}
		captions[sc.ID] = domain.CaptionChange{Old: sc.Caption, New: sc.DraftCaption}
		sc.Caption = sc.DraftCaption
		if err := tx.AttachmentRepo().SaveScreenshot(ctx, sc); err != nil {
			return nil, err
		}
	}
	if cd != nil {
		cd.RecordCaptionChanges(domain.FieldScreenshotCaptions, captions)
	}

	captions = make(map[int64]domain.CaptionChange)
	for i := range req.FileAttachments {
		f := &req.FileAttachments[i]
		if !containsItem(liveFiles, f.ID) || f.Caption == f.DraftCaption {
			continue
		}
		captions[f.ID] = domain.CaptionChange{Old: f.Caption, New: f.DraftCaption}
		f.Caption = f.DraftCaption
		if err := tx.AttachmentRepo().SaveFileAttachment(ctx, f); err != nil {
			return nil, err
		}
	}
	if cd != nil {
		cd.RecordCaptionChanges(domain.FieldFileCaptions, captions)
	}

	if draft.DiffSetID != nil {
		diffset, err := tx.DiffRepo().GetDiffSet(ctx, *draft.DiffSetID)
		if err != nil {
			return nil, err
		}
		if cd != nil {
			cd.RecordDiffAdded(domain.ChangeItem{
				ID:   diffset.ID,
				Name: fmt.Sprintf("Diff Revision %d", diffset.Revision),
			})
		}
		if err := tx.DiffRepo().MoveToHistory(ctx, diffset.ID, req.DiffHistoryID); err != nil {
			return nil, err
		}
	}

	return cd, nil
}

// PublishReviewRequest публикует черновик
func (s *Service) PublishReviewRequest(outerCtx context.Context, user *domain.User, id int64) (*domain.PublishResult, error) {
	const op = "service.PublishReviewRequest"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)
	var result *domain.PublishResult

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("review_request_id", id).
		Msg("publishing review request")

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		req, err := s.loadModifiable(ctx, tx, user, id)
		if err != nil {
			return err
		}

		draft, err := tx.DraftRepo().GetByRequestID(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		prev := stateOf(req)
		// Счётчики снимаются со старых целей до того, как цели поменяются
		if err := s.releaseIncoming(ctx, tx, req, prev); err != nil {
			return err
		}

		var cd *domain.ChangeDescription
		if draft != nil {
			cd, err = s.merge(ctx, tx, req, draft)
			if err != nil {
				return err
			}
		}
		req.Public = true

		if err := s.updateCounts(ctx, tx, req, prev); err != nil {
			return err
		}
		if err := tx.ReviewRequestRepo().Save(ctx, req); err != nil {
			return err
		}

		if cd != nil && !cd.HasChanges() && cd.Text == "" {
			cd = nil
		}
		if cd != nil {
			cd.ReviewRequestID = &req.ID
			cd.Finalize(s.now())
			if err := tx.ChangeDescriptionRepo().Save(ctx, cd); err != nil {
				return err
			}
		}

		if draft != nil {
			if err := tx.DraftRepo().Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}

		published, err := tx.ReviewRequestRepo().GetByID(ctx, id)
		if err != nil {
			return err
		}
		result = &domain.PublishResult{ReviewRequest: published, ChangeDescription: cd}
		return nil
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	s.events.Dispatch(outerCtx, events.Event{
		Type:              events.Published,
		ReviewRequest:     result.ReviewRequest,
		User:              user,
		ChangeDescription: result.ChangeDescription,
	})

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("review_request_id", id).
		Bool("change_description", result.ChangeDescription != nil).
		Msg("review request published")

	return result, nil
}

func groupItems(groups []domain.Group) []domain.ChangeItem {
	items := make([]domain.ChangeItem, 0, len(groups))
	for _, g := range groups {
		items = append(items, domain.ChangeItem{ID: g.ID, Name: g.Name})
	}
	return items
}

func userItems(users []domain.User) []domain.ChangeItem {
	items := make([]domain.ChangeItem, 0, len(users))
	for _, u := range users {
		items = append(items, domain.ChangeItem{ID: u.ID, Name: u.Username})
	}
	return items
}

func screenshotItems(screenshots []domain.Screenshot) []domain.ChangeItem {
	items := make([]domain.ChangeItem, 0, len(screenshots))
	for _, sc := range screenshots {
		items = append(items, domain.ChangeItem{ID: sc.ID, Name: sc.Caption})
	}
	return items
}

func fileItems(files []domain.FileAttachment) []domain.ChangeItem {
	items := make([]domain.ChangeItem, 0, len(files))
	for _, f := range files {
		items = append(items, domain.ChangeItem{ID: f.ID, Name: f.Caption})
	}
	return items
}

// sameItems сравнивает наборы по id без учёта порядка
func sameItems(a, b []domain.ChangeItem) bool {
	if len(a) != len(b) {
		return false
	}
	for _, item := range a {
		if !containsItem(b, item.ID) {
			return false
		}
	}
	return true
}

func containsItem(items []domain.ChangeItem, id int64) bool {
	return slices.ContainsFunc(items, func(item domain.ChangeItem) bool { return item.ID == id })
}
