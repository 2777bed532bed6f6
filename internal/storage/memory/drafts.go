package memory

import (
	"context"
	"sort"
	"time"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type draftRepo struct {
	st *state
}

func (r *draftRepo) GetByRequestID(_ context.Context, requestID int64) (*domain.ReviewRequestDraft, error) {
	row, ok := r.st.Drafts[requestID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.hydrate(row), nil
}

func (r *draftRepo) CreateIfAbsent(_ context.Context, draft *domain.ReviewRequestDraft) (*domain.ReviewRequestDraft, bool, error) {
	if row, ok := r.st.Drafts[draft.ReviewRequestID]; ok {
		return r.hydrate(row), false, nil
	}
	if _, ok := r.st.Requests[draft.ReviewRequestID]; !ok {
		return nil, false, storage.ErrNotFound
	}

	draft.ID = r.st.nextID()
	draft.UpdatedAt = time.Now().UTC()
	r.saveChangeDescription(draft)
	r.st.Drafts[draft.ReviewRequestID] = draftRowFrom(draft)

	return r.hydrate(r.st.Drafts[draft.ReviewRequestID]), true, nil
}

func (r *draftRepo) Save(_ context.Context, draft *domain.ReviewRequestDraft) error {
	current, ok := r.st.Drafts[draft.ReviewRequestID]
	if !ok {
		return storage.ErrNotFound
	}
	draft.ID = current.Draft.ID
	draft.UpdatedAt = time.Now().UTC()

	if draft.ChangeDescription == nil && current.ChangeDescriptionID != nil {
		delete(r.st.ChangeDescriptions, *current.ChangeDescriptionID)
	}
	r.saveChangeDescription(draft)
	r.st.Drafts[draft.ReviewRequestID] = draftRowFrom(draft)
	return nil
}

func (r *draftRepo) Delete(_ context.Context, requestID int64) error {
	row, ok := r.st.Drafts[requestID]
	if !ok {
		return storage.ErrNotFound
	}
	// Неопубликованная запись истории живёт вместе с черновиком
	if row.ChangeDescriptionID != nil {
		if cd, ok := r.st.ChangeDescriptions[*row.ChangeDescriptionID]; ok && cd.ReviewRequestID == nil {
			delete(r.st.ChangeDescriptions, cd.ID)
		}
	}
	delete(r.st.Drafts, requestID)
	return nil
}

func (r *draftRepo) saveChangeDescription(draft *domain.ReviewRequestDraft) {
	if draft.ChangeDescription == nil {
		return
	}
	if draft.ChangeDescription.ID == 0 {
		draft.ChangeDescription.ID = r.st.nextID()
	}
	r.st.ChangeDescriptions[draft.ChangeDescription.ID] = clone(draft.ChangeDescription)
}

func draftRowFrom(draft *domain.ReviewRequestDraft) *draftRow {
	row := &draftRow{
		Draft:                 *clone(draft),
		GroupIDs:              groupIDs(draft.TargetGroups),
		PeopleIDs:             userIDs(draft.TargetPeople),
		ScreenshotIDs:         screenshotIDs(draft.Screenshots),
		InactiveScreenshotIDs: screenshotIDs(draft.InactiveScreenshots),
		FileIDs:               fileIDs(draft.FileAttachments),
		InactiveFileIDs:       fileIDs(draft.InactiveFileAttachments),
	}
	if draft.ChangeDescription != nil {
		id := draft.ChangeDescription.ID
		row.ChangeDescriptionID = &id
	}
	row.Draft.ChangeDescription = nil
	row.Draft.TargetGroups = nil
	row.Draft.TargetPeople = nil
	row.Draft.Screenshots = nil
	row.Draft.InactiveScreenshots = nil
	row.Draft.FileAttachments = nil
	row.Draft.InactiveFileAttachments = nil
	return row
}

func (r *draftRepo) hydrate(row *draftRow) *domain.ReviewRequestDraft {
	d := clone(&row.Draft)
	d.TargetGroups = r.st.groups(row.GroupIDs)
	d.TargetPeople = r.st.users(row.PeopleIDs)
	d.Screenshots = r.st.screenshots(row.ScreenshotIDs)
	d.InactiveScreenshots = r.st.screenshots(row.InactiveScreenshotIDs)
	d.FileAttachments = r.st.files(row.FileIDs)
	d.InactiveFileAttachments = r.st.files(row.InactiveFileIDs)
	if row.ChangeDescriptionID != nil {
		d.ChangeDescription = clone(r.st.ChangeDescriptions[*row.ChangeDescriptionID])
	}
	return d
}

type changeDescRepo struct {
	st *state
}

func (r *changeDescRepo) Save(_ context.Context, cd *domain.ChangeDescription) error {
	if cd.ID == 0 {
		cd.ID = r.st.nextID()
	}
	r.st.ChangeDescriptions[cd.ID] = clone(cd)
	return nil
}

func (r *changeDescRepo) LatestPublic(_ context.Context, requestID int64) (*domain.ChangeDescription, error) {
	var history []*domain.ChangeDescription
	for _, cd := range r.st.ChangeDescriptions {
		if cd.Public && cd.ReviewRequestID != nil && *cd.ReviewRequestID == requestID {
			history = append(history, cd)
		}
	}
	if len(history) == 0 {
		return nil, storage.ErrNotFound
	}
	sort.Slice(history, func(i, j int) bool {
		if history[i].Timestamp.Equal(history[j].Timestamp) {
			return history[i].ID < history[j].ID
		}
		return history[i].Timestamp.Before(history[j].Timestamp)
	})
	return clone(history[len(history)-1]), nil
}

func (r *changeDescRepo) DeleteByRequest(_ context.Context, requestID int64) error {
	for id, cd := range r.st.ChangeDescriptions {
		if cd.ReviewRequestID != nil && *cd.ReviewRequestID == requestID {
			delete(r.st.ChangeDescriptions, id)
		}
	}
	return nil
}
