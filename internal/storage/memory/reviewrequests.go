package memory

import (
	"context"
	"sort"
	"time"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type reviewRequestRepo struct {
	st *state
}

func (r *reviewRequestRepo) Create(_ context.Context, rr *domain.ReviewRequest) error {
	for _, row := range r.st.Requests {
		if conflicts(rr, &row.Request) {
			return storage.ErrConflict
		}
	}

	now := time.Now().UTC()
	rr.ID = r.st.nextID()
	if rr.CreatedAt.IsZero() {
		rr.CreatedAt = now
	}
	rr.UpdatedAt = now

	r.st.Requests[rr.ID] = requestRowFrom(rr)
	return nil
}

func (r *reviewRequestRepo) GetByID(_ context.Context, id int64) (*domain.ReviewRequest, error) {
	row, ok := r.st.Requests[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.hydrate(row), nil
}

func (r *reviewRequestRepo) Save(_ context.Context, rr *domain.ReviewRequest) error {
	current, ok := r.st.Requests[rr.ID]
	if !ok {
		return storage.ErrNotFound
	}

	for id, row := range r.st.Requests {
		if id == rr.ID {
			continue
		}
		if conflicts(rr, &row.Request) {
			return storage.ErrConflict
		}
	}

	row := requestRowFrom(rr)
	// Счётчики меняются только через CounterStore
	row.Request.ShipItCount = current.Request.ShipItCount
	row.Request.UpdatedAt = time.Now().UTC()
	rr.UpdatedAt = row.Request.UpdatedAt
	rr.ShipItCount = current.Request.ShipItCount

	r.st.Requests[rr.ID] = row
	return nil
}

func (r *reviewRequestRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.st.Requests[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.st.Requests, id)
	delete(r.st.Drafts, id)
	return nil
}

func (r *reviewRequestRepo) NextLocalID(_ context.Context, siteID int64) (int64, error) {
	var maxID int64
	for _, row := range r.st.Requests {
		req := row.Request
		if req.SiteID != nil && *req.SiteID == siteID && req.LocalID != nil && *req.LocalID > maxID {
			maxID = *req.LocalID
		}
	}
	return maxID + 1, nil
}

// conflicts повторяет уникальные индексы (changenum, repository) и (site, local_id).
// NULL не участвует в уникальности, как в PostgreSQL.
func conflicts(a, b *domain.ReviewRequest) bool {
	if bothSet(a.ChangeNum, b.ChangeNum) && bothSet(a.RepositoryID, b.RepositoryID) &&
		*a.ChangeNum == *b.ChangeNum && *a.RepositoryID == *b.RepositoryID {
		return true
	}
	return bothSet(a.LocalID, b.LocalID) && bothSet(a.SiteID, b.SiteID) &&
		*a.LocalID == *b.LocalID && *a.SiteID == *b.SiteID
}

func bothSet(a, b *int64) bool {
	return a != nil && b != nil
}

func requestRowFrom(rr *domain.ReviewRequest) *requestRow {
	row := &requestRow{
		Request:               *clone(rr),
		GroupIDs:              groupIDs(rr.TargetGroups),
		PeopleIDs:             userIDs(rr.TargetPeople),
		ScreenshotIDs:         screenshotIDs(rr.Screenshots),
		InactiveScreenshotIDs: screenshotIDs(rr.InactiveScreenshots),
		FileIDs:               fileIDs(rr.FileAttachments),
		InactiveFileIDs:       fileIDs(rr.InactiveFileAttachments),
	}
	row.Request.TargetGroups = nil
	row.Request.TargetPeople = nil
	row.Request.Screenshots = nil
	row.Request.InactiveScreenshots = nil
	row.Request.FileAttachments = nil
	row.Request.InactiveFileAttachments = nil
	row.Request.ChangeDescriptions = nil
	return row
}

func (r *reviewRequestRepo) hydrate(row *requestRow) *domain.ReviewRequest {
	rr := clone(&row.Request)
	rr.TargetGroups = r.st.groups(row.GroupIDs)
	rr.TargetPeople = r.st.users(row.PeopleIDs)
	rr.Screenshots = r.st.screenshots(row.ScreenshotIDs)
	rr.InactiveScreenshots = r.st.screenshots(row.InactiveScreenshotIDs)
	rr.FileAttachments = r.st.files(row.FileIDs)
	rr.InactiveFileAttachments = r.st.files(row.InactiveFileIDs)

	history := make([]domain.ChangeDescription, 0)
	for _, cd := range r.st.ChangeDescriptions {
		if cd.ReviewRequestID != nil && *cd.ReviewRequestID == rr.ID {
			history = append(history, *clone(cd))
		}
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].ID < history[j].ID
	})
	rr.ChangeDescriptions = history

	return rr
}

func (s *state) groups(ids []int64) []domain.Group {
	result := make([]domain.Group, 0, len(ids))
	for _, id := range ids {
		if g, ok := s.Groups[id]; ok {
			result = append(result, *clone(g))
		}
	}
	return result
}

func (s *state) users(ids []int64) []domain.User {
	result := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.Users[id]; ok {
			result = append(result, *clone(u))
		}
	}
	return result
}

func (s *state) screenshots(ids []int64) []domain.Screenshot {
	result := make([]domain.Screenshot, 0, len(ids))
	for _, id := range ids {
		if sc, ok := s.Screenshots[id]; ok {
			result = append(result, *sc)
		}
	}
	return result
}

func (s *state) files(ids []int64) []domain.FileAttachment {
	result := make([]domain.FileAttachment, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.Files[id]; ok {
			result = append(result, *f)
		}
	}
	return result
}

func groupIDs(groups []domain.Group) []int64 {
	ids := make([]int64, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return ids
}

func userIDs(users []domain.User) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func screenshotIDs(items []domain.Screenshot) []int64 {
	ids := make([]int64, 0, len(items))
	for _, s := range items {
		ids = append(ids, s.ID)
	}
	return ids
}

func fileIDs(items []domain.FileAttachment) []int64 {
	ids := make([]int64, 0, len(items))
	for _, f := range items {
		ids = append(ids, f.ID)
	}
	return ids
}
