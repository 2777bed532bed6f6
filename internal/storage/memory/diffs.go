package memory

import (
	"context"
	"sort"
	"time"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type diffRepo struct {
	st *state
}

func (r *diffRepo) CreateHistory(_ context.Context) (int64, error) {
	id := r.st.nextID()
	r.st.Histories[id] = true
	return id, nil
}

func (r *diffRepo) CreateDiffSet(_ context.Context, ds *domain.DiffSet) error {
	ds.ID = r.st.nextID()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}
	for i := range ds.Files {
		ds.Files[i].ID = r.st.nextID()
		ds.Files[i].DiffSetID = ds.ID
	}
	r.st.DiffSets[ds.ID] = clone(ds)
	return nil
}

func (r *diffRepo) GetDiffSet(_ context.Context, id int64) (*domain.DiffSet, error) {
	ds, ok := r.st.DiffSets[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(ds), nil
}

func (r *diffRepo) CountInHistory(_ context.Context, historyID int64) (int, error) {
	count := 0
	for _, ds := range r.st.DiffSets {
		if ds.HistoryID != nil && *ds.HistoryID == historyID {
			count++
		}
	}
	return count, nil
}

func (r *diffRepo) MoveToHistory(_ context.Context, diffSetID, historyID int64) error {
	ds, ok := r.st.DiffSets[diffSetID]
	if !ok {
		return storage.ErrNotFound
	}
	if !r.st.Histories[historyID] {
		return storage.ErrNotFound
	}
	ds.HistoryID = &historyID
	return nil
}

type attachmentRepo struct {
	st *state
}

func (r *attachmentRepo) CreateScreenshot(_ context.Context, s *domain.Screenshot) error {
	s.ID = r.st.nextID()
	r.st.Screenshots[s.ID] = clone(s)
	return nil
}

func (r *attachmentRepo) SaveScreenshot(_ context.Context, s *domain.Screenshot) error {
	if _, ok := r.st.Screenshots[s.ID]; !ok {
		return storage.ErrNotFound
	}
	r.st.Screenshots[s.ID] = clone(s)
	return nil
}

func (r *attachmentRepo) CreateFileAttachment(_ context.Context, f *domain.FileAttachment) error {
	f.ID = r.st.nextID()
	r.st.Files[f.ID] = clone(f)
	return nil
}

func (r *attachmentRepo) SaveFileAttachment(_ context.Context, f *domain.FileAttachment) error {
	if _, ok := r.st.Files[f.ID]; !ok {
		return storage.ErrNotFound
	}
	r.st.Files[f.ID] = clone(f)
	return nil
}

type defaultReviewerRepo struct {
	st *state
}

func (r *defaultReviewerRepo) Create(_ context.Context, rule *domain.DefaultReviewer) error {
	rule.ID = r.st.nextID()
	r.st.Rules[rule.ID] = clone(rule)
	return nil
}

func (r *defaultReviewerRepo) ListBySite(_ context.Context, siteID *int64) ([]domain.DefaultReviewer, error) {
	rules := make([]domain.DefaultReviewer, 0)
	for _, rule := range r.st.Rules {
		if sameRef(rule.SiteID, siteID) {
			rules = append(rules, *clone(rule))
		}
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ID < rules[j].ID
	})
	return rules, nil
}
