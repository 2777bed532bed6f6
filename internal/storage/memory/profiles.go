package memory

import (
	"context"
	"slices"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type profileRepo struct {
	st *state
}

func (r *profileRepo) Ensure(_ context.Context, userID int64, siteID *int64) (*domain.SiteProfile, error) {
	if p := r.st.profile(userID, siteID); p != nil {
		return clone(p), nil
	}
	if _, ok := r.st.Users[userID]; !ok {
		return nil, storage.ErrNotFound
	}

	p := &domain.SiteProfile{
		ID:     r.st.nextID(),
		UserID: userID,
		SiteID: siteID,
	}
	r.st.Profiles[p.ID] = p

	// Новый профиль начинает с выведенных значений, а не с нуля
	counters := &counterStore{st: r.st}
	for _, counter := range storage.AllCounters {
		if !isProfileCounter(counter) {
			continue
		}
		if _, err := counters.Recompute(context.Background(), counter, p.ID); err != nil {
			return nil, err
		}
	}
	return clone(p), nil
}

func (r *profileRepo) DirectIncomingIDs(_ context.Context, siteID *int64, userIDs []int64) ([]int64, error) {
	return r.ids(siteID, func(p *domain.SiteProfile) bool {
		return slices.Contains(userIDs, p.UserID)
	}), nil
}

func (r *profileRepo) TotalIncomingIDs(_ context.Context, siteID *int64, userIDs, groupIDs []int64) ([]int64, error) {
	return r.ids(siteID, func(p *domain.SiteProfile) bool {
		if slices.Contains(userIDs, p.UserID) {
			return true
		}
		for _, gid := range groupIDs {
			if g, ok := r.st.Groups[gid]; ok && g.HasMember(p.UserID) {
				return true
			}
		}
		return false
	}), nil
}

func (r *profileRepo) StarredIDs(_ context.Context, siteID *int64, requestID int64) ([]int64, error) {
	return r.ids(siteID, func(p *domain.SiteProfile) bool {
		return slices.Contains(p.StarredRequestIDs, requestID)
	}), nil
}

func (r *profileRepo) Star(_ context.Context, profileID, requestID int64) (bool, error) {
	p, ok := r.st.Profiles[profileID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if slices.Contains(p.StarredRequestIDs, requestID) {
		return false, nil
	}
	p.StarredRequestIDs = append(p.StarredRequestIDs, requestID)
	return true, nil
}

func (r *profileRepo) Unstar(_ context.Context, profileID, requestID int64) (bool, error) {
	p, ok := r.st.Profiles[profileID]
	if !ok {
		return false, storage.ErrNotFound
	}
	i := slices.Index(p.StarredRequestIDs, requestID)
	if i == -1 {
		return false, nil
	}
	p.StarredRequestIDs = slices.Delete(p.StarredRequestIDs, i, i+1)
	return true, nil
}

func (r *profileRepo) DeleteStars(_ context.Context, requestID int64) error {
	for _, p := range r.st.Profiles {
		if i := slices.Index(p.StarredRequestIDs, requestID); i != -1 {
			p.StarredRequestIDs = slices.Delete(p.StarredRequestIDs, i, i+1)
		}
	}
	return nil
}

func (r *profileRepo) ids(siteID *int64, keep func(p *domain.SiteProfile) bool) []int64 {
	ids := make([]int64, 0)
	for id, p := range r.st.Profiles {
		if sameRef(p.SiteID, siteID) && keep(p) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (s *state) profile(userID int64, siteID *int64) *domain.SiteProfile {
	for _, p := range s.Profiles {
		if p.UserID == userID && sameRef(p.SiteID, siteID) {
			return p
		}
	}
	return nil
}

func isProfileCounter(counter storage.Counter) bool {
	return counter != storage.CounterGroupIncoming && counter != storage.CounterShipIt
}
