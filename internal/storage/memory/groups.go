package memory

import (
	"context"
	"slices"
	"sort"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type groupRepo struct {
	st *state
}

func (r *groupRepo) Create(_ context.Context, group *domain.Group) error {
	for _, g := range r.st.Groups {
		if g.Name == group.Name && sameRef(g.SiteID, group.SiteID) {
			return storage.ErrAlreadyExists
		}
	}
	group.ID = r.st.nextID()
	group.IncomingRequestCount = 0
	r.st.Groups[group.ID] = clone(group)
	return nil
}

func (r *groupRepo) GetByID(_ context.Context, id int64) (*domain.Group, error) {
	g, ok := r.st.Groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(g), nil
}

func (r *groupRepo) GetByNames(_ context.Context, siteID *int64, names []string) ([]domain.Group, error) {
	result := make([]domain.Group, 0, len(names))
	for _, name := range names {
		found := false
		for _, g := range r.st.Groups {
			if g.Name == name && sameRef(g.SiteID, siteID) {
				result = append(result, *clone(g))
				found = true
				break
			}
		}
		if !found {
			return nil, storage.ErrNotFound
		}
	}
	return result, nil
}

func (r *groupRepo) GetByIDs(_ context.Context, ids []int64) ([]domain.Group, error) {
	return r.st.groups(ids), nil
}

func (r *groupRepo) ListBySite(_ context.Context, siteID *int64) ([]domain.Group, error) {
	return r.filter(func(g *domain.Group) bool {
		return sameRef(g.SiteID, siteID)
	}), nil
}

func (r *groupRepo) ListByMember(_ context.Context, siteID *int64, userID int64) ([]domain.Group, error) {
	return r.filter(func(g *domain.Group) bool {
		return sameRef(g.SiteID, siteID) && g.HasMember(userID)
	}), nil
}

func (r *groupRepo) AddMember(_ context.Context, groupID, userID int64) error {
	g, ok := r.st.Groups[groupID]
	if !ok {
		return storage.ErrNotFound
	}
	if _, ok := r.st.Users[userID]; !ok {
		return storage.ErrNotFound
	}
	if !g.HasMember(userID) {
		g.MemberIDs = append(g.MemberIDs, userID)
	}
	return nil
}

func (r *groupRepo) filter(keep func(g *domain.Group) bool) []domain.Group {
	result := make([]domain.Group, 0)
	for _, g := range r.st.Groups {
		if keep(g) {
			result = append(result, *clone(g))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

type userRepo struct {
	st *state
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.st.Users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(u), nil
}

func (r *userRepo) GetByUsernames(_ context.Context, usernames []string) ([]domain.User, error) {
	result := make([]domain.User, 0, len(usernames))
	for _, name := range usernames {
		found := false
		for _, u := range r.st.Users {
			if u.Username == name {
				result = append(result, *clone(u))
				found = true
				break
			}
		}
		if !found {
			return nil, storage.ErrNotFound
		}
	}
	return result, nil
}

func (r *userRepo) GetByIDs(_ context.Context, ids []int64) ([]domain.User, error) {
	return r.st.users(ids), nil
}

func (r *userRepo) Upsert(_ context.Context, user *domain.User) error {
	for id, u := range r.st.Users {
		if id != user.ID && u.Username == user.Username {
			return storage.ErrAlreadyExists
		}
	}
	if user.ID == 0 {
		user.ID = r.st.nextID()
	} else if user.ID > r.st.Seq {
		r.st.Seq = user.ID
	}
	// Права и флаги приходят из токена и не хранятся
	r.st.Users[user.ID] = &domain.User{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	return nil
}

type siteRepo struct {
	st *state
}

func (r *siteRepo) GetByID(_ context.Context, id int64) (*domain.Site, error) {
	s, ok := r.st.Sites[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(s), nil
}

type codeRepoRepo struct {
	st *state
}

func (r *codeRepoRepo) GetByID(_ context.Context, id int64) (*domain.Repository, error) {
	row, ok := r.st.Repositories[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	repo := clone(&row.Repository)
	repo.Groups = r.st.groups(row.GroupIDs)
	repo.UserIDs = slices.Clone(row.Repository.UserIDs)
	return repo, nil
}
