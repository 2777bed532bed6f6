package access_test

import (
	"testing"

	"reviewflow/internal/access"
	"reviewflow/internal/domain"

	"github.com/stretchr/testify/assert"
)

func editor(id int64) *domain.User {
	return &domain.User{
		ID:            id,
		Username:      "editor",
		Authenticated: true,
		Capabilities:  []domain.Capability{domain.CapabilityEditReviewRequest},
	}
}

func plainUser(id int64) *domain.User {
	return &domain.User{ID: id, Username: "user", Authenticated: true}
}

func TestCanView_InviteOnlyGroupMembership(t *testing.T) {
	// Arrange
	checker := access.NewDefaultChecker()
	u := plainUser(2)
	group := domain.Group{ID: 10, Name: "secret", InviteOnly: true}
	req := &domain.ReviewRequest{
		ID:           1,
		SubmitterID:  1,
		Public:       true,
		Status:       domain.StatusPending,
		TargetGroups: []domain.Group{group},
	}
	noGroups := access.ViewContext{SubmitterGroups: func() []domain.Group { return nil }}

	// Act & Assert: не участник invite-only группы
	assert.False(t, checker.CanView(req, u, noGroups))

	// Участник группы видит запрос
	req.TargetGroups[0].MemberIDs = []int64{u.ID}
	assert.True(t, checker.CanView(req, u, noGroups))

	// Непубличный запрос без права редактирования скрыт независимо от членства
	req.Public = false
	assert.False(t, checker.CanView(req, u, noGroups))
}

func TestCanView_NoTargetsVisibleToAnyone(t *testing.T) {
	checker := access.NewDefaultChecker()
	req := &domain.ReviewRequest{ID: 1, SubmitterID: 1, Public: true}

	assert.True(t, checker.CanView(req, plainUser(5), access.ViewContext{}))
	assert.True(t, checker.CanView(req, nil, access.ViewContext{}))
}

func TestCanView_TargetPersonAndSubmitter(t *testing.T) {
	checker := access.NewDefaultChecker()
	req := &domain.ReviewRequest{
		ID:           1,
		SubmitterID:  1,
		Public:       true,
		TargetGroups: []domain.Group{{ID: 10, InviteOnly: true}},
		TargetPeople: []domain.User{{ID: 3}},
	}
	vc := access.ViewContext{}

	assert.True(t, checker.CanView(req, plainUser(3), vc))
	assert.True(t, checker.CanView(req, plainUser(1), vc))
	assert.False(t, checker.CanView(req, plainUser(4), vc))
}

func TestCanView_SubmitterGroupsLoadedLazily(t *testing.T) {
	// Arrange
	checker := access.NewDefaultChecker()
	req := &domain.ReviewRequest{
		ID:           1,
		SubmitterID:  1,
		Public:       true,
		TargetPeople: []domain.User{{ID: 3}},
	}
	calls := 0
	vc := access.ViewContext{
		SubmitterGroups: func() []domain.Group {
			calls++
			return []domain.Group{{ID: 20, Name: "open"}}
		},
	}

	// Act & Assert: цель запроса - дешёвая проверка, группы не грузятся
	assert.True(t, checker.CanView(req, plainUser(3), vc))
	assert.Equal(t, 0, calls)

	// Пользователь видит открытую группу автора
	assert.True(t, checker.CanView(req, plainUser(9), vc))
	assert.Equal(t, 1, calls)
}

func TestCanView_RepositoryAndSite(t *testing.T) {
	checker := access.NewDefaultChecker()
	repoID := int64(7)
	req := &domain.ReviewRequest{ID: 1, SubmitterID: 1, Public: true, RepositoryID: &repoID}
	repo := &domain.Repository{ID: repoID, Public: false, UserIDs: []int64{2}}
	site := &domain.Site{ID: 1, Public: false, UserIDs: []int64{2, 3}}

	assert.True(t, checker.CanView(req, plainUser(2), access.ViewContext{Repository: repo, Site: site}))
	assert.False(t, checker.CanView(req, plainUser(3), access.ViewContext{Repository: repo, Site: site}))

	repo.Public = true
	assert.True(t, checker.CanView(req, plainUser(3), access.ViewContext{Repository: repo, Site: site}))
	assert.False(t, checker.CanView(req, plainUser(4), access.ViewContext{Repository: repo, Site: site}))
}

func TestCanModify_CapabilityOnly(t *testing.T) {
	checker := access.NewDefaultChecker()
	req := &domain.ReviewRequest{ID: 1, SubmitterID: 1}

	// Владелец без capability не может редактировать
	assert.False(t, checker.CanModify(req, plainUser(1)))
	assert.True(t, checker.CanModify(req, editor(2)))
	assert.True(t, checker.CanModify(req, &domain.User{ID: 3, Authenticated: true, Superuser: true}))
	assert.False(t, checker.CanModify(req, nil))
}

func TestCanChangeStatus(t *testing.T) {
	checker := access.NewDefaultChecker()
	req := &domain.ReviewRequest{ID: 1, SubmitterID: 1}
	closer := &domain.User{
		ID:            4,
		Authenticated: true,
		Capabilities:  []domain.Capability{domain.CapabilityChangeStatus},
	}

	assert.True(t, checker.CanChangeStatus(req, closer))
	assert.True(t, checker.CanChangeStatus(req, editor(2)))
	assert.False(t, checker.CanChangeStatus(req, plainUser(1)))
}

func TestCanViewGroup(t *testing.T) {
	checker := access.NewDefaultChecker()
	group := &domain.Group{ID: 1, InviteOnly: true, MemberIDs: []int64{2}}
	privateSite := &domain.Site{ID: 1, UserIDs: []int64{2}}

	assert.True(t, checker.CanViewGroup(group, nil, plainUser(2)))
	assert.False(t, checker.CanViewGroup(group, nil, plainUser(3)))
	assert.True(t, checker.CanViewGroup(group, nil, &domain.User{ID: 3, Authenticated: true, Superuser: true}))
	assert.False(t, checker.CanViewGroup(group, nil, &domain.User{ID: 2}))

	group.InviteOnly = false
	assert.True(t, checker.CanViewGroup(group, nil, nil))
	assert.False(t, checker.CanViewGroup(group, privateSite, plainUser(3)))
}

func TestCanViewReview_ReadyForReviewsGate(t *testing.T) {
	// Arrange
	checker := access.NewDefaultChecker()
	req := &domain.ReviewRequest{ID: 1, SubmitterID: 1}
	shared := domain.Group{ID: 5, ReadyForReviews: true, MemberIDs: []int64{1, 2, 3}}
	notReady := domain.Group{ID: 6, ReadyForReviews: false}

	// Act & Assert
	assert.True(t, checker.CanViewReview(req, []domain.Group{shared}, []domain.Group{shared}, nil, plainUser(2)))
	assert.True(t, checker.CanViewReview(req, nil, nil, nil, plainUser(1)))
	assert.False(t, checker.CanViewReview(req, nil, nil, nil, plainUser(2)))

	// Даже автор review request ничего не видит, если его группа не готова
	assert.False(t, checker.CanViewReview(req, []domain.Group{shared, notReady}, []domain.Group{shared}, nil, plainUser(1)))
}

func TestAccessibleGroups(t *testing.T) {
	checker := access.NewDefaultChecker()
	groups := []domain.Group{
		{ID: 1, InviteOnly: false},
		{ID: 2, InviteOnly: true, MemberIDs: []int64{7}},
		{ID: 3, InviteOnly: true},
	}

	result := checker.AccessibleGroups(groups, nil, plainUser(7))

	assert.Len(t, result, 2)
	assert.Equal(t, int64(1), result[0].ID)
	assert.Equal(t, int64(2), result[1].ID)
}
