// Package access отвечает на вопрос "может ли пользователь видеть или менять сущность".
// Все проверки - чистые функции над уже загруженными данными.
package access

import (
	"slices"

	"reviewflow/internal/domain"
)

// Identity - провайдер идентификации и прав
type Identity interface {
	HasCapability(user *domain.User, capability domain.Capability) bool
	IsAuthenticated(user *domain.User) bool
	IsSuperuser(user *domain.User) bool
}

// SiteScope - провайдер мультитенантности. Nil site всегда доступен.
type SiteScope interface {
	IsAccessible(site *domain.Site, user *domain.User) bool
}

// Checker вычисляет права доступа
type Checker struct {
	identity Identity
	sites    SiteScope
}

// NewChecker создаёт Checker с переданными провайдерами
func NewChecker(identity Identity, sites SiteScope) *Checker {
	return &Checker{
		identity: identity,
		sites:    sites,
	}
}

// NewDefaultChecker создаёт Checker, который берёт права из domain.User
func NewDefaultChecker() *Checker {
	return NewChecker(ClaimsIdentity{}, MemberSiteScope{})
}

// CanModify - только capability "edit review request". Владение не даёт прав.
func (c *Checker) CanModify(_ *domain.ReviewRequest, user *domain.User) bool {
	return c.identity.HasCapability(user, domain.CapabilityEditReviewRequest)
}

// CanChangeStatus - право закрывать и переоткрывать
func (c *Checker) CanChangeStatus(req *domain.ReviewRequest, user *domain.User) bool {
	return c.CanModify(req, user) ||
		c.identity.HasCapability(user, domain.CapabilityChangeStatus)
}

// CanSubmitAs - право создавать review request от имени другого пользователя
func (c *Checker) CanSubmitAs(user *domain.User) bool {
	return c.identity.HasCapability(user, domain.CapabilitySubmitAsAnotherUser)
}

// CanViewSite проверяет доступ к сайту
func (c *Checker) CanViewSite(site *domain.Site, user *domain.User) bool {
	if site == nil {
		return true
	}
	return c.sites.IsAccessible(site, user)
}

// CanViewRepository проверяет доступ к репозиторию
func (c *Checker) CanViewRepository(repo *domain.Repository, site *domain.Site, user *domain.User) bool {
	if repo == nil {
		return true
	}
	if !c.CanViewSite(site, user) {
		return false
	}
	if repo.Public || c.identity.IsSuperuser(user) {
		return true
	}
	if !c.identity.IsAuthenticated(user) {
		return false
	}
	if slices.Contains(repo.UserIDs, user.ID) {
		return true
	}
	for i := range repo.Groups {
		if repo.Groups[i].HasMember(user.ID) {
			return true
		}
	}
	return false
}

// CanViewGroup проверяет доступ к группе
func (c *Checker) CanViewGroup(group *domain.Group, site *domain.Site, user *domain.User) bool {
	if !c.CanViewSite(site, user) {
		return false
	}
	if !group.InviteOnly || c.identity.IsSuperuser(user) {
		return true
	}
	return c.identity.IsAuthenticated(user) && group.HasMember(user.ID)
}

// ViewContext - данные, нужные CanView помимо самого review request
type ViewContext struct {
	Site       *domain.Site
	Repository *domain.Repository
	// SubmitterGroups загружает группы сайта, доступные автору (AccessibleGroups).
	// Вызывается только если более дешёвые проверки не сработали.
	SubmitterGroups func() []domain.Group
}

// CanView проверяет видимость review request
func (c *Checker) CanView(req *domain.ReviewRequest, user *domain.User, vc ViewContext) bool {
	if !req.Public && !c.CanModify(req, user) {
		return false
	}
	if req.RepositoryID != nil && !c.CanViewRepository(vc.Repository, vc.Site, user) {
		return false
	}
	if !c.CanViewSite(vc.Site, user) {
		return false
	}

	if c.identity.IsAuthenticated(user) && req.HasTargetPerson(user.ID) {
		return true
	}
	if len(req.TargetGroups) == 0 && len(req.TargetPeople) == 0 {
		return true
	}
	if user != nil && req.SubmitterID == user.ID {
		return true
	}

	for i := range req.TargetGroups {
		if c.CanViewGroup(&req.TargetGroups[i], vc.Site, user) {
			return true
		}
	}

	if vc.SubmitterGroups != nil {
		for _, g := range vc.SubmitterGroups() {
			if c.CanViewGroup(&g, vc.Site, user) {
				return true
			}
		}
	}

	return false
}

// CanViewReview проверяет видимость ревью.
// viewerGroups и authorGroups - группы сайта, доступные зрителю и автору ревью
// (см. AccessibleGroups). Политика намеренно отличается от CanView: если хоть
// одна доступная зрителю группа не готова к ревью, ревью скрыты.
func (c *Checker) CanViewReview(req *domain.ReviewRequest, viewerGroups, authorGroups []domain.Group, site *domain.Site, user *domain.User) bool {
	for _, g := range viewerGroups {
		if !g.ReadyForReviews {
			return false
		}
	}

	if user != nil && req.SubmitterID == user.ID {
		return true
	}

	for i := range authorGroups {
		if c.CanViewGroup(&authorGroups[i], site, user) {
			return true
		}
	}

	return false
}

// AccessibleGroups оставляет группы, доступные пользователю
func (c *Checker) AccessibleGroups(groups []domain.Group, site *domain.Site, user *domain.User) []domain.Group {
	result := make([]domain.Group, 0, len(groups))
	for i := range groups {
		if c.CanViewGroup(&groups[i], site, user) {
			result = append(result, groups[i])
		}
	}
	return result
}

// ClaimsIdentity читает права прямо из domain.User, который собирает middleware аутентификации
type ClaimsIdentity struct{}

// HasCapability реализует Identity. Суперпользователь имеет все права.
func (ClaimsIdentity) HasCapability(user *domain.User, capability domain.Capability) bool {
	if user == nil || !user.Authenticated {
		return false
	}
	if user.Superuser {
		return true
	}
	return slices.Contains(user.Capabilities, capability)
}

// IsAuthenticated реализует Identity
func (ClaimsIdentity) IsAuthenticated(user *domain.User) bool {
	return user != nil && user.Authenticated
}

// IsSuperuser реализует Identity
func (ClaimsIdentity) IsSuperuser(user *domain.User) bool {
	return user != nil && user.Authenticated && user.Superuser
}

// MemberSiteScope: сайт доступен, если он публичный, пользователь - участник,
// администратор сайта или суперпользователь
type MemberSiteScope struct{}

// IsAccessible реализует SiteScope
func (MemberSiteScope) IsAccessible(site *domain.Site, user *domain.User) bool {
	if site == nil || site.Public {
		return true
	}
	if user == nil || !user.Authenticated {
		return false
	}
	return user.Superuser ||
		slices.Contains(site.UserIDs, user.ID) ||
		slices.Contains(site.AdminIDs, user.ID)
}
