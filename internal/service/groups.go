package service

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/domain"
	"reviewflow/internal/logger"
	"reviewflow/internal/reviewers"
	"reviewflow/internal/storage"
)

// canAdminSite - суперпользователь или администратор сайта
func canAdminSite(site *domain.Site, user *domain.User) bool {
	if user == nil || !user.Authenticated {
		return false
	}
	if user.Superuser {
		return true
	}
	return site != nil && slices.Contains(site.AdminIDs, user.ID)
}

// CreateGroup создаёт группу ревьюверов
func (s *Service) CreateGroup(outerCtx context.Context, user *domain.User, input *domain.CreateGroupInput) (*domain.Group, error) {
	const op = "service.CreateGroup"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, s.formatError(outerCtx, op, domain.InvalidArgument("group name is required"))
	}

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Str("group_name", name).
		Bool("invite_only", input.InviteOnly).
		Msg("creating group")

	group := &domain.Group{
		Name:            name,
		DisplayName:     input.DisplayName,
		MailingList:     input.MailingList,
		SiteID:          input.SiteID,
		InviteOnly:      input.InviteOnly,
		Visible:         input.Visible,
		ReadyForReviews: input.ReadyForReviews,
	}
	if group.DisplayName == "" {
		group.DisplayName = name
	}

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		site, err := loadSite(ctx, tx, input.SiteID)
		if err != nil {
			return err
		}
		if !canAdminSite(site, user) {
			return domain.ErrPermissionDenied
		}
		return tx.GroupRepo().Create(ctx, group)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("group_id", group.ID).
		Msg("successfully created group")

	return group, nil
}

// AddGroupMember добавляет пользователя в группу.
// Членство меняет total incoming участника, поэтому его счётчик пересчитывается.
func (s *Service) AddGroupMember(outerCtx context.Context, user *domain.User, groupID, memberID int64) (*domain.Group, error) {
	const op = "service.AddGroupMember"
	defer observe(op)()
	var group *domain.Group

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		g, err := tx.GroupRepo().GetByID(ctx, groupID)
		if err != nil {
			return err
		}
		site, err := loadSite(ctx, tx, g.SiteID)
		if err != nil {
			return err
		}
		if !canAdminSite(site, user) {
			return domain.ErrPermissionDenied
		}

		if err := tx.GroupRepo().AddMember(ctx, groupID, memberID); err != nil {
			return err
		}

		profile, err := tx.ProfileRepo().Ensure(ctx, memberID, g.SiteID)
		if err != nil {
			return err
		}
		if _, err := tx.Counters().Recompute(ctx, storage.CounterProfileTotalIncoming, profile.ID); err != nil {
			return err
		}

		group, err = tx.GroupRepo().GetByID(ctx, groupID)
		return err
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return group, nil
}

// ListGroups возвращает группы сайта, которые пользователь может видеть.
// Скрытые группы показываются только участникам и суперпользователю.
func (s *Service) ListGroups(outerCtx context.Context, user *domain.User, siteID *int64) ([]domain.Group, error) {
	const op = "service.ListGroups"
	defer observe(op)()
	var result []domain.Group

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		site, err := loadSite(ctx, tx, siteID)
		if err != nil {
			return err
		}
		if !s.access.CanViewSite(site, user) {
			return domain.ErrPermissionDenied
		}

		groups, err := tx.GroupRepo().ListBySite(ctx, siteID)
		if err != nil {
			return err
		}

		result = make([]domain.Group, 0, len(groups))
		for _, g := range s.access.AccessibleGroups(groups, site, user) {
			member := user != nil && g.HasMember(user.ID)
			if g.Visible || member || (user != nil && user.Superuser) {
				result = append(result, g)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return result, nil
}

// CreateDefaultReviewer создаёт правило default reviewer
func (s *Service) CreateDefaultReviewer(outerCtx context.Context, user *domain.User, input *domain.CreateDefaultReviewerInput) (*domain.DefaultReviewer, error) {
	const op = "service.CreateDefaultReviewer"
	defer observe(op)()

	if strings.TrimSpace(input.Name) == "" {
		return nil, s.formatError(outerCtx, op, domain.InvalidArgument("rule name is required"))
	}
	if err := reviewers.Validate(input.FileRegex); err != nil {
		return nil, s.formatError(outerCtx, op, domain.InvalidArgument("invalid file regex: %v", err))
	}

	rule := &domain.DefaultReviewer{
		Name:          input.Name,
		FileRegex:     input.FileRegex,
		SiteID:        input.SiteID,
		RepositoryIDs: slices.Clone(input.RepositoryIDs),
		GroupIDs:      slices.Clone(input.GroupIDs),
		PeopleIDs:     slices.Clone(input.PeopleIDs),
	}

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		site, err := loadSite(ctx, tx, input.SiteID)
		if err != nil {
			return err
		}
		if !canAdminSite(site, user) {
			return domain.ErrPermissionDenied
		}

		if len(rule.GroupIDs) > 0 {
			groups, err := tx.GroupRepo().GetByIDs(ctx, rule.GroupIDs)
			if err != nil {
				return err
			}
			if len(groups) != len(rule.GroupIDs) {
				return domain.InvalidArgument("unknown group in %v", rule.GroupIDs)
			}
		}
		if len(rule.PeopleIDs) > 0 {
			people, err := tx.UserRepo().GetByIDs(ctx, rule.PeopleIDs)
			if err != nil {
				return err
			}
			if len(people) != len(rule.PeopleIDs) {
				return domain.InvalidArgument("unknown user in %v", rule.PeopleIDs)
			}
		}

		return tx.DefaultReviewerRepo().Create(ctx, rule)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	return rule, nil
}
