package service

import (
	"context"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

// countState - то, что счётчики "знают" о review request на момент последнего сохранения
type countState struct {
	status  domain.ReviewRequestStatus
	counted bool // учтён ли запрос во входящих счётчиках
}

func stateOf(req *domain.ReviewRequest) *countState {
	return &countState{
		status:  req.Status,
		counted: req.CountsIncoming(),
	}
}

// updateCounts приводит счётчики в соответствие с сохранённым состоянием req.
// prev == nil означает первое сохранение.
//
// Входящие счётчики учитывают только публичные запросы в статусе pending;
// если prev.counted уже сброшен (decrementIncoming перед публикацией),
// повторного уменьшения не будет.
func (s *Service) updateCounts(ctx context.Context, tx storage.Tx, req *domain.ReviewRequest, prev *countState) error {
	profile, err := tx.ProfileRepo().Ensure(ctx, req.SubmitterID, req.SiteID)
	if err != nil {
		return err
	}
	counters := tx.Counters()
	self := []int64{profile.ID}

	var prevStatus domain.ReviewRequestStatus
	wasCounted := false
	if prev == nil {
		if err := counters.Increment(ctx, storage.CounterProfileTotalOutgoing, self); err != nil {
			return err
		}
	} else {
		prevStatus = prev.status
		wasCounted = prev.counted
	}

	if req.Status != prevStatus {
		switch {
		case req.Status == domain.StatusPending:
			err = counters.Increment(ctx, storage.CounterProfilePendingOutgoing, self)
		case prevStatus == domain.StatusPending:
			err = counters.Decrement(ctx, storage.CounterProfilePendingOutgoing, self)
		}
		if err != nil {
			return err
		}
	}

	nowCounted := req.CountsIncoming()
	switch {
	case nowCounted && !wasCounted:
		return s.adjustIncoming(ctx, tx, req, counters.Increment)
	case !nowCounted && wasCounted:
		return s.adjustIncoming(ctx, tx, req, counters.Decrement)
	}
	return nil
}

// releaseIncoming снимает вклад запроса во входящие счётчики с текущими целями
func (s *Service) releaseIncoming(ctx context.Context, tx storage.Tx, req *domain.ReviewRequest, prev *countState) error {
	if !prev.counted {
		return nil
	}
	if err := s.adjustIncoming(ctx, tx, req, tx.Counters().Decrement); err != nil {
		return err
	}
	prev.counted = false
	return nil
}

type counterOp func(ctx context.Context, counter storage.Counter, ids []int64) error

// adjustIncoming применяет op ко всем входящим счётчикам целей запроса
func (s *Service) adjustIncoming(ctx context.Context, tx storage.Tx, req *domain.ReviewRequest, op counterOp) error {
	groupIDs := req.TargetGroupIDs()
	peopleIDs := req.TargetPeopleIDs()
	profiles := tx.ProfileRepo()

	if err := op(ctx, storage.CounterGroupIncoming, groupIDs); err != nil {
		return err
	}

	direct, err := profiles.DirectIncomingIDs(ctx, req.SiteID, peopleIDs)
	if err != nil {
		return err
	}
	if err := op(ctx, storage.CounterProfileDirectIncoming, direct); err != nil {
		return err
	}

	total, err := profiles.TotalIncomingIDs(ctx, req.SiteID, peopleIDs, groupIDs)
	if err != nil {
		return err
	}
	if err := op(ctx, storage.CounterProfileTotalIncoming, total); err != nil {
		return err
	}

	starred, err := profiles.StarredIDs(ctx, req.SiteID, req.ID)
	if err != nil {
		return err
	}
	return op(ctx, storage.CounterProfileStarredPublic, starred)
}
