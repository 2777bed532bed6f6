package memory

import (
	"context"
	"fmt"
	"slices"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type counterStore struct {
	st *state
}

func (c *counterStore) Increment(_ context.Context, counter storage.Counter, ids []int64) error {
	return c.add(counter, ids, 1)
}

func (c *counterStore) Decrement(_ context.Context, counter storage.Counter, ids []int64) error {
	return c.add(counter, ids, -1)
}

func (c *counterStore) add(counter storage.Counter, ids []int64, delta int64) error {
	for _, id := range ids {
		field, err := c.field(counter, id)
		if err != nil {
			return err
		}
		if field != nil {
			*field += delta
		}
	}
	return nil
}

func (c *counterStore) Get(_ context.Context, counter storage.Counter, id int64) (int64, error) {
	field, err := c.field(counter, id)
	if err != nil {
		return 0, err
	}
	if field == nil {
		return 0, storage.ErrNotFound
	}
	return *field, nil
}

func (c *counterStore) Recompute(_ context.Context, counter storage.Counter, id int64) (int64, error) {
	field, err := c.field(counter, id)
	if err != nil {
		return 0, err
	}
	if field == nil {
		return 0, storage.ErrNotFound
	}

	value := c.derive(counter, id)
	*field = value
	return value, nil
}

func (c *counterStore) IDs(_ context.Context, counter storage.Counter) ([]int64, error) {
	var ids []int64
	switch counter {
	case storage.CounterGroupIncoming:
		for id := range c.st.Groups {
			ids = append(ids, id)
		}
	case storage.CounterShipIt:
		for id := range c.st.Requests {
			ids = append(ids, id)
		}
	case storage.CounterProfileDirectIncoming, storage.CounterProfileTotalIncoming,
		storage.CounterProfilePendingOutgoing, storage.CounterProfileTotalOutgoing,
		storage.CounterProfileStarredPublic:
		for id := range c.st.Profiles {
			ids = append(ids, id)
		}
	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownCounter, counter)
	}
	slices.Sort(ids)
	return ids, nil
}

// field возвращает указатель на хранимое значение счётчика; nil, если строки нет
func (c *counterStore) field(counter storage.Counter, id int64) (*int64, error) {
	switch counter {
	case storage.CounterGroupIncoming:
		if g, ok := c.st.Groups[id]; ok {
			return &g.IncomingRequestCount, nil
		}
		return nil, nil
	case storage.CounterShipIt:
		if row, ok := c.st.Requests[id]; ok {
			return &row.Request.ShipItCount, nil
		}
		return nil, nil
	}

	p, ok := c.st.Profiles[id]
	switch counter {
	case storage.CounterProfileDirectIncoming:
		if ok {
			return &p.DirectIncoming, nil
		}
	case storage.CounterProfileTotalIncoming:
		if ok {
			return &p.TotalIncoming, nil
		}
	case storage.CounterProfilePendingOutgoing:
		if ok {
			return &p.PendingOutgoing, nil
		}
	case storage.CounterProfileTotalOutgoing:
		if ok {
			return &p.TotalOutgoing, nil
		}
	case storage.CounterProfileStarredPublic:
		if ok {
			return &p.StarredPublic, nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownCounter, counter)
	}
	return nil, nil
}

// derive считает значение счётчика по связям. Входящие учитывают только
// публичные review requests в статусе pending.
func (c *counterStore) derive(counter storage.Counter, id int64) int64 {
	var count int64

	if counter == storage.CounterShipIt {
		for _, review := range c.st.Reviews {
			if review.ReviewRequestID == id && review.Public && review.ShipIt && !review.IsReply() {
				count++
			}
		}
		return count
	}

	if counter == storage.CounterGroupIncoming {
		for _, row := range c.st.Requests {
			if row.Request.CountsIncoming() && slices.Contains(row.GroupIDs, id) {
				count++
			}
		}
		return count
	}

	p := c.st.Profiles[id]
	for reqID, row := range c.st.Requests {
		req := &row.Request
		if !sameRef(req.SiteID, p.SiteID) {
			continue
		}
		switch counter {
		case storage.CounterProfileDirectIncoming:
			if req.CountsIncoming() && slices.Contains(row.PeopleIDs, p.UserID) {
				count++
			}
		case storage.CounterProfileTotalIncoming:
			if req.CountsIncoming() && c.targets(row, p.UserID) {
				count++
			}
		case storage.CounterProfilePendingOutgoing:
			if req.SubmitterID == p.UserID && req.Status == domain.StatusPending {
				count++
			}
		case storage.CounterProfileTotalOutgoing:
			if req.SubmitterID == p.UserID {
				count++
			}
		case storage.CounterProfileStarredPublic:
			if req.CountsIncoming() && slices.Contains(p.StarredRequestIDs, reqID) {
				count++
			}
		}
	}
	return count
}

func (c *counterStore) targets(row *requestRow, userID int64) bool {
	if slices.Contains(row.PeopleIDs, userID) {
		return true
	}
	for _, gid := range row.GroupIDs {
		if g, ok := c.st.Groups[gid]; ok && g.HasMember(userID) {
			return true
		}
	}
	return false
}
