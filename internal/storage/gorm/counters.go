package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"reviewflow/internal/storage"
)

// counterStore хранит счётчики в колонках строк. Increment и Decrement -
// один UPDATE col = col + delta, поэтому параллельные транзакции не теряют изменения.
type counterStore struct {
	db *gorm.DB
}

// NewCounterStore создаёт хранилище счётчиков
func NewCounterStore(db *gorm.DB) storage.CounterStore {
	return &counterStore{db: db}
}

// incomingPending - условие "учитывается во входящих" для review_requests rr
const incomingPending = "rr.public AND rr.status = 'P'"

// counterDerivations - SQL, выводящий значение счётчика из связей. Параметр - id владельца.
var counterDerivations = map[storage.Counter]string{
	storage.CounterGroupIncoming: `
		SELECT COUNT(*) FROM review_requests rr
		JOIN review_request_target_groups tg ON tg.review_request_id = rr.id
		WHERE tg.group_id = ? AND ` + incomingPending,

	storage.CounterShipIt: `
		SELECT COUNT(*) FROM reviews
		WHERE review_request_id = ? AND public AND ship_it AND base_reply_to_id IS NULL`,

	storage.CounterProfileDirectIncoming: `
		SELECT COUNT(*) FROM review_requests rr
		JOIN site_profiles p ON rr.site_id IS NOT DISTINCT FROM p.site_id
		WHERE p.id = ? AND ` + incomingPending + `
		  AND EXISTS (SELECT 1 FROM review_request_target_people tp
		              WHERE tp.review_request_id = rr.id AND tp.user_id = p.user_id)`,

	storage.CounterProfileTotalIncoming: `
		SELECT COUNT(*) FROM review_requests rr
		JOIN site_profiles p ON rr.site_id IS NOT DISTINCT FROM p.site_id
		WHERE p.id = ? AND ` + incomingPending + `
		  AND (EXISTS (SELECT 1 FROM review_request_target_people tp
		               WHERE tp.review_request_id = rr.id AND tp.user_id = p.user_id)
		    OR EXISTS (SELECT 1 FROM review_request_target_groups tg
		               JOIN group_members gm ON gm.group_id = tg.group_id
		               WHERE tg.review_request_id = rr.id AND gm.user_id = p.user_id))`,

	storage.CounterProfilePendingOutgoing: `
		SELECT COUNT(*) FROM review_requests rr
		JOIN site_profiles p ON rr.site_id IS NOT DISTINCT FROM p.site_id
		WHERE p.id = ? AND rr.submitter_id = p.user_id AND rr.status = 'P'`,

	storage.CounterProfileTotalOutgoing: `
		SELECT COUNT(*) FROM review_requests rr
		JOIN site_profiles p ON rr.site_id IS NOT DISTINCT FROM p.site_id
		WHERE p.id = ? AND rr.submitter_id = p.user_id`,

	storage.CounterProfileStarredPublic: `
		SELECT COUNT(*) FROM review_requests rr
		JOIN site_profiles p ON rr.site_id IS NOT DISTINCT FROM p.site_id
		JOIN profile_starred_review_requests s ON s.profile_id = p.id AND s.review_request_id = rr.id
		WHERE p.id = ? AND ` + incomingPending,
}

// location возвращает таблицу и колонку счётчика
func location(counter storage.Counter) (string, string, error) {
	switch counter {
	case storage.CounterGroupIncoming:
		return "groups", "incoming_request_count", nil
	case storage.CounterShipIt:
		return "review_requests", "shipit_count", nil
	case storage.CounterProfileDirectIncoming, storage.CounterProfileTotalIncoming,
		storage.CounterProfilePendingOutgoing, storage.CounterProfileTotalOutgoing,
		storage.CounterProfileStarredPublic:
		return "site_profiles", string(counter), nil
	default:
		return "", "", fmt.Errorf("%w: %s", storage.ErrUnknownCounter, counter)
	}
}

func (c *counterStore) Increment(ctx context.Context, counter storage.Counter, ids []int64) error {
	return c.add(ctx, counter, ids, 1)
}

func (c *counterStore) Decrement(ctx context.Context, counter storage.Counter, ids []int64) error {
	return c.add(ctx, counter, ids, -1)
}

func (c *counterStore) add(ctx context.Context, counter storage.Counter, ids []int64, delta int64) error {
	table, column, err := location(counter)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	err = c.db.WithContext(ctx).
		Table(table).
		Where("id IN ?", ids).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
	return translate(ctx, err, "storage.Counters.Add", 0, storage.ErrConflict)
}

func (c *counterStore) Get(ctx context.Context, counter storage.Counter, id int64) (int64, error) {
	table, column, err := location(counter)
	if err != nil {
		return 0, err
	}
	values := make([]int64, 0, 1)
	if err := c.db.WithContext(ctx).Table(table).Where("id = ?", id).Pluck(column, &values).Error; err != nil {
		return 0, translate(ctx, err, "storage.Counters.Get", id, storage.ErrConflict)
	}
	if len(values) == 0 {
		return 0, storage.ErrNotFound
	}
	return values[0], nil
}

// Recompute выводит значение из связей и перезаписывает хранимое
func (c *counterStore) Recompute(ctx context.Context, counter storage.Counter, id int64) (int64, error) {
	const op = "storage.Counters.Recompute"

	table, column, err := location(counter)
	if err != nil {
		return 0, err
	}

	var value int64
	if err := c.db.WithContext(ctx).Raw(counterDerivations[counter], id).Scan(&value).Error; err != nil {
		return 0, translate(ctx, err, op, id, storage.ErrConflict)
	}

	result := c.db.WithContext(ctx).
		Table(table).
		Where("id = ?", id).
		UpdateColumn(column, value)
	if err := notFoundIfNone(result); err != nil {
		return 0, translate(ctx, err, op, id, storage.ErrConflict)
	}
	return value, nil
}

func (c *counterStore) IDs(ctx context.Context, counter storage.Counter) ([]int64, error) {
	table, _, err := location(counter)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0)
	if err := c.db.WithContext(ctx).Table(table).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, translate(ctx, err, "storage.Counters.IDs", 0, storage.ErrConflict)
	}
	return ids, nil
}
