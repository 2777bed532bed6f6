package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
	"reviewflow/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createGroup(t *testing.T, store *memory.Store, name string) *domain.Group {
	t.Helper()
	group := &domain.Group{Name: name}
	err := store.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.GroupRepo().Create(ctx, group)
	})
	require.NoError(t, err)
	return group
}

func TestDo_RollbackOnError(t *testing.T) {
	// Arrange
	store := memory.New()
	ctx := context.Background()
	failure := errors.New("boom")

	// Act
	err := store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.GroupRepo().Create(ctx, &domain.Group{Name: "core"}); err != nil {
			return err
		}
		return failure
	})

	// Assert
	require.ErrorIs(t, err, failure)
	err = store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		groups, err := tx.GroupRepo().ListBySite(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, groups)
		return nil
	})
	require.NoError(t, err)
}

func TestCounters_ConcurrentIncrements(t *testing.T) {
	// Arrange
	store := memory.New()
	group := createGroup(t, store, "core")
	ctx := context.Background()

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
				return tx.Counters().Increment(ctx, storage.CounterGroupIncoming, []int64{group.ID})
			})
		}()
	}
	wg.Wait()

	// Assert
	err := store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		value, err := tx.Counters().Get(ctx, storage.CounterGroupIncoming, group.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(50), value)

		// Recompute выводит значение из связей и перезаписывает дрейф
		value, err = tx.Counters().Recompute(ctx, storage.CounterGroupIncoming, group.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), value)
		return nil
	})
	require.NoError(t, err)
}

func TestDrafts_CreateIfAbsent(t *testing.T) {
	// Arrange
	store := memory.New()
	ctx := context.Background()
	req := &domain.ReviewRequest{SubmitterID: 1, Status: domain.StatusPending}
	require.NoError(t, store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.ReviewRequestRepo().Create(ctx, req)
	}))

	// Act
	var first, second *domain.ReviewRequestDraft
	var created1, created2 bool
	require.NoError(t, store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		first, created1, err = tx.DraftRepo().CreateIfAbsent(ctx, &domain.ReviewRequestDraft{ReviewRequestID: req.ID, Summary: "a"})
		return err
	}))
	require.NoError(t, store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		second, created2, err = tx.DraftRepo().CreateIfAbsent(ctx, &domain.ReviewRequestDraft{ReviewRequestID: req.ID, Summary: "b"})
		return err
	}))

	// Assert
	assert.True(t, created1)
	assert.False(t, created2)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "a", second.Summary)
}

func TestReviewRequests_UniqueChangeNum(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	repo := store.SeedRepository(domain.Repository{Name: "main", Public: true})
	changeNum := int64(42)

	err := store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.ReviewRequestRepo().Create(ctx, &domain.ReviewRequest{RepositoryID: &repo.ID, ChangeNum: &changeNum})
	})
	require.NoError(t, err)

	err = store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.ReviewRequestRepo().Create(ctx, &domain.ReviewRequest{RepositoryID: &repo.ID, ChangeNum: &changeNum})
	})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestProfiles_StarIdempotent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	err := store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		require.NoError(t, tx.UserRepo().Upsert(ctx, &domain.User{ID: 7, Username: "alice"}))
		profile, err := tx.ProfileRepo().Ensure(ctx, 7, nil)
		require.NoError(t, err)

		again, err := tx.ProfileRepo().Ensure(ctx, 7, nil)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, again.ID)

		added, err := tx.ProfileRepo().Star(ctx, profile.ID, 100)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = tx.ProfileRepo().Star(ctx, profile.ID, 100)
		require.NoError(t, err)
		assert.False(t, added)

		removed, err := tx.ProfileRepo().Unstar(ctx, profile.ID, 100)
		require.NoError(t, err)
		assert.True(t, removed)
		return nil
	})
	require.NoError(t, err)
}
