package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewflow/internal/domain"
	"reviewflow/internal/reconcile"
	"reviewflow/internal/service"
	"reviewflow/internal/storage"
	"reviewflow/internal/storage/memory"
)

func TestRunOnce_CorrectsDrift(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := service.New(store)

	admin := &domain.User{ID: 1, Username: "admin", Authenticated: true, Superuser: true}
	_, err := svc.RegisterUser(ctx, admin, &domain.RegisterUserInput{ID: 1, Username: "admin"})
	require.NoError(t, err)
	group, err := svc.CreateGroup(ctx, admin, &domain.CreateGroupInput{Name: "core", Visible: true})
	require.NoError(t, err)

	// Портим счётчик в обход сервиса
	err = store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Counters().Increment(ctx, storage.CounterGroupIncoming, []int64{group.ID, group.ID})
	})
	require.NoError(t, err)

	report, err := reconcile.New(store).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Corrected[storage.CounterGroupIncoming])
	assert.Positive(t, report.Checked)

	err = store.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
		value, err := tx.Counters().Get(ctx, storage.CounterGroupIncoming, group.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), value)
		return nil
	})
	require.NoError(t, err)

	again, err := reconcile.New(store).RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Corrected)
}

func TestRunOnce_StopsOnCancelledContext(t *testing.T) {
	store := memory.New()
	svc := service.New(store)
	admin := &domain.User{ID: 1, Username: "admin", Authenticated: true, Superuser: true}
	_, err := svc.RegisterUser(context.Background(), admin, &domain.RegisterUserInput{ID: 1, Username: "admin"})
	require.NoError(t, err)
	_, err = svc.CreateGroup(context.Background(), admin, &domain.CreateGroupInput{Name: "core"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = reconcile.New(store).RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
