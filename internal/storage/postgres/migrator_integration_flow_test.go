package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMigrator_UpDownRoundTrip(t *testing.T) {
	store := rawTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	// Остальные интеграционные тесты рассчитывают на полную схему.
	t.Cleanup(func() { require.NoError(t, store.MigrateUp(context.Background(), 0)) })

	require.NoError(t, store.MigrateDown(ctx, 100))
	state, err := store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, MigrationState{Pending: []string{"0001_init_catalog", "0002_idempotency_location"}}, state)

	// Двойной up ничего не меняет.
	require.NoError(t, store.MigrateUp(ctx, 0))
	require.NoError(t, store.MigrateUp(ctx, 0))
	state, err = store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), state.Version)
	require.Equal(t, 2, state.Applied)
	require.Empty(t, state.Pending)

	// steps = 0 откатывает одну миграцию.
	require.NoError(t, store.MigrateDown(ctx, 0))
	state, err = store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), state.Version)
	require.Equal(t, []string{"0002_idempotency_location"}, state.Pending)

	// Повторный откат на пустой схеме ничего не делает.
	require.NoError(t, store.MigrateDown(ctx, 1))
	require.NoError(t, store.MigrateDown(ctx, 1))
	state, err = store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Zero(t, state.Version)
	require.Zero(t, state.Applied)

	var beers *string
	require.NoError(t, store.DB().QueryRowContext(ctx, `SELECT to_regclass('public.beers')::text`).Scan(&beers))
	require.Nil(t, beers, "down migration must drop tables")
}

func TestMigrator_NilStore(t *testing.T) {
	var store *Store
	ctx := context.Background()

	require.Error(t, store.MigrateUp(ctx, 0))
	require.Error(t, store.MigrateDown(ctx, 1))
	_, err := store.MigrationStatus(ctx)
	require.Error(t, err)
}
