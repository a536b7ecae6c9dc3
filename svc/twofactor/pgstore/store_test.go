package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/pg"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
	"github.com/dmitrymomot/twofactor/svc/twofactor/pgstore"
	"github.com/dmitrymomot/twofactor/svc/twofactor/storetest"
)

// connect returns a migrated pool, or skips when no database is configured.
func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TWOFACTOR_TEST_PG_URL")
	if url == "" {
		t.Skip("TWOFACTOR_TEST_PG_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     8,
		RetryAttempts:    1,
		RetryInterval:    100 * time.Millisecond,
		MigrationsTable:  "twofactor_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.MigrateFS(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, logger.Discard()))
	return pool
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()

	pool := connect(t)
	storetest.Run(t, func(*testing.T) twofactor.Store {
		return pgstore.New(pool)
	})
}

func TestStore_PruneAttempts(t *testing.T) {
	t.Parallel()

	pool := connect(t)
	store := pgstore.New(pool)
	ctx := context.Background()
	userID := "prune-" + uuid.NewString()
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, store.RecordAttempt(ctx, twofactor.Attempt{
		ID: uuid.NewString(), UserID: userID, Type: twofactor.AttemptTOTPVerify, CreatedAt: old,
	}))
	require.NoError(t, store.RecordAttempt(ctx, twofactor.Attempt{
		ID: uuid.NewString(), UserID: userID, Type: twofactor.AttemptTOTPVerify, CreatedAt: time.Now(),
	}))

	removed, err := store.PruneAttempts(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	left, err := store.ListAttempts(ctx, userID, 10)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestMigrations_Embedded(t *testing.T) {
	t.Parallel()

	entries, err := pgstore.Migrations.ReadDir(pgstore.MigrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_two_factor_tables.sql", entries[0].Name())
}
