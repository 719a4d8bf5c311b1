package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// schema. Returns a cleanup function that must be called after tests
// complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	applySchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// applySchema creates the tables used by the stores under test. The DDL
// mirrors internal/storage/migrations/postgres/001_init.sql; the migrations
// package is not imported here to avoid an import cycle with its own tests.
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS discovered_addresses (
			address TEXT PRIMARY KEY,
			discovered_at BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS account_records (
			address TEXT NOT NULL,
			lamports NUMERIC(20, 0) NOT NULL,
			owner_program TEXT NOT NULL DEFAULT '',
			account_type TEXT,
			executable BOOLEAN NOT NULL DEFAULT FALSE,
			holdings JSONB NOT NULL DEFAULT '[]',
			activity JSONB NOT NULL DEFAULT '[]',
			captured_at BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (address, captured_at)
		)`,
		`CREATE TABLE IF NOT EXISTS crawl_progress (
			id INT PRIMARY KEY CHECK (id = 1),
			page INT NOT NULL,
			discovered_at BIGINT NOT NULL,
			addresses_found INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS crawl_seen_addresses (
			address TEXT PRIMARY KEY,
			seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range ddl {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err, "apply schema")
	}
}
