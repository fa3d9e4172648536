//go:build integration

package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Black-And-White-Club/tier-bot/internal/db/bundb"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// NewPostgres starts a Postgres container, applies each migration set in order
// and returns a connection that is closed when the test ends.
func NewPostgres(t *testing.T, migrations ...*migrate.Migrations) *bun.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := bundb.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for i, m := range migrations {
		migrator := migrate.NewMigrator(db, m,
			migrate.WithTableName(fmt.Sprintf("bun_migrations_%d", i)),
			migrate.WithLocksTableName(fmt.Sprintf("bun_migration_locks_%d", i)),
		)
		if err := migrator.Init(ctx); err != nil {
			t.Fatalf("failed to init migrations: %v", err)
		}
		if _, err := migrator.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}
	return db
}
