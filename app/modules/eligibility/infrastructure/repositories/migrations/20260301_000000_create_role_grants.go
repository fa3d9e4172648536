package eligibilitymigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating role_grants table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS role_grants (
				id UUID PRIMARY KEY,
				member_id VARCHAR(32) NOT NULL,
				tier_id VARCHAR(64) NOT NULL,
				role_name VARCHAR(64) NOT NULL,
				outcome VARCHAR(16) NOT NULL CHECK (outcome IN ('granted', 'not_eligible', 'grant_failed')),
				already_held BOOLEAN NOT NULL DEFAULT FALSE,
				reason TEXT,
				thread_id UUID,
				verdict JSONB,
				attempted_at TIMESTAMPTZ NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_role_grants_member
				ON role_grants (member_id, attempted_at DESC);
		`)
		if err != nil {
			return fmt.Errorf("failed to create role_grants table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping role_grants table...")
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS role_grants;`); err != nil {
			return fmt.Errorf("failed to drop role_grants table: %w", err)
		}
		return nil
	})
}
