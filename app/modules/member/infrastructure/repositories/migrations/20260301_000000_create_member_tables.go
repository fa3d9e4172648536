package membermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating members, member_roles and member_accounts tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS members (
				id VARCHAR(32) PRIMARY KEY,
				display_name VARCHAR(100) NOT NULL,
				account_created_at TIMESTAMPTZ,
				joined_at TIMESTAMPTZ,
				profile_note TEXT,
				stellar_account VARCHAR(64),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS member_roles (
				member_id VARCHAR(32) NOT NULL REFERENCES members(id) ON DELETE CASCADE,
				role_name VARCHAR(100) NOT NULL,
				role_code VARCHAR(64),
				granted_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (member_id, role_name)
			);

			CREATE TABLE IF NOT EXISTS member_accounts (
				member_id VARCHAR(32) NOT NULL REFERENCES members(id) ON DELETE CASCADE,
				provider VARCHAR(32) NOT NULL,
				handle VARCHAR(255) NOT NULL,
				verified_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (member_id, provider)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create member tables: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping member tables...")
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS member_accounts;
			DROP TABLE IF EXISTS member_roles;
			DROP TABLE IF EXISTS members;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop member tables: %w", err)
		}
		return nil
	})
}
