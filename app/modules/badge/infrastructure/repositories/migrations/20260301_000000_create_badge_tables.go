package badgemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating badges and member_badges tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS badges (
				id VARCHAR(64) PRIMARY KEY,
				category VARCHAR(64) NOT NULL,
				name VARCHAR(255),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_badges_category ON badges (category);

			CREATE TABLE IF NOT EXISTS member_badges (
				member_id VARCHAR(32) NOT NULL,
				badge_id VARCHAR(64) NOT NULL REFERENCES badges(id) ON DELETE CASCADE,
				awarded_at TIMESTAMPTZ NOT NULL,
				source VARCHAR(255),
				PRIMARY KEY (member_id, badge_id)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create badge tables: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping badge tables...")
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS member_badges;
			DROP TABLE IF EXISTS badges;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop badge tables: %w", err)
		}
		return nil
	})
}
