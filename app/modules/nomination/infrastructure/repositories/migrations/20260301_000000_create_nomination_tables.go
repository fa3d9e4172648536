package nominationmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating nomination_threads and nomination_votes tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS nomination_threads (
					id UUID PRIMARY KEY,
					nominator_id VARCHAR(32) NOT NULL,
					nominee_id VARCHAR(32) NOT NULL,
					tier_id VARCHAR(64) NOT NULL,
					tier_name VARCHAR(32) NOT NULL,
					vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
					required_votes INTEGER NOT NULL CHECK (required_votes > 0),
					status VARCHAR(16) NOT NULL CHECK (status IN ('none', 'open', 'closed')),
					close_reason VARCHAR(32),
					expires_at TIMESTAMPTZ,
					closed_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_nomination_threads_one_open
					ON nomination_threads (nominee_id, tier_id) WHERE status = 'open';
				CREATE INDEX IF NOT EXISTS idx_nomination_threads_nominee_tier
					ON nomination_threads (nominee_id, tier_id, created_at DESC);
				CREATE INDEX IF NOT EXISTS idx_nomination_threads_expiry
					ON nomination_threads (expires_at) WHERE status = 'open';
			`); err != nil {
				return fmt.Errorf("failed to create nomination_threads table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS nomination_votes (
					id UUID PRIMARY KEY,
					thread_id UUID NOT NULL REFERENCES nomination_threads(id) ON DELETE CASCADE,
					voter_id VARCHAR(32) NOT NULL,
					voted_at TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (thread_id, voter_id)
				);
			`); err != nil {
				return fmt.Errorf("failed to create nomination_votes table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping nomination tables...")
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS nomination_votes;
			DROP TABLE IF EXISTS nomination_threads;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop nomination tables: %w", err)
		}
		return nil
	})
}
