package nominationdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new nomination repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) GetThread(ctx context.Context, db bun.IDB, id uuid.UUID) (*nominationdomain.Thread, error) {
	return r.getThread(ctx, db, id, false)
}

func (r *Impl) GetThreadForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*nominationdomain.Thread, error) {
	return r.getThread(ctx, db, id, true)
}

func (r *Impl) getThread(ctx context.Context, db bun.IDB, id uuid.UUID, lock bool) (*nominationdomain.Thread, error) {
	db = r.resolveDB(db)
	row := new(Thread)
	q := db.NewSelect().Model(row).Where("id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get nomination thread: %w", err)
	}
	thread := row.toDomain()
	return &thread, nil
}

func (r *Impl) GetOpenThread(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error) {
	db = r.resolveDB(db)
	row := new(Thread)
	err := db.NewSelect().
		Model(row).
		Where("nominee_id = ?", nomineeID).
		Where("tier_id = ?", tierID).
		Where("status = ?", string(nominationdomain.StateOpen)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get open nomination thread: %w", err)
	}
	thread := row.toDomain()
	return &thread, nil
}

func (r *Impl) LatestThread(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error) {
	db = r.resolveDB(db)
	row := new(Thread)
	err := db.NewSelect().
		Model(row).
		Where("nominee_id = ?", nomineeID).
		Where("tier_id = ?", tierID).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest nomination thread: %w", err)
	}
	thread := row.toDomain()
	return &thread, nil
}

func (r *Impl) QualifyingRounds(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*Thread)(nil)).
		Where("nominee_id = ?", nomineeID).
		Where("tier_id = ?", tierID).
		Where("vote_count >= ?", requiredVotes).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count qualifying rounds: %w", err)
	}
	return count, nil
}

func (r *Impl) CreateThread(ctx context.Context, db bun.IDB, thread nominationdomain.Thread) error {
	db = r.resolveDB(db)
	res, err := db.NewInsert().
		Model(threadFromDomain(thread)).
		On("CONFLICT (nominee_id, tier_id) WHERE status = 'open' DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create nomination thread: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOpenThreadExists
	}
	return nil
}

func (r *Impl) HasVoted(ctx context.Context, db bun.IDB, threadID uuid.UUID, voterID sharedtypes.DiscordID) (bool, error) {
	db = r.resolveDB(db)
	exists, err := db.NewSelect().
		Model((*Vote)(nil)).
		Where("thread_id = ?", threadID).
		Where("voter_id = ?", voterID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return exists, nil
}

func (r *Impl) RecordVote(ctx context.Context, db bun.IDB, vote nominationdomain.Vote, thread nominationdomain.Thread) error {
	db = r.resolveDB(db)

	res, err := db.NewInsert().
		Model(voteFromDomain(vote)).
		On("CONFLICT (thread_id, voter_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicateVote
	}

	row := threadFromDomain(thread)
	res, err = db.NewUpdate().
		Model(row).
		Column("vote_count", "status", "close_reason", "closed_at", "updated_at").
		Where("id = ?", thread.ID).
		Where("status = ?", string(nominationdomain.StateOpen)).
		Where("vote_count = ?", thread.VoteCount-1).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update vote count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrThreadNotOpen
	}
	return nil
}

func (r *Impl) CloseThread(ctx context.Context, db bun.IDB, thread nominationdomain.Thread) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(threadFromDomain(thread)).
		Column("status", "close_reason", "closed_at", "updated_at").
		Where("id = ?", thread.ID).
		Where("status = ?", string(nominationdomain.StateOpen)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to close nomination thread: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Impl) ListExpiredOpenThreads(ctx context.Context, db bun.IDB, now time.Time, limit int) ([]nominationdomain.Thread, error) {
	db = r.resolveDB(db)
	var rows []Thread
	q := db.NewSelect().
		Model(&rows).
		Where("status = ?", string(nominationdomain.StateOpen)).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", now).
		OrderExpr("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list expired nomination threads: %w", err)
	}
	out := make([]nominationdomain.Thread, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}
