package badgedb

import (
	"context"
	"fmt"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new badge repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) EnsureBadges(ctx context.Context, db bun.IDB, badges []Badge) error {
	if len(badges) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(&badges).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert badges: %w", err)
	}
	return nil
}

func (r *Impl) AwardBadges(ctx context.Context, db bun.IDB, awards []MemberBadge) (int, error) {
	if len(awards) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	res, err := db.NewInsert().Model(&awards).On("CONFLICT (member_id, badge_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to award badges: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

func (r *Impl) CountByCategory(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, category string) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*MemberBadge)(nil)).
		Join("JOIN badges AS b ON b.id = mb.badge_id").
		Where("mb.member_id = ?", memberID).
		Where("b.category = ?", category).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count badges by category: %w", err)
	}
	return n, nil
}

func (r *Impl) CountByIDs(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, badgeIDs []string) (int, error) {
	if len(badgeIDs) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*MemberBadge)(nil)).
		Where("member_id = ?", memberID).
		Where("badge_id IN (?)", bun.In(badgeIDs)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count badges by id: %w", err)
	}
	return n, nil
}
