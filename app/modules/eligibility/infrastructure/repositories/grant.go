package eligibilitydb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultListLimit = 50

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new grant audit repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) InsertGrant(ctx context.Context, db bun.IDB, grant *RoleGrant) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(grant).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert role grant: %w", err)
	}
	return nil
}

func (r *Impl) GetGrant(ctx context.Context, db bun.IDB, id uuid.UUID) (*RoleGrant, error) {
	db = r.resolveDB(db)
	grant := new(RoleGrant)
	if err := db.NewSelect().Model(grant).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get role grant: %w", err)
	}
	return grant, nil
}

func (r *Impl) ListGrants(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, limit int) ([]RoleGrant, error) {
	db = r.resolveDB(db)
	if limit <= 0 {
		limit = defaultListLimit
	}
	var grants []RoleGrant
	err := db.NewSelect().
		Model(&grants).
		Where("member_id = ?", memberID).
		Order("attempted_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list role grants: %w", err)
	}
	return grants, nil
}
