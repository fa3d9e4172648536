package memberdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new member repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) GetMember(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) (*sharedtypes.Member, error) {
	db = r.resolveDB(db)
	row := new(Member)
	err := db.NewSelect().
		Model(row).
		Relation("Roles", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("mr.granted_at ASC", "mr.role_name ASC")
		}).
		Where("m.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	member := row.toDomain()
	return &member, nil
}

func (r *Impl) ListRoles(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) ([]sharedtypes.RoleName, error) {
	db = r.resolveDB(db)
	var roles []sharedtypes.RoleName
	err := db.NewSelect().
		Model((*MemberRole)(nil)).
		Column("role_name").
		Where("member_id = ?", id).
		Order("role_name ASC").
		Scan(ctx, &roles)
	if err != nil {
		return nil, fmt.Errorf("failed to list member roles: %w", err)
	}
	return roles, nil
}

func (r *Impl) UpsertSnapshot(ctx context.Context, db bun.IDB, snap Snapshot) error {
	db = r.resolveDB(db)
	m := snap.Member
	now := snap.ObservedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := &Member{
		ID:               m.ID,
		DisplayName:      m.DisplayName,
		AccountCreatedAt: m.AccountCreatedAt,
		JoinedAt:         m.JoinedAt,
		ProfileNote:      m.ProfileNote,
		StellarAccount:   strings.TrimSpace(snap.StellarAccount),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("account_created_at = EXCLUDED.account_created_at").
		Set("joined_at = EXCLUDED.joined_at").
		Set("profile_note = EXCLUDED.profile_note").
		Set("stellar_account = EXCLUDED.stellar_account").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}

	if _, err := db.NewDelete().Model((*MemberRole)(nil)).Where("member_id = ?", m.ID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear member roles: %w", err)
	}
	if len(m.Roles) > 0 {
		roles := make([]*MemberRole, 0, len(m.Roles))
		for _, hr := range m.Roles {
			grantedAt := hr.GrantedAt
			if grantedAt.IsZero() {
				grantedAt = now
			}
			roles = append(roles, &MemberRole{MemberID: m.ID, RoleName: hr.Name, RoleCode: hr.Code, GrantedAt: grantedAt})
		}
		if _, err := db.NewInsert().Model(&roles).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert member roles: %w", err)
		}
	}

	if _, err := db.NewDelete().Model((*MemberAccount)(nil)).Where("member_id = ?", m.ID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear linked accounts: %w", err)
	}
	if len(snap.LinkedAccounts) > 0 {
		accounts := make([]*MemberAccount, 0, len(snap.LinkedAccounts))
		for provider, handle := range snap.LinkedAccounts {
			if strings.TrimSpace(handle) == "" {
				continue
			}
			accounts = append(accounts, &MemberAccount{
				MemberID:   m.ID,
				Provider:   strings.ToLower(provider),
				Handle:     handle,
				VerifiedAt: now,
			})
		}
		if len(accounts) > 0 {
			if _, err := db.NewInsert().Model(&accounts).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert linked accounts: %w", err)
			}
		}
	}
	return nil
}

func (r *Impl) AddRole(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID, role sharedtypes.RoleName, grantedAt time.Time) error {
	db = r.resolveDB(db)
	row := &MemberRole{MemberID: id, RoleName: role, GrantedAt: grantedAt}
	if _, err := db.NewInsert().Model(row).On("CONFLICT (member_id, role_name) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("failed to add member role: %w", err)
	}
	return nil
}

func (r *Impl) HasLinkedAccount(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID, provider string) (bool, error) {
	db = r.resolveDB(db)
	exists, err := db.NewSelect().
		Model((*MemberAccount)(nil)).
		Where("member_id = ?", id).
		Where("provider = ?", strings.ToLower(provider)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check linked account: %w", err)
	}
	return exists, nil
}

func (r *Impl) HasStellarAccount(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) (bool, error) {
	db = r.resolveDB(db)
	exists, err := db.NewSelect().
		Model((*Member)(nil)).
		Where("id = ?", id).
		Where("stellar_account IS NOT NULL AND stellar_account <> ''").
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check stellar account: %w", err)
	}
	return exists, nil
}
