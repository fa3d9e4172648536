package memberdb

import (
	"context"
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/uptrace/bun"
)

// Snapshot is the full state of a member as observed on the chat platform.
type Snapshot struct {
	Member         sharedtypes.Member
	LinkedAccounts map[string]string
	StellarAccount string
	ObservedAt     time.Time
}

// Repository defines the contract for member persistence.
type Repository interface {
	// GetMember returns the member with its current roles, or ErrNotFound.
	GetMember(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) (*sharedtypes.Member, error)

	// ListRoles returns the member's role names; an unknown member has none.
	ListRoles(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) ([]sharedtypes.RoleName, error)

	// UpsertSnapshot replaces the member record, role set and linked accounts.
	UpsertSnapshot(ctx context.Context, db bun.IDB, snap Snapshot) error

	// AddRole records a role grant. Adding a held role is a no-op.
	AddRole(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID, role sharedtypes.RoleName, grantedAt time.Time) error

	HasLinkedAccount(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID, provider string) (bool, error)
	HasStellarAccount(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) (bool, error)
}
