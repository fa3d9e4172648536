package eligibilitydb

import (
	"context"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository persists the grant audit log.
type Repository interface {
	InsertGrant(ctx context.Context, db bun.IDB, grant *RoleGrant) error

	// GetGrant returns ErrGrantNotFound when no attempt has the id.
	GetGrant(ctx context.Context, db bun.IDB, id uuid.UUID) (*RoleGrant, error)

	// ListGrants returns the member's attempts, newest first.
	ListGrants(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, limit int) ([]RoleGrant, error)
}
