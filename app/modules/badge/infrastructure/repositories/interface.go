package badgedb

import (
	"context"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/uptrace/bun"
)

// Repository defines the contract for badge ledger persistence.
type Repository interface {
	// EnsureBadges adds catalog entries that do not exist yet.
	EnsureBadges(ctx context.Context, db bun.IDB, badges []Badge) error

	// AwardBadges inserts awards and returns how many were new.
	AwardBadges(ctx context.Context, db bun.IDB, awards []MemberBadge) (int, error)

	// CountByCategory counts the member's badges in category.
	CountByCategory(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, category string) (int, error)

	// CountByIDs counts how many of badgeIDs the member holds.
	CountByIDs(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, badgeIDs []string) (int, error)
}
