package memberservice

import (
	"context"
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
)

// SyncResult carries the outcome of SyncMember.
type SyncResult = results.OperationResult[sharedtypes.Member, error]

// Service defines the member directory operations.
type Service interface {
	// GetMember returns sharedtypes.ErrMemberNotFound for an unknown member.
	GetMember(ctx context.Context, id sharedtypes.DiscordID) (sharedtypes.Member, error)
	ListCurrentRoles(ctx context.Context, id sharedtypes.DiscordID) ([]sharedtypes.RoleName, error)
	AddRole(ctx context.Context, id sharedtypes.DiscordID, role sharedtypes.RoleName, grantedAt time.Time) error
	HasLinkedAccount(ctx context.Context, id sharedtypes.DiscordID, provider string) (bool, error)
	HasStellarAccount(ctx context.Context, id sharedtypes.DiscordID) (bool, error)

	// SyncMember replaces the stored snapshot of a member.
	SyncMember(ctx context.Context, req SyncMemberRequest) (SyncResult, error)
}

type SyncMemberRequest struct {
	Member         sharedtypes.Member
	LinkedAccounts map[string]string
	StellarAccount string
	ObservedAt     time.Time
}
