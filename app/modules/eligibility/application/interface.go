package eligibilityservice

import (
	"context"
	"errors"
	"time"

	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/google/uuid"
)

// ErrUnknownTier is the failure for a tier id missing from the registry.
var ErrUnknownTier = errors.New("unknown tier")

// VerdictResult carries the outcome of Evaluate.
type VerdictResult = results.OperationResult[eligibilitydomain.Verdict, error]

// GrantOpResult carries the outcome of AttemptGrant. NotEligible and
// GrantFailed are successes with the matching Outcome; a failure means the
// member or tier could not be resolved.
type GrantOpResult = results.OperationResult[GrantResult, error]

// Service defines the eligibility operations addressed by member and tier id.
type Service interface {
	Evaluate(ctx context.Context, memberID sharedtypes.DiscordID, tierID sharedtypes.TierID) (VerdictResult, error)
	AttemptGrant(ctx context.Context, req GrantRequest) (GrantOpResult, error)
	GrantHistory(ctx context.Context, memberID sharedtypes.DiscordID, limit int) (GrantHistoryResult, error)
	Tiers() []tierdomain.Tier
}

type GrantRequest struct {
	MemberID sharedtypes.DiscordID
	TierID   sharedtypes.TierID
	// ThreadID links the attempt to the nomination that triggered it.
	ThreadID *uuid.UUID
}

// TierCatalog resolves tier definitions.
type TierCatalog interface {
	ByID(id sharedtypes.TierID) (tierdomain.Tier, bool)
	All() []tierdomain.Tier
}

// MemberDirectory reads member records. GetMember returns an error wrapping
// sharedtypes.ErrMemberNotFound for unknown members.
type MemberDirectory interface {
	GetMember(ctx context.Context, id sharedtypes.DiscordID) (sharedtypes.Member, error)
}

// RoleAssigner grants a role on the identity platform. Granting a held role
// must succeed.
type RoleAssigner interface {
	GrantRole(ctx context.Context, memberID sharedtypes.DiscordID, role sharedtypes.RoleName, reason string) error
}

// RoleLedger records a granted role in the member directory.
type RoleLedger interface {
	AddRole(ctx context.Context, id sharedtypes.DiscordID, role sharedtypes.RoleName, grantedAt time.Time) error
}

// GrantRecorder appends grant attempts to the audit log.
type GrantRecorder interface {
	RecordGrant(ctx context.Context, rec GrantRecord) error
}

// GrantRecord is one audit log entry.
type GrantRecord struct {
	ID          uuid.UUID                 `json:"id"`
	MemberID    sharedtypes.DiscordID     `json:"member_id"`
	TierID      sharedtypes.TierID        `json:"tier_id"`
	RoleName    sharedtypes.RoleName      `json:"role_name"`
	Outcome     GrantOutcome              `json:"outcome"`
	AlreadyHeld bool                      `json:"already_held"`
	Reason      string                    `json:"reason,omitempty"`
	ThreadID    *uuid.UUID                `json:"thread_id,omitempty"`
	Verdict     eligibilitydomain.Verdict `json:"verdict"`
	AttemptedAt time.Time                 `json:"attempted_at"`
}
