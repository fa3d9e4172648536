package events

import (
	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
)

const (
	EligibilityCheckRequestedV1 = "tier.eligibility.check.requested.v1"
	EligibilityCheckedV1        = "tier.eligibility.checked.v1"
	EligibilityCheckFailedV1    = "tier.eligibility.check.failed.v1"

	RoleGrantRequestedV1 = "tier.role.grant.requested.v1"
	RoleGrantedV1        = "tier.role.granted.v1"
	RoleGrantDeniedV1    = "tier.role.grant.denied.v1"
	RoleGrantFailedV1    = "tier.role.grant.failed.v1"
)

type EligibilityCheckRequestedPayloadV1 struct {
	MemberID sharedtypes.DiscordID `json:"member_id"`
	TierID   sharedtypes.TierID    `json:"tier_id"`
}

type EligibilityCheckedPayloadV1 struct {
	Verdict eligibilitydomain.Verdict `json:"verdict"`
}

type EligibilityCheckFailedPayloadV1 struct {
	MemberID sharedtypes.DiscordID `json:"member_id"`
	TierID   sharedtypes.TierID    `json:"tier_id"`
	Reason   string                `json:"reason"`
}

type RoleGrantRequestedPayloadV1 struct {
	MemberID sharedtypes.DiscordID `json:"member_id"`
	TierID   sharedtypes.TierID    `json:"tier_id"`
	// ThreadID is set when the grant follows a nomination that reached its threshold.
	ThreadID *uuid.UUID `json:"thread_id,omitempty"`
}

type RoleGrantedPayloadV1 struct {
	GrantID     uuid.UUID             `json:"grant_id"`
	MemberID    sharedtypes.DiscordID `json:"member_id"`
	TierID      sharedtypes.TierID    `json:"tier_id"`
	RoleName    sharedtypes.RoleName  `json:"role_name"`
	AlreadyHeld bool                  `json:"already_held"`
}

type RoleGrantDeniedPayloadV1 struct {
	GrantID  uuid.UUID                 `json:"grant_id"`
	MemberID sharedtypes.DiscordID     `json:"member_id"`
	TierID   sharedtypes.TierID        `json:"tier_id"`
	Verdict  eligibilitydomain.Verdict `json:"verdict"`
}

type RoleGrantFailedPayloadV1 struct {
	GrantID  uuid.UUID             `json:"grant_id,omitempty"`
	MemberID sharedtypes.DiscordID `json:"member_id"`
	TierID   sharedtypes.TierID    `json:"tier_id"`
	Reason   string                `json:"reason"`
}
