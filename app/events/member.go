package events

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

const (
	MemberSyncRequestedV1 = "member.sync.requested.v1"
	MemberSyncedV1        = "member.synced.v1"
	MemberSyncFailedV1    = "member.sync.failed.v1"
)

// MemberSyncRequestedPayloadV1 carries a member snapshot from the chat gateway.
type MemberSyncRequestedPayloadV1 struct {
	Member sharedtypes.Member `json:"member"`
	// LinkedAccounts maps provider names to account handles.
	LinkedAccounts map[string]string `json:"linked_accounts,omitempty"`
	StellarAccount string            `json:"stellar_account,omitempty"`
	ObservedAt     time.Time         `json:"observed_at"`
}

type MemberSyncedPayloadV1 struct {
	MemberID sharedtypes.DiscordID `json:"member_id"`
	Roles    int                   `json:"roles"`
}

type MemberSyncFailedPayloadV1 struct {
	MemberID sharedtypes.DiscordID `json:"member_id"`
	Reason   string                `json:"reason"`
}
