package events

import (
	"time"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
)

const (
	NominationStartRequestedV1 = "nomination.start.requested.v1"
	NominationThreadOpenedV1   = "nomination.thread.opened.v1"
	NominationStartRejectedV1  = "nomination.start.rejected.v1"

	NominationVoteRequestedV1 = "nomination.vote.requested.v1"
	NominationVoteAdmittedV1  = "nomination.vote.admitted.v1"
	NominationVoteRejectedV1  = "nomination.vote.rejected.v1"

	NominationCloseRequestedV1 = "nomination.close.requested.v1"
	NominationCloseRejectedV1  = "nomination.close.rejected.v1"
	NominationThreadClosedV1   = "nomination.thread.closed.v1"
)

type NominationStartRequestedPayloadV1 struct {
	NominatorID sharedtypes.DiscordID `json:"nominator_id"`
	NomineeID   sharedtypes.DiscordID `json:"nominee_id"`
	TierID      sharedtypes.TierID    `json:"tier_id"`
}

// NominationThreadPayloadV1 is the wire form of a nomination thread.
type NominationThreadPayloadV1 struct {
	ThreadID      uuid.UUID             `json:"thread_id"`
	NominatorID   sharedtypes.DiscordID `json:"nominator_id"`
	NomineeID     sharedtypes.DiscordID `json:"nominee_id"`
	TierID        sharedtypes.TierID    `json:"tier_id"`
	TierName      string                `json:"tier_name"`
	VoteCount     int                   `json:"vote_count"`
	RequiredVotes int                   `json:"required_votes"`
	State         string                `json:"state"`
	CloseReason   string                `json:"close_reason,omitempty"`
	ExpiresAt     *time.Time            `json:"expires_at,omitempty"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type NominationThreadOpenedPayloadV1 struct {
	Thread NominationThreadPayloadV1 `json:"thread"`
}

type NominationStartRejectedPayloadV1 struct {
	NominatorID sharedtypes.DiscordID `json:"nominator_id"`
	NomineeID   sharedtypes.DiscordID `json:"nominee_id"`
	TierID      sharedtypes.TierID    `json:"tier_id"`
	Reason      string                `json:"reason"`
}

type NominationVoteRequestedPayloadV1 struct {
	ThreadID uuid.UUID             `json:"thread_id"`
	VoterID  sharedtypes.DiscordID `json:"voter_id"`
}

type NominationVoteAdmittedPayloadV1 struct {
	VoteID  uuid.UUID                 `json:"vote_id"`
	VoterID sharedtypes.DiscordID     `json:"voter_id"`
	Thread  NominationThreadPayloadV1 `json:"thread"`
}

type NominationVoteRejectedPayloadV1 struct {
	ThreadID uuid.UUID             `json:"thread_id"`
	VoterID  sharedtypes.DiscordID `json:"voter_id"`
	Reason   string                `json:"reason"`
}

type NominationCloseRequestedPayloadV1 struct {
	ThreadID uuid.UUID `json:"thread_id"`
	Reason   string    `json:"reason"`
}

type NominationCloseRejectedPayloadV1 struct {
	ThreadID uuid.UUID `json:"thread_id"`
	Reason   string    `json:"reason"`
}

type NominationThreadClosedPayloadV1 struct {
	Thread NominationThreadPayloadV1 `json:"thread"`
}

// ThreadPayload converts a thread to its wire form.
func ThreadPayload(t nominationdomain.Thread) NominationThreadPayloadV1 {
	return NominationThreadPayloadV1{
		ThreadID:      t.ID,
		NominatorID:   t.NominatorID,
		NomineeID:     t.NomineeID,
		TierID:        t.TierID,
		TierName:      string(t.TierName),
		VoteCount:     t.VoteCount,
		RequiredVotes: t.RequiredVotes,
		State:         string(t.State),
		CloseReason:   string(t.CloseReason),
		ExpiresAt:     t.ExpiresAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
