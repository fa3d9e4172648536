package nominationdb

import (
	"time"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Thread is the persisted nomination thread.
type Thread struct {
	bun.BaseModel `bun:"table:nomination_threads,alias:nt"`

	ID            uuid.UUID             `bun:"id,pk,type:uuid"`
	NominatorID   sharedtypes.DiscordID `bun:"nominator_id,notnull"`
	NomineeID     sharedtypes.DiscordID `bun:"nominee_id,notnull"`
	TierID        sharedtypes.TierID    `bun:"tier_id,notnull"`
	TierName      string                `bun:"tier_name,notnull"`
	VoteCount     int                   `bun:"vote_count,notnull,default:0"`
	RequiredVotes int                   `bun:"required_votes,notnull"`
	Status        string                `bun:"status,notnull"`
	CloseReason   *string               `bun:"close_reason,nullzero"`
	ExpiresAt     *time.Time            `bun:"expires_at,nullzero"`
	ClosedAt      *time.Time            `bun:"closed_at,nullzero"`
	CreatedAt     time.Time             `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time             `bun:"updated_at,notnull,default:current_timestamp"`
}

// Vote is one admitted vote. (thread_id, voter_id) is unique.
type Vote struct {
	bun.BaseModel `bun:"table:nomination_votes,alias:nv"`

	ID        uuid.UUID             `bun:"id,pk,type:uuid"`
	ThreadID  uuid.UUID             `bun:"thread_id,notnull,type:uuid"`
	VoterID   sharedtypes.DiscordID `bun:"voter_id,notnull"`
	VotedAt   time.Time             `bun:"voted_at,notnull"`
	CreatedAt time.Time             `bun:"created_at,notnull,default:current_timestamp"`
}

func (t *Thread) toDomain() nominationdomain.Thread {
	out := nominationdomain.Thread{
		ID:            t.ID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		NominatorID:   t.NominatorID,
		NomineeID:     t.NomineeID,
		TierID:        t.TierID,
		TierName:      tierdomain.TierName(t.TierName),
		VoteCount:     t.VoteCount,
		RequiredVotes: t.RequiredVotes,
		State:         nominationdomain.ThreadState(t.Status),
		ExpiresAt:     t.ExpiresAt,
		ClosedAt:      t.ClosedAt,
	}
	if t.CloseReason != nil {
		out.CloseReason = nominationdomain.CloseReason(*t.CloseReason)
	}
	return out
}

func threadFromDomain(t nominationdomain.Thread) *Thread {
	row := &Thread{
		ID:            t.ID,
		NominatorID:   t.NominatorID,
		NomineeID:     t.NomineeID,
		TierID:        t.TierID,
		TierName:      string(t.TierName),
		VoteCount:     t.VoteCount,
		RequiredVotes: t.RequiredVotes,
		Status:        string(t.State),
		ExpiresAt:     t.ExpiresAt,
		ClosedAt:      t.ClosedAt,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.CloseReason != "" {
		reason := string(t.CloseReason)
		row.CloseReason = &reason
	}
	return row
}

func voteFromDomain(v nominationdomain.Vote) *Vote {
	return &Vote{
		ID:        v.ID,
		ThreadID:  v.ThreadID,
		VoterID:   v.VoterID,
		VotedAt:   v.VotedAt,
		CreatedAt: v.CreatedAt,
	}
}
