package nominationservice

import (
	"context"
	"time"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/google/uuid"
)

// ThreadResult carries the thread produced by StartNomination.
type ThreadResult = results.OperationResult[nominationdomain.Thread, error]

// VoteResult carries the outcome of SubmitVote.
type VoteResult = results.OperationResult[VoteOutcome, error]

// CloseResult carries the outcome of CloseNomination.
type CloseResult = results.OperationResult[CloseOutcome, error]

// Service defines the nomination operations.
type Service interface {
	StartNomination(ctx context.Context, req StartNominationRequest) (ThreadResult, error)
	SubmitVote(ctx context.Context, req SubmitVoteRequest) (VoteResult, error)
	CloseNomination(ctx context.Context, threadID uuid.UUID, reason nominationdomain.CloseReason) (CloseResult, error)
	CloseExpired(ctx context.Context, limit int) ([]nominationdomain.Thread, error)
	GetThread(ctx context.Context, threadID uuid.UUID) (ThreadResult, error)
}

type StartNominationRequest struct {
	NominatorID sharedtypes.DiscordID
	NomineeID   sharedtypes.DiscordID
	TierID      sharedtypes.TierID
}

type SubmitVoteRequest struct {
	ThreadID uuid.UUID
	VoterID  sharedtypes.DiscordID
}

type VoteOutcome struct {
	Thread nominationdomain.Thread
	Vote   nominationdomain.Vote
	// Closed is set when this vote reached the threshold.
	Closed bool
}

type CloseOutcome struct {
	Thread nominationdomain.Thread
	// Changed is false when the thread was already closed.
	Changed bool
}

// TierCatalog resolves tier definitions.
type TierCatalog interface {
	ByID(id sharedtypes.TierID) (tierdomain.Tier, bool)
}

// RoleReader lists a member's current roles. Unknown members hold no roles.
type RoleReader interface {
	ListCurrentRoles(ctx context.Context, memberID sharedtypes.DiscordID) ([]sharedtypes.RoleName, error)
}

// ExpiryScheduler arranges for a thread to be closed when its voting window ends.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, threadID uuid.UUID, at time.Time) error
}
