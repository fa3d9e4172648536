package nominationdb

import (
	"context"
	"time"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for nomination persistence. Every method
// takes an optional bun.IDB so it can join the caller's transaction.
type Repository interface {
	// GetThread returns ErrNotFound when the thread does not exist.
	GetThread(ctx context.Context, db bun.IDB, id uuid.UUID) (*nominationdomain.Thread, error)

	// GetThreadForUpdate reads the thread and locks its row until the transaction ends.
	GetThreadForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*nominationdomain.Thread, error)

	// GetOpenThread returns the open thread for the nominee and tier, or ErrNotFound.
	GetOpenThread(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error)

	// LatestThread returns the most recent thread in any state, or nil when none exists.
	LatestThread(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error)

	// QualifyingRounds counts the threads for the nominee and tier that reached requiredVotes.
	QualifyingRounds(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (int, error)

	// CreateThread inserts an open thread, or returns ErrOpenThreadExists.
	CreateThread(ctx context.Context, db bun.IDB, thread nominationdomain.Thread) error

	HasVoted(ctx context.Context, db bun.IDB, threadID uuid.UUID, voterID sharedtypes.DiscordID) (bool, error)

	// RecordVote inserts the vote and writes the thread's new count and state.
	// It returns ErrDuplicateVote on a repeat voter and ErrThreadNotOpen when
	// the thread was closed concurrently.
	RecordVote(ctx context.Context, db bun.IDB, vote nominationdomain.Vote, thread nominationdomain.Thread) error

	// CloseThread persists a closed thread. It reports false when the thread
	// was already closed.
	CloseThread(ctx context.Context, db bun.IDB, thread nominationdomain.Thread) (bool, error)

	// ListExpiredOpenThreads returns open threads whose voting window ended before now.
	ListExpiredOpenThreads(ctx context.Context, db bun.IDB, now time.Time, limit int) ([]nominationdomain.Thread, error)
}
