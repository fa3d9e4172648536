package eligibilitydomain

import (
	"context"
	"errors"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// ErrEvidenceUnavailable marks a requirement that could not be checked because
// its evidence source is missing or failed.
var ErrEvidenceUnavailable = errors.New("evidence unavailable")

// BadgeQuery selects badges by category or by an explicit id set.
type BadgeQuery struct {
	Category string
	BadgeIDs []string
}

// BadgeLedger counts the badges a member holds.
type BadgeLedger interface {
	CountBadges(ctx context.Context, memberID sharedtypes.DiscordID, q BadgeQuery) (int, error)
}

// NominationView reads nomination threads. LatestThread returns nil and no
// error when the member was never nominated for the tier. HasQualifyingThread
// reports whether any thread for the member and tier, open or closed, reached
// requiredVotes.
type NominationView interface {
	HasQualifyingThread(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (bool, error)
	LatestThread(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error)
}

// RoundHistory is implemented by nomination views that keep past rounds. It
// counts the distinct threads for the member and tier that reached requiredVotes.
type RoundHistory interface {
	QualifyingRounds(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (int, error)
}

// AccountLinks reports the external accounts linked to a member.
type AccountLinks interface {
	HasLinkedAccount(ctx context.Context, memberID sharedtypes.DiscordID, provider string) (bool, error)
	HasStellarAccount(ctx context.Context, memberID sharedtypes.DiscordID) (bool, error)
}

// Evidence bundles the lookups an evaluation may use. Any of them may be nil;
// requirements that need a nil source are reported as unavailable.
type Evidence struct {
	Badges      BadgeLedger
	Nominations NominationView
	Accounts    AccountLinks
}
