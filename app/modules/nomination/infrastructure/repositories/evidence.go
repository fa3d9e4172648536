package nominationdb

import (
	"context"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// EvidenceView exposes nomination history to the eligibility evaluator
// outside of any transaction.
type EvidenceView struct {
	repo Repository
}

func NewEvidenceView(repo Repository) *EvidenceView {
	return &EvidenceView{repo: repo}
}

func (v *EvidenceView) LatestThread(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error) {
	return v.repo.LatestThread(ctx, nil, nomineeID, tierID)
}

func (v *EvidenceView) QualifyingRounds(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (int, error) {
	return v.repo.QualifyingRounds(ctx, nil, nomineeID, tierID, requiredVotes)
}

func (v *EvidenceView) HasQualifyingThread(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (bool, error) {
	n, err := v.repo.QualifyingRounds(ctx, nil, nomineeID, tierID, requiredVotes)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
