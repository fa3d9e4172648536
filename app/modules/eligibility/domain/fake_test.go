package eligibilitydomain

import (
	"context"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// FakeBadgeLedger returns counts per category, or per joined id set.
type FakeBadgeLedger struct {
	trace           []string
	CountBadgesFunc func(ctx context.Context, memberID sharedtypes.DiscordID, q BadgeQuery) (int, error)
}

func (f *FakeBadgeLedger) Trace() []string { return f.trace }

func (f *FakeBadgeLedger) CountBadges(ctx context.Context, memberID sharedtypes.DiscordID, q BadgeQuery) (int, error) {
	f.trace = append(f.trace, "CountBadges")
	if f.CountBadgesFunc != nil {
		return f.CountBadgesFunc(ctx, memberID, q)
	}
	return 0, nil
}

func badgeCounts(counts map[string]int) *FakeBadgeLedger {
	return &FakeBadgeLedger{
		CountBadgesFunc: func(_ context.Context, _ sharedtypes.DiscordID, q BadgeQuery) (int, error) {
			if q.Category != "" {
				return counts[q.Category], nil
			}
			n := 0
			for _, id := range q.BadgeIDs {
				n += counts[id]
			}
			return n, nil
		},
	}
}

type FakeNominationView struct {
	trace                   []string
	HasQualifyingThreadFunc func(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (bool, error)
	LatestThreadFunc        func(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error)
}

func (f *FakeNominationView) Trace() []string { return f.trace }

func (f *FakeNominationView) HasQualifyingThread(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (bool, error) {
	f.trace = append(f.trace, "HasQualifyingThread")
	if f.HasQualifyingThreadFunc != nil {
		return f.HasQualifyingThreadFunc(ctx, nomineeID, tierID, requiredVotes)
	}
	return false, nil
}

func (f *FakeNominationView) LatestThread(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error) {
	f.trace = append(f.trace, "LatestThread")
	if f.LatestThreadFunc != nil {
		return f.LatestThreadFunc(ctx, nomineeID, tierID)
	}
	return nil, nil
}

// threadHistory serves a fixed list of threads, newest last.
func threadHistory(threads ...nominationdomain.Thread) *FakeNominationView {
	return &FakeNominationView{
		HasQualifyingThreadFunc: func(_ context.Context, _ sharedtypes.DiscordID, _ sharedtypes.TierID, requiredVotes int) (bool, error) {
			for _, t := range threads {
				if t.State != nominationdomain.StateNone && t.VoteCount >= requiredVotes {
					return true, nil
				}
			}
			return false, nil
		},
		LatestThreadFunc: func(context.Context, sharedtypes.DiscordID, sharedtypes.TierID) (*nominationdomain.Thread, error) {
			if len(threads) == 0 {
				return nil, nil
			}
			latest := threads[len(threads)-1]
			return &latest, nil
		},
	}
}

// FakeRoundHistory is a nomination view that also reports past rounds.
type FakeRoundHistory struct {
	FakeNominationView
	QualifyingRoundsFunc func(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (int, error)
}

func (f *FakeRoundHistory) QualifyingRounds(ctx context.Context, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (int, error) {
	f.trace = append(f.trace, "QualifyingRounds")
	if f.QualifyingRoundsFunc != nil {
		return f.QualifyingRoundsFunc(ctx, nomineeID, tierID, requiredVotes)
	}
	return 0, nil
}

type FakeAccountLinks struct {
	HasLinkedAccountFunc  func(ctx context.Context, memberID sharedtypes.DiscordID, provider string) (bool, error)
	HasStellarAccountFunc func(ctx context.Context, memberID sharedtypes.DiscordID) (bool, error)
}

func (f *FakeAccountLinks) HasLinkedAccount(ctx context.Context, memberID sharedtypes.DiscordID, provider string) (bool, error) {
	if f.HasLinkedAccountFunc != nil {
		return f.HasLinkedAccountFunc(ctx, memberID, provider)
	}
	return false, nil
}

func (f *FakeAccountLinks) HasStellarAccount(ctx context.Context, memberID sharedtypes.DiscordID) (bool, error) {
	if f.HasStellarAccountFunc != nil {
		return f.HasStellarAccountFunc(ctx, memberID)
	}
	return false, nil
}

var (
	_ BadgeLedger    = (*FakeBadgeLedger)(nil)
	_ NominationView = (*FakeNominationView)(nil)
	_ RoundHistory   = (*FakeRoundHistory)(nil)
	_ AccountLinks   = (*FakeAccountLinks)(nil)
)
