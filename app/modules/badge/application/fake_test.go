package badgeservice

import (
	"context"

	badgedb "github.com/Black-And-White-Club/tier-bot/app/modules/badge/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Badge Repo
// ------------------------

type FakeBadgeRepo struct {
	trace   []string
	badges  map[string]badgedb.Badge
	awards  map[sharedtypes.DiscordID]map[string]badgedb.MemberBadge
	AwardFn func(ctx context.Context, db bun.IDB, awards []badgedb.MemberBadge) (int, error)
}

func NewFakeBadgeRepo() *FakeBadgeRepo {
	return &FakeBadgeRepo{
		trace:  []string{},
		badges: make(map[string]badgedb.Badge),
		awards: make(map[sharedtypes.DiscordID]map[string]badgedb.MemberBadge),
	}
}

func (f *FakeBadgeRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeBadgeRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeBadgeRepo) EnsureBadges(ctx context.Context, db bun.IDB, badges []badgedb.Badge) error {
	f.record("EnsureBadges")
	for _, b := range badges {
		if _, ok := f.badges[b.ID]; !ok {
			f.badges[b.ID] = b
		}
	}
	return nil
}

func (f *FakeBadgeRepo) AwardBadges(ctx context.Context, db bun.IDB, awards []badgedb.MemberBadge) (int, error) {
	f.record("AwardBadges")
	if f.AwardFn != nil {
		return f.AwardFn(ctx, db, awards)
	}
	n := 0
	for _, a := range awards {
		held := f.awards[a.MemberID]
		if held == nil {
			held = make(map[string]badgedb.MemberBadge)
			f.awards[a.MemberID] = held
		}
		if _, ok := held[a.BadgeID]; ok {
			continue
		}
		held[a.BadgeID] = a
		n++
	}
	return n, nil
}

func (f *FakeBadgeRepo) CountByCategory(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, category string) (int, error) {
	f.record("CountByCategory")
	n := 0
	for id := range f.awards[memberID] {
		if f.badges[id].Category == category {
			n++
		}
	}
	return n, nil
}

func (f *FakeBadgeRepo) CountByIDs(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, badgeIDs []string) (int, error) {
	f.record("CountByIDs")
	n := 0
	for _, id := range badgeIDs {
		if _, ok := f.awards[memberID][id]; ok {
			n++
		}
	}
	return n, nil
}

var _ badgedb.Repository = (*FakeBadgeRepo)(nil)
