package eligibilityservice

import (
	"context"
	"sync"
	"time"

	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	eligibilitydb "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRoleAssigner records every GrantRole call.
type FakeRoleAssigner struct {
	mu    sync.Mutex
	calls []grantCall

	GrantRoleFunc func(ctx context.Context, memberID sharedtypes.DiscordID, role sharedtypes.RoleName, reason string) error
}

type grantCall struct {
	MemberID sharedtypes.DiscordID
	Role     sharedtypes.RoleName
	Reason   string
}

func (f *FakeRoleAssigner) GrantRole(ctx context.Context, memberID sharedtypes.DiscordID, role sharedtypes.RoleName, reason string) error {
	f.mu.Lock()
	f.calls = append(f.calls, grantCall{MemberID: memberID, Role: role, Reason: reason})
	f.mu.Unlock()
	if f.GrantRoleFunc != nil {
		return f.GrantRoleFunc(ctx, memberID, role, reason)
	}
	return nil
}

func (f *FakeRoleAssigner) Calls() []grantCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]grantCall(nil), f.calls...)
}

type FakeBadgeLedger struct {
	CountBadgesFunc func(ctx context.Context, memberID sharedtypes.DiscordID, q eligibilitydomain.BadgeQuery) (int, error)
}

func (f *FakeBadgeLedger) CountBadges(ctx context.Context, memberID sharedtypes.DiscordID, q eligibilitydomain.BadgeQuery) (int, error) {
	if f.CountBadgesFunc != nil {
		return f.CountBadgesFunc(ctx, memberID, q)
	}
	return 0, nil
}

// categoryLedger reports fixed counts per category.
func categoryLedger(counts map[string]int) *FakeBadgeLedger {
	return &FakeBadgeLedger{
		CountBadgesFunc: func(_ context.Context, _ sharedtypes.DiscordID, q eligibilitydomain.BadgeQuery) (int, error) {
			return counts[q.Category], nil
		},
	}
}

type FakeMemberDirectory struct {
	trace         []string
	GetMemberFunc func(ctx context.Context, id sharedtypes.DiscordID) (sharedtypes.Member, error)
}

func (f *FakeMemberDirectory) Trace() []string { return f.trace }

func (f *FakeMemberDirectory) GetMember(ctx context.Context, id sharedtypes.DiscordID) (sharedtypes.Member, error) {
	f.trace = append(f.trace, "GetMember")
	if f.GetMemberFunc != nil {
		return f.GetMemberFunc(ctx, id)
	}
	return sharedtypes.Member{}, sharedtypes.ErrMemberNotFound
}

type FakeRoleLedger struct {
	added       []sharedtypes.RoleName
	AddRoleFunc func(ctx context.Context, id sharedtypes.DiscordID, role sharedtypes.RoleName, grantedAt time.Time) error
}

func (f *FakeRoleLedger) AddRole(ctx context.Context, id sharedtypes.DiscordID, role sharedtypes.RoleName, grantedAt time.Time) error {
	f.added = append(f.added, role)
	if f.AddRoleFunc != nil {
		return f.AddRoleFunc(ctx, id, role, grantedAt)
	}
	return nil
}

type FakeGrantRecorder struct {
	records         []GrantRecord
	RecordGrantFunc func(ctx context.Context, rec GrantRecord) error
}

func (f *FakeGrantRecorder) RecordGrant(ctx context.Context, rec GrantRecord) error {
	f.records = append(f.records, rec)
	if f.RecordGrantFunc != nil {
		return f.RecordGrantFunc(ctx, rec)
	}
	return nil
}

type FakeGrantRepo struct {
	rows           []eligibilitydb.RoleGrant
	ListGrantsFunc func(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, limit int) ([]eligibilitydb.RoleGrant, error)
}

func (f *FakeGrantRepo) InsertGrant(_ context.Context, _ bun.IDB, grant *eligibilitydb.RoleGrant) error {
	f.rows = append(f.rows, *grant)
	return nil
}

func (f *FakeGrantRepo) GetGrant(_ context.Context, _ bun.IDB, id uuid.UUID) (*eligibilitydb.RoleGrant, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, eligibilitydb.ErrGrantNotFound
}

func (f *FakeGrantRepo) ListGrants(ctx context.Context, db bun.IDB, memberID sharedtypes.DiscordID, limit int) ([]eligibilitydb.RoleGrant, error) {
	if f.ListGrantsFunc != nil {
		return f.ListGrantsFunc(ctx, db, memberID, limit)
	}
	var out []eligibilitydb.RoleGrant
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].MemberID == memberID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

var _ eligibilitydb.Repository = (*FakeGrantRepo)(nil)
