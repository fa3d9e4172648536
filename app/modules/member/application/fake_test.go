package memberservice

import (
	"context"
	"sync"
	"time"

	memberdb "github.com/Black-And-White-Club/tier-bot/app/modules/member/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Member Repo
// ------------------------

type FakeMemberRepo struct {
	mu        sync.Mutex
	trace     []string
	snapshots map[sharedtypes.DiscordID]memberdb.Snapshot

	UpsertSnapshotFunc func(ctx context.Context, db bun.IDB, snap memberdb.Snapshot) error
	ListRolesFunc      func(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) ([]sharedtypes.RoleName, error)
}

func NewFakeMemberRepo() *FakeMemberRepo {
	return &FakeMemberRepo{
		trace:     []string{},
		snapshots: make(map[sharedtypes.DiscordID]memberdb.Snapshot),
	}
}

func (f *FakeMemberRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeMemberRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeMemberRepo) GetMember(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) (*sharedtypes.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetMember")
	snap, ok := f.snapshots[id]
	if !ok {
		return nil, memberdb.ErrNotFound
	}
	m := snap.Member
	return &m, nil
}

func (f *FakeMemberRepo) ListRoles(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) ([]sharedtypes.RoleName, error) {
	if f.ListRolesFunc != nil {
		return f.ListRolesFunc(ctx, db, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListRoles")
	snap, ok := f.snapshots[id]
	if !ok {
		return nil, nil
	}
	return snap.Member.RoleNames(), nil
}

func (f *FakeMemberRepo) UpsertSnapshot(ctx context.Context, db bun.IDB, snap memberdb.Snapshot) error {
	if f.UpsertSnapshotFunc != nil {
		return f.UpsertSnapshotFunc(ctx, db, snap)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertSnapshot")
	f.snapshots[snap.Member.ID] = snap
	return nil
}

func (f *FakeMemberRepo) AddRole(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID, role sharedtypes.RoleName, grantedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddRole")
	snap := f.snapshots[id]
	if snap.Member.HasRole(role) {
		return nil
	}
	snap.Member.ID = id
	snap.Member.Roles = append(snap.Member.Roles, sharedtypes.HeldRole{Name: role, GrantedAt: grantedAt})
	f.snapshots[id] = snap
	return nil
}

func (f *FakeMemberRepo) HasLinkedAccount(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID, provider string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("HasLinkedAccount")
	_, ok := f.snapshots[id].LinkedAccounts[provider]
	return ok, nil
}

func (f *FakeMemberRepo) HasStellarAccount(ctx context.Context, db bun.IDB, id sharedtypes.DiscordID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("HasStellarAccount")
	return f.snapshots[id].StellarAccount != "", nil
}

var _ memberdb.Repository = (*FakeMemberRepo)(nil)
