package nominationservice

import (
	"context"
	"sync"
	"time"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	nominationdb "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Nomination Repo
// ------------------------

// FakeNominationRepo keeps threads and votes in memory. Any *Func field that is
// set replaces the in-memory behaviour for that method.
type FakeNominationRepo struct {
	mu      sync.Mutex
	trace   []string
	threads map[uuid.UUID]nominationdomain.Thread
	votes   map[uuid.UUID][]nominationdomain.Vote

	GetThreadFunc     func(ctx context.Context, db bun.IDB, id uuid.UUID) (*nominationdomain.Thread, error)
	GetOpenThreadFunc func(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error)
	CreateThreadFunc  func(ctx context.Context, db bun.IDB, thread nominationdomain.Thread) error
	HasVotedFunc      func(ctx context.Context, db bun.IDB, threadID uuid.UUID, voterID sharedtypes.DiscordID) (bool, error)
	RecordVoteFunc    func(ctx context.Context, db bun.IDB, vote nominationdomain.Vote, thread nominationdomain.Thread) error
	CloseThreadFunc   func(ctx context.Context, db bun.IDB, thread nominationdomain.Thread) (bool, error)
	ListExpiredFunc   func(ctx context.Context, db bun.IDB, now time.Time, limit int) ([]nominationdomain.Thread, error)
}

func NewFakeNominationRepo() *FakeNominationRepo {
	return &FakeNominationRepo{
		trace:   []string{},
		threads: make(map[uuid.UUID]nominationdomain.Thread),
		votes:   make(map[uuid.UUID][]nominationdomain.Vote),
	}
}

func (f *FakeNominationRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeNominationRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Put stores a thread directly.
func (f *FakeNominationRepo) Put(t nominationdomain.Thread) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads[t.ID] = t
}

func (f *FakeNominationRepo) Thread(id uuid.UUID) nominationdomain.Thread {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threads[id]
}

func (f *FakeNominationRepo) Votes(id uuid.UUID) []nominationdomain.Vote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]nominationdomain.Vote(nil), f.votes[id]...)
}

// --- Repository Interface Implementation ---

func (f *FakeNominationRepo) GetThread(ctx context.Context, db bun.IDB, id uuid.UUID) (*nominationdomain.Thread, error) {
	f.record("GetThread")
	if f.GetThreadFunc != nil {
		return f.GetThreadFunc(ctx, db, id)
	}
	return f.get(id)
}

func (f *FakeNominationRepo) GetThreadForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*nominationdomain.Thread, error) {
	f.record("GetThreadForUpdate")
	if f.GetThreadFunc != nil {
		return f.GetThreadFunc(ctx, db, id)
	}
	return f.get(id)
}

func (f *FakeNominationRepo) get(id uuid.UUID) (*nominationdomain.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.threads[id]
	if !ok {
		return nil, nominationdb.ErrNotFound
	}
	return &t, nil
}

func (f *FakeNominationRepo) GetOpenThread(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error) {
	f.record("GetOpenThread")
	if f.GetOpenThreadFunc != nil {
		return f.GetOpenThreadFunc(ctx, db, nomineeID, tierID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.threads {
		if t.NomineeID == nomineeID && t.TierID == tierID && t.State == nominationdomain.StateOpen {
			return &t, nil
		}
	}
	return nil, nominationdb.ErrNotFound
}

func (f *FakeNominationRepo) LatestThread(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID) (*nominationdomain.Thread, error) {
	f.record("LatestThread")
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *nominationdomain.Thread
	for _, t := range f.threads {
		if t.NomineeID == nomineeID && t.TierID == tierID && (latest == nil || t.CreatedAt.After(latest.CreatedAt)) {
			t := t
			latest = &t
		}
	}
	return latest, nil
}

func (f *FakeNominationRepo) QualifyingRounds(ctx context.Context, db bun.IDB, nomineeID sharedtypes.DiscordID, tierID sharedtypes.TierID, requiredVotes int) (int, error) {
	f.record("QualifyingRounds")
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.threads {
		if t.NomineeID == nomineeID && t.TierID == tierID && t.VoteCount >= requiredVotes {
			n++
		}
	}
	return n, nil
}

func (f *FakeNominationRepo) CreateThread(ctx context.Context, db bun.IDB, thread nominationdomain.Thread) error {
	f.record("CreateThread")
	if f.CreateThreadFunc != nil {
		return f.CreateThreadFunc(ctx, db, thread)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.threads {
		if t.NomineeID == thread.NomineeID && t.TierID == thread.TierID && t.State == nominationdomain.StateOpen {
			return nominationdb.ErrOpenThreadExists
		}
	}
	f.threads[thread.ID] = thread
	return nil
}

func (f *FakeNominationRepo) HasVoted(ctx context.Context, db bun.IDB, threadID uuid.UUID, voterID sharedtypes.DiscordID) (bool, error) {
	f.record("HasVoted")
	if f.HasVotedFunc != nil {
		return f.HasVotedFunc(ctx, db, threadID, voterID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.votes[threadID] {
		if v.VoterID == voterID {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeNominationRepo) RecordVote(ctx context.Context, db bun.IDB, vote nominationdomain.Vote, thread nominationdomain.Thread) error {
	f.record("RecordVote")
	if f.RecordVoteFunc != nil {
		return f.RecordVoteFunc(ctx, db, vote, thread)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.votes[vote.ThreadID] {
		if v.VoterID == vote.VoterID {
			return nominationdb.ErrDuplicateVote
		}
	}
	current := f.threads[thread.ID]
	if current.State != nominationdomain.StateOpen || current.VoteCount != thread.VoteCount-1 {
		return nominationdb.ErrThreadNotOpen
	}
	f.votes[vote.ThreadID] = append(f.votes[vote.ThreadID], vote)
	f.threads[thread.ID] = thread
	return nil
}

func (f *FakeNominationRepo) CloseThread(ctx context.Context, db bun.IDB, thread nominationdomain.Thread) (bool, error) {
	f.record("CloseThread")
	if f.CloseThreadFunc != nil {
		return f.CloseThreadFunc(ctx, db, thread)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.threads[thread.ID].State != nominationdomain.StateOpen {
		return false, nil
	}
	f.threads[thread.ID] = thread
	return true, nil
}

func (f *FakeNominationRepo) ListExpiredOpenThreads(ctx context.Context, db bun.IDB, now time.Time, limit int) ([]nominationdomain.Thread, error) {
	f.record("ListExpiredOpenThreads")
	if f.ListExpiredFunc != nil {
		return f.ListExpiredFunc(ctx, db, now, limit)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []nominationdomain.Thread
	for _, t := range f.threads {
		if t.State == nominationdomain.StateOpen && t.Expired(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

var _ nominationdb.Repository = (*FakeNominationRepo)(nil)

// ------------------------
// Fake collaborators
// ------------------------

type FakeTierCatalog map[sharedtypes.TierID]tierdomain.Tier

func (f FakeTierCatalog) ByID(id sharedtypes.TierID) (tierdomain.Tier, bool) {
	t, ok := f[id]
	return t, ok
}

type FakeRoleReader struct {
	Roles                map[sharedtypes.DiscordID][]sharedtypes.RoleName
	ListCurrentRolesFunc func(ctx context.Context, memberID sharedtypes.DiscordID) ([]sharedtypes.RoleName, error)
}

func (f *FakeRoleReader) ListCurrentRoles(ctx context.Context, memberID sharedtypes.DiscordID) ([]sharedtypes.RoleName, error) {
	if f.ListCurrentRolesFunc != nil {
		return f.ListCurrentRolesFunc(ctx, memberID)
	}
	return f.Roles[memberID], nil
}

type FakeExpiryScheduler struct {
	mu        sync.Mutex
	Scheduled map[uuid.UUID]time.Time
	Err       error
}

func (f *FakeExpiryScheduler) ScheduleExpiry(_ context.Context, threadID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if f.Scheduled == nil {
		f.Scheduled = make(map[uuid.UUID]time.Time)
	}
	f.Scheduled[threadID] = at
	return nil
}

var (
	_ TierCatalog     = FakeTierCatalog(nil)
	_ RoleReader      = (*FakeRoleReader)(nil)
	_ ExpiryScheduler = (*FakeExpiryScheduler)(nil)
)
