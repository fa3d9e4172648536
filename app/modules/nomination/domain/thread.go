// Package nominationdomain holds the nomination thread state machine. A thread
// moves NONE -> OPEN -> CLOSED and never reopens. Only an OpenThread can admit
// votes; a Thread read from storage must be converted with AsOpen first.
package nominationdomain

import (
	"time"

	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
)

// ThreadState is the lifecycle state of a nomination thread.
type ThreadState string

const (
	StateNone   ThreadState = "none"
	StateOpen   ThreadState = "open"
	StateClosed ThreadState = "closed"
)

// CloseReason records why a thread stopped accepting votes.
type CloseReason string

const (
	CloseThresholdReached CloseReason = "threshold_reached"
	CloseCancelled        CloseReason = "cancelled"
	CloseExpired          CloseReason = "expired"
)

func (r CloseReason) IsValid() bool {
	switch r {
	case CloseThresholdReached, CloseCancelled, CloseExpired:
		return true
	}
	return false
}

// Thread is a nomination of one member for one tier.
type Thread struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	NominatorID   sharedtypes.DiscordID
	NomineeID     sharedtypes.DiscordID
	TierID        sharedtypes.TierID
	TierName      tierdomain.TierName
	VoteCount     int
	RequiredVotes int
	State         ThreadState
	CloseReason   CloseReason
	ExpiresAt     *time.Time
	ClosedAt      *time.Time
}

// Vote is one admitted vote on a thread.
type Vote struct {
	ID        uuid.UUID
	ThreadID  uuid.UUID
	VoterID   sharedtypes.DiscordID
	VotedAt   time.Time
	CreatedAt time.Time
}

// Expired reports whether the voting window of t has passed at now.
func (t Thread) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// ThresholdReached reports whether the thread collected its required votes.
func (t Thread) ThresholdReached() bool {
	return t.RequiredVotes > 0 && t.VoteCount >= t.RequiredVotes
}

// StartParams describes a new nomination.
type StartParams struct {
	ID             uuid.UUID
	Tier           tierdomain.Tier
	NominatorID    sharedtypes.DiscordID
	NominatorRoles []sharedtypes.RoleName
	NomineeID      sharedtypes.DiscordID
	Now            time.Time
	// VotingWindow bounds how long the thread accepts votes; zero means no deadline.
	VotingWindow time.Duration
}

// Start opens a thread with zero votes. The caller checks that no other open
// thread exists for the nominee and tier.
func Start(p StartParams) (OpenThread, error) {
	if !p.Tier.NominationEnabled {
		return OpenThread{}, ErrNominationDisabled
	}
	if !p.Tier.CanNominate(p.NominatorRoles) {
		return OpenThread{}, ErrNominatorNotEligible
	}
	if p.NominatorID == p.NomineeID {
		return OpenThread{}, ErrSelfNomination
	}

	t := Thread{
		ID:            p.ID,
		CreatedAt:     p.Now,
		UpdatedAt:     p.Now,
		NominatorID:   p.NominatorID,
		NomineeID:     p.NomineeID,
		TierID:        p.Tier.ID,
		TierName:      p.Tier.Name,
		RequiredVotes: p.Tier.RequiredVotes,
		State:         StateOpen,
	}
	if p.VotingWindow > 0 {
		expires := p.Now.Add(p.VotingWindow)
		t.ExpiresAt = &expires
	}
	return OpenThread{t: t}, nil
}

// AsOpen returns t as an OpenThread when it still accepts votes at now.
func (t Thread) AsOpen(now time.Time) (OpenThread, error) {
	if t.State != StateOpen || t.Expired(now) {
		return OpenThread{}, ErrThreadNotAcceptingVotes
	}
	return OpenThread{t: t}, nil
}

// Close moves t to CLOSED. Closing an already closed thread is a no-op and
// reports changed=false; its original reason is kept.
func (t Thread) Close(reason CloseReason, now time.Time) (closed ClosedThread, changed bool, err error) {
	if !reason.IsValid() {
		return ClosedThread{}, false, ErrInvalidCloseReason
	}
	if t.State == StateClosed {
		return ClosedThread{t: t}, false, nil
	}
	return OpenThread{t: t}.Close(reason, now), true, nil
}

// OpenThread is a thread in the OPEN state.
type OpenThread struct {
	t Thread
}

func (o OpenThread) Thread() Thread { return o.t }

// Ballot is a vote request together with what is known about the voter.
type Ballot struct {
	VoteID     uuid.UUID
	VoterID    sharedtypes.DiscordID
	VoterRoles []sharedtypes.RoleName
	// AlreadyVoted is true when a vote by VoterID is already recorded on the thread.
	AlreadyVoted bool
	Now          time.Time
}

// Admission is the result of admitting a vote.
type Admission struct {
	Vote   Vote
	Thread Thread
	// Closed is set when this vote reached the threshold and closed the thread.
	Closed bool
}

// Admit checks b against the thread and the eligible voter roles and, when it
// passes, returns the thread with exactly one more vote. Rejections leave the
// thread untouched. The checks run in order: self vote, duplicate, eligibility.
func (o OpenThread) Admit(b Ballot, eligibleVoterRoles []sharedtypes.RoleName) (Admission, error) {
	if b.VoterID == o.t.NomineeID {
		return Admission{}, ErrSelfVote
	}
	if b.AlreadyVoted {
		return Admission{}, ErrDuplicateVote
	}
	if !sharedtypes.IntersectsRoles(b.VoterRoles, eligibleVoterRoles) {
		return Admission{}, ErrVoterNotEligible
	}

	next := o.t
	next.VoteCount++
	next.UpdatedAt = b.Now

	adm := Admission{
		Vote: Vote{
			ID:        b.VoteID,
			ThreadID:  o.t.ID,
			VoterID:   b.VoterID,
			VotedAt:   b.Now,
			CreatedAt: b.Now,
		},
		Thread: next,
	}
	if next.ThresholdReached() {
		adm.Thread = OpenThread{t: next}.Close(CloseThresholdReached, b.Now).Thread()
		adm.Closed = true
	}
	return adm, nil
}

// Close moves the thread to CLOSED with reason.
func (o OpenThread) Close(reason CloseReason, now time.Time) ClosedThread {
	t := o.t
	t.State = StateClosed
	t.CloseReason = reason
	t.UpdatedAt = now
	t.ClosedAt = &now
	return ClosedThread{t: t}
}

// ClosedThread is a thread in the terminal CLOSED state.
type ClosedThread struct {
	t Thread
}

func (c ClosedThread) Thread() Thread { return c.t }
