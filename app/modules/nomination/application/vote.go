package nominationservice

import (
	"context"
	"errors"
	"fmt"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	nominationdb "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SubmitVote admits one vote on an open thread. Votes on the same thread are
// serialized; a rejected vote leaves the thread unchanged.
func (s *NominationService) SubmitVote(ctx context.Context, req SubmitVoteRequest) (VoteResult, error) {
	unlock := s.locks.Lock(threadKey(req.ThreadID))
	defer unlock()

	return withTelemetry(s, ctx, "SubmitVote", req.ThreadID.String(), func(ctx context.Context) (VoteResult, error) {
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (VoteResult, error) {
			return s.submitVoteLogic(ctx, db, req)
		})
		var rejected *rejectedWrite
		if errors.As(err, &rejected) {
			return s.rejectVote(ctx, rejected.tierName, rejected.reason), nil
		}
		return result, err
	})
}

// rejectedWrite aborts the vote transaction after a partial write so the
// rejection is reported without committing it.
type rejectedWrite struct {
	tierName string
	reason   error
}

func (e *rejectedWrite) Error() string { return e.reason.Error() }

func (e *rejectedWrite) Unwrap() error { return e.reason }

func (s *NominationService) submitVoteLogic(ctx context.Context, db bun.IDB, req SubmitVoteRequest) (VoteResult, error) {
	thread, err := s.repo.GetThreadForUpdate(ctx, db, req.ThreadID)
	if err != nil {
		if errors.Is(err, nominationdb.ErrNotFound) {
			return s.rejectVote(ctx, "", nominationdomain.ErrThreadNotAcceptingVotes), nil
		}
		return VoteResult{}, fmt.Errorf("failed to load thread: %w", err)
	}
	tierName := string(thread.TierName)

	now := s.now().UTC()
	if thread.State == nominationdomain.StateOpen && thread.Expired(now) {
		if _, err := s.closeThread(ctx, db, *thread, nominationdomain.CloseExpired, now); err != nil {
			return VoteResult{}, err
		}
		return s.rejectVote(ctx, tierName, nominationdomain.ErrThreadNotAcceptingVotes), nil
	}

	open, err := thread.AsOpen(now)
	if err != nil {
		return s.rejectVote(ctx, tierName, err), nil
	}

	tier, ok := s.tiers.ByID(thread.TierID)
	if !ok {
		return results.FailureResult[VoteOutcome, error](fmt.Errorf("%w: %s", ErrUnknownTier, thread.TierID)), nil
	}

	voted, err := s.repo.HasVoted(ctx, db, thread.ID, req.VoterID)
	if err != nil {
		return VoteResult{}, fmt.Errorf("failed to check prior vote: %w", err)
	}
	roles, err := s.members.ListCurrentRoles(ctx, req.VoterID)
	if err != nil {
		return VoteResult{}, fmt.Errorf("failed to read voter roles: %w", err)
	}

	adm, err := open.Admit(nominationdomain.Ballot{
		VoteID:       uuid.New(),
		VoterID:      req.VoterID,
		VoterRoles:   roles,
		AlreadyVoted: voted,
		Now:          now,
	}, tier.EligibleVoterRoles())
	if err != nil {
		return s.rejectVote(ctx, tierName, err), nil
	}

	if err := s.repo.RecordVote(ctx, db, adm.Vote, adm.Thread); err != nil {
		switch {
		case errors.Is(err, nominationdb.ErrDuplicateVote):
			return VoteResult{}, &rejectedWrite{tierName: tierName, reason: nominationdomain.ErrDuplicateVote}
		case errors.Is(err, nominationdb.ErrThreadNotOpen):
			return VoteResult{}, &rejectedWrite{tierName: tierName, reason: nominationdomain.ErrThreadNotAcceptingVotes}
		}
		return VoteResult{}, fmt.Errorf("failed to record vote: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordVote(ctx, tierName, "admitted")
		if adm.Closed {
			s.metrics.RecordThreadClosed(ctx, tierName, string(nominationdomain.CloseThresholdReached))
		}
	}

	return results.SuccessResult[VoteOutcome, error](VoteOutcome{
		Thread: adm.Thread,
		Vote:   adm.Vote,
		Closed: adm.Closed,
	}), nil
}

func (s *NominationService) rejectVote(ctx context.Context, tierName string, reason error) VoteResult {
	if s.metrics != nil {
		s.metrics.RecordVote(ctx, tierName, voteOutcomeLabel(reason))
	}
	return results.FailureResult[VoteOutcome, error](reason)
}

func voteOutcomeLabel(err error) string {
	switch {
	case errors.Is(err, nominationdomain.ErrSelfVote):
		return "self_vote"
	case errors.Is(err, nominationdomain.ErrDuplicateVote):
		return "duplicate"
	case errors.Is(err, nominationdomain.ErrVoterNotEligible):
		return "not_eligible"
	case errors.Is(err, nominationdomain.ErrThreadNotAcceptingVotes):
		return "not_accepting"
	default:
		return "rejected"
	}
}
