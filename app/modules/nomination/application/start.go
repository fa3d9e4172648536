package nominationservice

import (
	"context"
	"errors"
	"fmt"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	nominationdb "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StartNomination opens a nomination thread for the nominee at the tier.
func (s *NominationService) StartNomination(ctx context.Context, req StartNominationRequest) (ThreadResult, error) {
	unlock := s.locks.Lock(nomineeKey(req))
	defer unlock()

	result, err := withTelemetry(s, ctx, "StartNomination", string(req.NomineeID), func(ctx context.Context) (ThreadResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (ThreadResult, error) {
			return s.startNominationLogic(ctx, db, req)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	thread := *result.Success
	if thread.ExpiresAt != nil && s.expiry != nil {
		if err := s.expiry.ScheduleExpiry(ctx, thread.ID, *thread.ExpiresAt); err != nil {
			// The periodic expiry sweep still closes the thread.
			s.logger.WarnContext(ctx, "Failed to schedule nomination expiry",
				attr.ExtractCorrelationID(ctx),
				attr.String("thread_id", thread.ID.String()),
				attr.Error(err),
			)
		}
	}
	return result, nil
}

func (s *NominationService) startNominationLogic(ctx context.Context, db bun.IDB, req StartNominationRequest) (ThreadResult, error) {
	tier, ok := s.tiers.ByID(req.TierID)
	if !ok {
		return results.FailureResult[nominationdomain.Thread, error](fmt.Errorf("%w: %s", ErrUnknownTier, req.TierID)), nil
	}

	roles, err := s.members.ListCurrentRoles(ctx, req.NominatorID)
	if err != nil {
		return ThreadResult{}, fmt.Errorf("failed to read nominator roles: %w", err)
	}

	now := s.now().UTC()
	open, err := nominationdomain.Start(nominationdomain.StartParams{
		ID:             uuid.New(),
		Tier:           tier,
		NominatorID:    req.NominatorID,
		NominatorRoles: roles,
		NomineeID:      req.NomineeID,
		Now:            now,
		VotingWindow:   s.votingWindow,
	})
	if err != nil {
		return results.FailureResult[nominationdomain.Thread, error](err), nil
	}

	existing, err := s.repo.GetOpenThread(ctx, db, req.NomineeID, req.TierID)
	switch {
	case errors.Is(err, nominationdb.ErrNotFound):
	case err != nil:
		return ThreadResult{}, fmt.Errorf("failed to check open thread: %w", err)
	case existing.Expired(now):
		if _, err := s.closeThread(ctx, db, *existing, nominationdomain.CloseExpired, now); err != nil {
			return ThreadResult{}, err
		}
	default:
		return results.FailureResult[nominationdomain.Thread, error](nominationdomain.ErrThreadAlreadyOpen), nil
	}

	thread := open.Thread()
	if err := s.repo.CreateThread(ctx, db, thread); err != nil {
		if errors.Is(err, nominationdb.ErrOpenThreadExists) {
			return results.FailureResult[nominationdomain.Thread, error](nominationdomain.ErrThreadAlreadyOpen), nil
		}
		return ThreadResult{}, fmt.Errorf("failed to create thread: %w", err)
	}

	return results.SuccessResult[nominationdomain.Thread, error](thread), nil
}

// GetThread returns a thread by id.
func (s *NominationService) GetThread(ctx context.Context, threadID uuid.UUID) (ThreadResult, error) {
	return withTelemetry(s, ctx, "GetThread", threadID.String(), func(ctx context.Context) (ThreadResult, error) {
		thread, err := s.repo.GetThread(ctx, nil, threadID)
		if err != nil {
			if errors.Is(err, nominationdb.ErrNotFound) {
				return results.FailureResult[nominationdomain.Thread, error](nominationdomain.ErrThreadNotFound), nil
			}
			return ThreadResult{}, err
		}
		return results.SuccessResult[nominationdomain.Thread, error](*thread), nil
	})
}

func nomineeKey(req StartNominationRequest) string {
	return "nominee:" + string(req.NomineeID) + ":" + string(req.TierID)
}

func threadKey(id uuid.UUID) string {
	return "thread:" + id.String()
}
