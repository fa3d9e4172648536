package nominationservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	nominationdb "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CloseNomination closes a thread. Closing a closed thread succeeds with
// Changed=false and keeps the original close reason.
func (s *NominationService) CloseNomination(ctx context.Context, threadID uuid.UUID, reason nominationdomain.CloseReason) (CloseResult, error) {
	unlock := s.locks.Lock(threadKey(threadID))
	defer unlock()

	return withTelemetry(s, ctx, "CloseNomination", threadID.String(), func(ctx context.Context) (CloseResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (CloseResult, error) {
			return s.closeNominationLogic(ctx, db, threadID, reason)
		})
	})
}

func (s *NominationService) closeNominationLogic(ctx context.Context, db bun.IDB, threadID uuid.UUID, reason nominationdomain.CloseReason) (CloseResult, error) {
	if !reason.IsValid() {
		return results.FailureResult[CloseOutcome, error](nominationdomain.ErrInvalidCloseReason), nil
	}

	thread, err := s.repo.GetThreadForUpdate(ctx, db, threadID)
	if err != nil {
		if errors.Is(err, nominationdb.ErrNotFound) {
			return results.FailureResult[CloseOutcome, error](nominationdomain.ErrThreadNotFound), nil
		}
		return CloseResult{}, fmt.Errorf("failed to load thread: %w", err)
	}

	outcome, err := s.closeThread(ctx, db, *thread, reason, s.now().UTC())
	if err != nil {
		return CloseResult{}, err
	}
	return results.SuccessResult[CloseOutcome, error](outcome), nil
}

// closeThread moves thread to CLOSED and persists it when it was still open.
func (s *NominationService) closeThread(ctx context.Context, db bun.IDB, thread nominationdomain.Thread, reason nominationdomain.CloseReason, now time.Time) (CloseOutcome, error) {
	closed, changed, err := thread.Close(reason, now)
	if err != nil {
		return CloseOutcome{}, err
	}
	if !changed {
		return CloseOutcome{Thread: closed.Thread()}, nil
	}

	persisted, err := s.repo.CloseThread(ctx, db, closed.Thread())
	if err != nil {
		return CloseOutcome{}, fmt.Errorf("failed to close thread: %w", err)
	}
	if !persisted {
		// Another writer closed it first; report the stored state.
		current, err := s.repo.GetThread(ctx, db, thread.ID)
		if err != nil {
			return CloseOutcome{}, fmt.Errorf("failed to reload thread: %w", err)
		}
		return CloseOutcome{Thread: *current}, nil
	}

	if s.metrics != nil {
		s.metrics.RecordThreadClosed(ctx, string(thread.TierName), string(reason))
	}
	return CloseOutcome{Thread: closed.Thread(), Changed: true}, nil
}

// CloseExpired closes up to limit open threads whose voting window has ended
// and returns the threads it closed.
func (s *NominationService) CloseExpired(ctx context.Context, limit int) ([]nominationdomain.Thread, error) {
	expired, err := s.repo.ListExpiredOpenThreads(ctx, nil, s.now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired threads: %w", err)
	}

	var closed []nominationdomain.Thread
	for _, thread := range expired {
		result, err := s.CloseNomination(ctx, thread.ID, nominationdomain.CloseExpired)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to close expired thread",
				attr.String("thread_id", thread.ID.String()),
				attr.Error(err),
			)
			continue
		}
		if result.IsSuccess() && result.Success.Changed {
			closed = append(closed, result.Success.Thread)
		}
	}
	return closed, nil
}
