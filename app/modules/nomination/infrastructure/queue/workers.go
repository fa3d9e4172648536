package nominationqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	nominationdb "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/uptrace/bun"
)

const defaultSweepLimit = 100

// ThreadExpiryWorker publishes nomination.close.requested.v1 for an expired thread.
type ThreadExpiryWorker struct {
	river.WorkerDefaults[ThreadExpiryJob]
	logger    *slog.Logger
	publisher message.Publisher
}

func NewThreadExpiryWorker(logger *slog.Logger, publisher message.Publisher) *ThreadExpiryWorker {
	return &ThreadExpiryWorker{logger: logger, publisher: publisher}
}

func (w *ThreadExpiryWorker) Work(ctx context.Context, job *river.Job[ThreadExpiryJob]) error {
	w.logger.InfoContext(ctx, "Processing thread expiry job",
		attr.String("thread_id", job.Args.ThreadID.String()),
		attr.Int("attempt", job.Attempt),
	)
	return publishCloseRequest(ctx, w.publisher, job.Args.ThreadID)
}

// ExpiredThreadLister is the slice of the repository the sweep needs.
type ExpiredThreadLister interface {
	ListExpiredOpenThreads(ctx context.Context, db bun.IDB, now time.Time, limit int) ([]nominationdomain.Thread, error)
}

// ExpirySweepWorker publishes close requests for every open thread past its deadline.
type ExpirySweepWorker struct {
	river.WorkerDefaults[ExpirySweepJob]
	logger    *slog.Logger
	repo      ExpiredThreadLister
	publisher message.Publisher
	now       func() time.Time
}

func NewExpirySweepWorker(logger *slog.Logger, repo ExpiredThreadLister, publisher message.Publisher) *ExpirySweepWorker {
	return &ExpirySweepWorker{logger: logger, repo: repo, publisher: publisher, now: time.Now}
}

func (w *ExpirySweepWorker) Work(ctx context.Context, job *river.Job[ExpirySweepJob]) error {
	limit := job.Args.Limit
	if limit <= 0 {
		limit = defaultSweepLimit
	}

	threads, err := w.repo.ListExpiredOpenThreads(ctx, nil, w.now().UTC(), limit)
	if err != nil {
		return fmt.Errorf("failed to list expired threads: %w", err)
	}
	if len(threads) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Expiring overdue nomination threads", attr.Int("count", len(threads)))
	for _, t := range threads {
		if err := publishCloseRequest(ctx, w.publisher, t.ID); err != nil {
			return err
		}
	}
	return nil
}

func publishCloseRequest(ctx context.Context, publisher message.Publisher, threadID uuid.UUID) error {
	msg, err := handlerwrapper.NewMessage(ctx, events.NominationCloseRequestedV1, events.NominationCloseRequestedPayloadV1{
		ThreadID: threadID,
		Reason:   string(nominationdomain.CloseExpired),
	})
	if err != nil {
		return fmt.Errorf("failed to build close request: %w", err)
	}
	if err := publisher.Publish(events.NominationCloseRequestedV1, msg); err != nil {
		return fmt.Errorf("failed to publish close request for %s: %w", threadID, err)
	}
	return nil
}

var _ ExpiredThreadLister = (nominationdb.Repository)(nil)
