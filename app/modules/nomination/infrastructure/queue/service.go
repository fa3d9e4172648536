package nominationqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// QueueName is the River queue dedicated to nomination jobs.
const QueueName = "nomination"

const metricsService = "river"

// QueueService defines the job scheduling operations of the nomination module.
type QueueService interface {
	// ScheduleExpiry schedules a close request for the thread at the given time.
	ScheduleExpiry(ctx context.Context, threadID uuid.UUID, at time.Time) error
	// Start starts the queue service
	Start(ctx context.Context) error
	// Stop stops the queue service
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Config tunes the nomination queue.
type Config struct {
	MaxWorkers    int
	SweepInterval time.Duration
	SweepLimit    int
}

// Service handles job scheduling for the nomination module using River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics metrics.OperationMetrics
}

// NewService creates a River-backed queue whose workers publish thread close
// requests to publisher.
func NewService(
	ctx context.Context,
	dsn string,
	cfg Config,
	repo ExpiredThreadLister,
	publisher message.Publisher,
	logger *slog.Logger,
	m metrics.OperationMetrics,
) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_nomination_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	m.RecordOperationAttempt(ctx, "initialize_service", metricsService)

	// River requires pgx, not database/sql.
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		m.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client, err := newClient(pool, cfg, repo, publisher, ctxLogger)
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		m.RecordOperationFailure(ctx, "initialize_service", metricsService)
		return nil, err
	}

	m.RecordOperationSuccess(ctx, "initialize_service", metricsService)
	m.RecordOperationDuration(ctx, "initialize_service", metricsService, time.Since(start))
	ctxLogger.Info("Nomination queue service initialized successfully")

	return &Service{client: client, pool: pool, logger: ctxLogger, metrics: m}, nil
}

func newClient(
	pool *pgxpool.Pool,
	cfg Config,
	repo ExpiredThreadLister,
	publisher message.Publisher,
	logger *slog.Logger,
) (*river.Client[pgx.Tx], error) {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewThreadExpiryWorker(logger, publisher))
	river.AddWorker(workers, NewExpirySweepWorker(logger, repo, publisher))

	sweepLimit := cfg.SweepLimit
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.SweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return ExpirySweepJob{Limit: sweepLimit}, &river.InsertOpts{Queue: QueueName}
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}
	return client, nil
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", metricsService)

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", metricsService)
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_service", metricsService)
	s.metrics.RecordOperationDuration(ctx, "start_service", metricsService, time.Since(start))
	s.logger.Info("Nomination queue service started")
	return nil
}

// Stop stops the River client and releases its pool.
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_service", metricsService)
	defer s.pool.Close()

	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", metricsService)
		return fmt.Errorf("failed to stop River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "stop_service", metricsService)
	s.metrics.RecordOperationDuration(ctx, "stop_service", metricsService, time.Since(start))
	s.logger.Info("Nomination queue service stopped")
	return nil
}

// ScheduleExpiry inserts a unique expiry job for the thread. A thread that
// already closed by then gets a no-op close request.
func (s *Service) ScheduleExpiry(ctx context.Context, threadID uuid.UUID, at time.Time) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_expiry", metricsService)

	res, err := s.client.Insert(ctx, ThreadExpiryJob{ThreadID: threadID}, &river.InsertOpts{
		Queue:       QueueName,
		ScheduledAt: at,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "schedule_expiry", metricsService)
		return fmt.Errorf("failed to insert expiry job: %w", err)
	}

	s.logger.InfoContext(ctx, "Scheduled thread expiry",
		attr.ExtractCorrelationID(ctx),
		attr.String("thread_id", threadID.String()),
		attr.Time("expires_at", at),
		attr.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	s.metrics.RecordOperationSuccess(ctx, "schedule_expiry", metricsService)
	s.metrics.RecordOperationDuration(ctx, "schedule_expiry", metricsService, time.Since(start))
	return nil
}
