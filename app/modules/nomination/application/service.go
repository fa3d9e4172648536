package nominationservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	nominationdb "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "NominationService"

// NominationService implements the Service interface.
type NominationService struct {
	repo    nominationdb.Repository
	tiers   TierCatalog
	members RoleReader
	expiry  ExpiryScheduler
	logger  *slog.Logger
	metrics metrics.NominationMetrics
	tracer  trace.Tracer
	db      *bun.DB

	votingWindow time.Duration
	now          func() time.Time
	locks        *keyedMutex
}

// Option configures optional NominationService behaviour.
type Option func(*NominationService)

// WithVotingWindow gives new threads a deadline after which they stop accepting votes.
func WithVotingWindow(d time.Duration) Option {
	return func(s *NominationService) { s.votingWindow = d }
}

// WithExpiryScheduler schedules a close job for every thread with a deadline.
func WithExpiryScheduler(e ExpiryScheduler) Option {
	return func(s *NominationService) { s.expiry = e }
}

func WithClock(now func() time.Time) Option {
	return func(s *NominationService) { s.now = now }
}

// NewNominationService creates a new NominationService.
func NewNominationService(
	repo nominationdb.Repository,
	tiers TierCatalog,
	members RoleReader,
	logger *slog.Logger,
	m metrics.NominationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	opts ...Option,
) *NominationService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &NominationService{
		repo:    repo,
		tiers:   tiers,
		members: members,
		logger:  logger,
		metrics: m,
		tracer:  tracer,
		db:      db,
		now:     time.Now,
		locks:   newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *NominationService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx runs fn in a transaction when a database is configured. A domain
// failure still commits, so side effects such as closing an expired thread persist.
func runInTx[S any, F any](
	s *NominationService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}
