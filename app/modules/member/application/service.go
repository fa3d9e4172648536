package memberservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	memberdb "github.com/Black-And-White-Club/tier-bot/app/modules/member/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "MemberService"

// MemberService implements the Service interface.
type MemberService struct {
	repo    memberdb.Repository
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer
	db      *bun.DB
	now     func() time.Time
}

// NewMemberService creates a new MemberService.
func NewMemberService(
	repo memberdb.Repository,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *MemberService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemberService{
		repo:    repo,
		logger:  logger,
		metrics: m,
		tracer:  tracer,
		db:      db,
		now:     time.Now,
	}
}

func (s *MemberService) GetMember(ctx context.Context, id sharedtypes.DiscordID) (sharedtypes.Member, error) {
	member, err := s.repo.GetMember(ctx, nil, id)
	if err != nil {
		if errors.Is(err, memberdb.ErrNotFound) {
			return sharedtypes.Member{}, fmt.Errorf("%w: %s", sharedtypes.ErrMemberNotFound, id)
		}
		return sharedtypes.Member{}, err
	}
	return *member, nil
}

func (s *MemberService) ListCurrentRoles(ctx context.Context, id sharedtypes.DiscordID) ([]sharedtypes.RoleName, error) {
	return s.repo.ListRoles(ctx, nil, id)
}

func (s *MemberService) AddRole(ctx context.Context, id sharedtypes.DiscordID, role sharedtypes.RoleName, grantedAt time.Time) error {
	return s.repo.AddRole(ctx, nil, id, role, grantedAt)
}

func (s *MemberService) HasLinkedAccount(ctx context.Context, id sharedtypes.DiscordID, provider string) (bool, error) {
	return s.repo.HasLinkedAccount(ctx, nil, id, provider)
}

func (s *MemberService) HasStellarAccount(ctx context.Context, id sharedtypes.DiscordID) (bool, error) {
	return s.repo.HasStellarAccount(ctx, nil, id)
}

// SyncMember validates and stores a member snapshot. Invalid snapshots are
// reported as failures and leave the stored record untouched.
func (s *MemberService) SyncMember(ctx context.Context, req SyncMemberRequest) (SyncResult, error) {
	return withTelemetry(s, ctx, "SyncMember", string(req.Member.ID), func(ctx context.Context) (SyncResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (SyncResult, error) {
			return s.syncMemberLogic(ctx, db, req)
		})
	})
}

func (s *MemberService) syncMemberLogic(ctx context.Context, db bun.IDB, req SyncMemberRequest) (SyncResult, error) {
	observedAt := req.ObservedAt
	if observedAt.IsZero() {
		observedAt = s.now().UTC()
	}

	if err := req.Member.Validate(observedAt); err != nil {
		return results.FailureResult[sharedtypes.Member, error](err), nil
	}

	if err := s.repo.UpsertSnapshot(ctx, db, memberdb.Snapshot{
		Member:         req.Member,
		LinkedAccounts: req.LinkedAccounts,
		StellarAccount: req.StellarAccount,
		ObservedAt:     observedAt,
	}); err != nil {
		return SyncResult{}, fmt.Errorf("failed to store member snapshot: %w", err)
	}
	return results.SuccessResult[sharedtypes.Member, error](req.Member), nil
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *MemberService,
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

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *MemberService,
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
