package eligibilityservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	eligibilitydb "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/repositories"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "EligibilityService"

// EligibilityService resolves members and tiers by id and runs them through
// the orchestrator.
type EligibilityService struct {
	orchestrator *Orchestrator
	tiers        TierCatalog
	members      MemberDirectory
	evidence     eligibilitydomain.Evidence
	logger       *slog.Logger
	metrics      metrics.EligibilityMetrics
	tracer       trace.Tracer
	grants       eligibilitydb.Repository
}

// ServiceOption configures optional EligibilityService behaviour.
type ServiceOption func(*EligibilityService)

// WithGrantHistory serves GrantHistory from the audit log.
func WithGrantHistory(repo eligibilitydb.Repository) ServiceOption {
	return func(s *EligibilityService) { s.grants = repo }
}

// NewEligibilityService creates a new EligibilityService.
func NewEligibilityService(
	orchestrator *Orchestrator,
	tiers TierCatalog,
	members MemberDirectory,
	evidence eligibilitydomain.Evidence,
	logger *slog.Logger,
	m metrics.EligibilityMetrics,
	tracer trace.Tracer,
	opts ...ServiceOption,
) *EligibilityService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &EligibilityService{
		orchestrator: orchestrator,
		tiers:        tiers,
		members:      members,
		evidence:     evidence,
		logger:       logger,
		metrics:      m,
		tracer:       tracer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tiers lists the configured tiers in rank order.
func (s *EligibilityService) Tiers() []tierdomain.Tier {
	return s.tiers.All()
}

// Evaluate computes the verdict for a member at a tier.
func (s *EligibilityService) Evaluate(ctx context.Context, memberID sharedtypes.DiscordID, tierID sharedtypes.TierID) (VerdictResult, error) {
	return withTelemetry(s, ctx, "Evaluate", string(memberID), func(ctx context.Context) (VerdictResult, error) {
		member, tier, failure, err := s.resolve(ctx, memberID, tierID)
		if err != nil || failure != nil {
			return results.OperationResult[eligibilitydomain.Verdict, error]{Failure: failure}, err
		}

		verdict := s.orchestrator.Evaluate(ctx, member, tier, s.evidence)
		if s.metrics != nil {
			s.metrics.RecordVerdict(ctx, string(tier.Name), verdict.Eligible)
		}
		return results.SuccessResult[eligibilitydomain.Verdict, error](verdict), nil
	})
}

// AttemptGrant evaluates and, when eligible, grants the tier role.
func (s *EligibilityService) AttemptGrant(ctx context.Context, req GrantRequest) (GrantOpResult, error) {
	return withTelemetry(s, ctx, "AttemptGrant", string(req.MemberID), func(ctx context.Context) (GrantOpResult, error) {
		member, tier, failure, err := s.resolve(ctx, req.MemberID, req.TierID)
		if err != nil || failure != nil {
			return results.OperationResult[GrantResult, error]{Failure: failure}, err
		}

		res := s.orchestrator.attemptGrant(ctx, member, tier, s.evidence, req.ThreadID)
		if s.metrics != nil {
			s.metrics.RecordVerdict(ctx, string(tier.Name), res.Verdict.Eligible)
			s.metrics.RecordGrantOutcome(ctx, string(tier.Name), string(res.Outcome))
		}

		logAttrs := []any{
			attr.ExtractCorrelationID(ctx),
			attr.String("member_id", string(req.MemberID)),
			attr.String("tier", string(tier.Name)),
			attr.String("outcome", string(res.Outcome)),
			attr.Bool("already_held", res.AlreadyHeld),
		}
		if res.Err != nil {
			s.logger.WarnContext(ctx, "Role grant failed", append(logAttrs, attr.Error(res.Err))...)
		} else {
			s.logger.InfoContext(ctx, "Role grant attempted", logAttrs...)
		}
		return results.SuccessResult[GrantResult, error](res), nil
	})
}

func (s *EligibilityService) resolve(ctx context.Context, memberID sharedtypes.DiscordID, tierID sharedtypes.TierID) (sharedtypes.Member, tierdomain.Tier, *error, error) {
	tier, ok := s.tiers.ByID(tierID)
	if !ok {
		failure := fmt.Errorf("%w: %s", ErrUnknownTier, tierID)
		return sharedtypes.Member{}, tierdomain.Tier{}, &failure, nil
	}

	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, sharedtypes.ErrMemberNotFound) {
			return sharedtypes.Member{}, tierdomain.Tier{}, &err, nil
		}
		return sharedtypes.Member{}, tierdomain.Tier{}, nil, fmt.Errorf("failed to load member: %w", err)
	}
	return member, tier, nil, nil
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *EligibilityService,
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

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}
	return result, nil
}
