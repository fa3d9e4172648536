package badgeservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Black-And-White-Club/tier-bot/app/modules/badge/infrastructure/parsers"
	badgedb "github.com/Black-And-White-Club/tier-bot/app/modules/badge/infrastructure/repositories"
	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "BadgeService"

	// DefaultCategory is stored for badges imported without a category.
	DefaultCategory = "uncategorized"
)

// ImportSummary reports what an import added to the ledger.
type ImportSummary struct {
	Rows    int
	Awarded int
	Members int
}

// ImportResult carries the outcome of ImportAwards. A file that cannot be
// parsed is a failure, not an error.
type ImportResult = results.OperationResult[ImportSummary, error]

// Service defines the badge ledger operations.
type Service interface {
	eligibilitydomain.BadgeLedger
	ImportAwards(ctx context.Context, fileName string, data []byte, source string) (ImportResult, error)
}

// ParserFactory selects a parser for a file name.
type ParserFactory interface {
	GetParser(fileName string) (parsers.Parser, error)
}

// BadgeService implements the Service interface.
type BadgeService struct {
	repo    badgedb.Repository
	parsers ParserFactory
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer
	db      *bun.DB
	now     func() time.Time
}

func NewBadgeService(
	repo badgedb.Repository,
	factory ParserFactory,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *BadgeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgeService{
		repo:    repo,
		parsers: factory,
		logger:  logger,
		metrics: m,
		tracer:  tracer,
		db:      db,
		now:     time.Now,
	}
}

// CountBadges counts the member's badges matching q. An explicit id set takes
// precedence over the category.
func (s *BadgeService) CountBadges(ctx context.Context, memberID sharedtypes.DiscordID, q eligibilitydomain.BadgeQuery) (int, error) {
	if len(q.BadgeIDs) > 0 {
		return s.repo.CountByIDs(ctx, nil, memberID, q.BadgeIDs)
	}
	return s.repo.CountByCategory(ctx, nil, memberID, strings.ToLower(q.Category))
}

// ImportAwards parses an award file and adds its badges and awards to the
// ledger in one transaction. Awards already held are skipped.
func (s *BadgeService) ImportAwards(ctx context.Context, fileName string, data []byte, source string) (ImportResult, error) {
	return withTelemetry(s, ctx, "ImportAwards", fileName, func(ctx context.Context) (ImportResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (ImportResult, error) {
			return s.importAwardsLogic(ctx, db, fileName, data, source)
		})
	})
}

func (s *BadgeService) importAwardsLogic(ctx context.Context, db bun.IDB, fileName string, data []byte, source string) (ImportResult, error) {
	parser, err := s.parsers.GetParser(fileName)
	if err != nil {
		return results.FailureResult[ImportSummary, error](err), nil
	}
	rows, err := parser.Parse(data, fileName)
	if err != nil {
		return results.FailureResult[ImportSummary, error](err), nil
	}

	now := s.now().UTC()
	catalog := make(map[string]badgedb.Badge)
	members := make(map[sharedtypes.DiscordID]struct{})
	awards := make([]badgedb.MemberBadge, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		category := row.Category
		if category == "" {
			category = DefaultCategory
		}
		if existing, ok := catalog[row.BadgeID]; !ok || existing.Category == DefaultCategory {
			catalog[row.BadgeID] = badgedb.Badge{ID: row.BadgeID, Category: category, CreatedAt: now}
		}

		key := string(row.MemberID) + "\x00" + row.BadgeID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		members[row.MemberID] = struct{}{}

		awardedAt := row.AwardedAt
		if awardedAt.IsZero() {
			awardedAt = now
		}
		awards = append(awards, badgedb.MemberBadge{
			MemberID:  row.MemberID,
			BadgeID:   row.BadgeID,
			AwardedAt: awardedAt,
			Source:    source,
		})
	}

	badges := make([]badgedb.Badge, 0, len(catalog))
	for _, b := range catalog {
		badges = append(badges, b)
	}
	if err := s.repo.EnsureBadges(ctx, db, badges); err != nil {
		return ImportResult{}, err
	}

	awarded, err := s.repo.AwardBadges(ctx, db, awards)
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.InfoContext(ctx, "Badge awards imported",
		attr.ExtractCorrelationID(ctx),
		attr.String("file", fileName),
		attr.Int("rows", len(rows)),
		attr.Int("awarded", awarded),
	)
	return results.SuccessResult[ImportSummary, error](ImportSummary{
		Rows:    len(rows),
		Awarded: awarded,
		Members: len(members),
	}), nil
}

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *BadgeService,
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
	s *BadgeService,
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
