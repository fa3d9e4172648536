package badge

import (
	"log/slog"

	badgeservice "github.com/Black-And-White-Club/tier-bot/app/modules/badge/application"
	"github.com/Black-And-White-Club/tier-bot/app/modules/badge/infrastructure/parsers"
	badgedb "github.com/Black-And-White-Club/tier-bot/app/modules/badge/infrastructure/repositories"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// Module represents the badge ledger module.
type Module struct {
	BadgeService *badgeservice.BadgeService
}

// NewBadgeModule creates the badge ledger and its award importer.
func NewBadgeModule(logger *slog.Logger, m metrics.OperationMetrics, tracer trace.Tracer, db *bun.DB) *Module {
	repo := badgedb.NewRepository(db)
	return &Module{
		BadgeService: badgeservice.NewBadgeService(repo, parsers.NewFactory(), logger, m, tracer, db),
	}
}
