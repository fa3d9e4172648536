package eligibility

import (
	"context"
	"fmt"
	"time"

	eligibilityservice "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/application"
	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	discordroles "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/discord"
	eligibilityhandlers "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/handlers"
	eligibilitydb "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/repositories"
	eligibilityrouter "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/router"
	"github.com/Black-And-White-Club/tier-bot/internal/eventbus"
	"github.com/Black-And-White-Club/tier-bot/internal/observability"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Config holds the eligibility module settings.
type Config struct {
	GrantTimeout time.Duration
	// Discord is used for grants when its token is set. Without it every
	// eligible grant attempt ends as grant_failed.
	Discord discordroles.Config
}

// Deps are the lookups provided by the other modules.
type Deps struct {
	Tiers    eligibilityservice.TierCatalog
	Members  eligibilityservice.MemberDirectory
	Roles    eligibilityservice.RoleLedger
	Evidence eligibilitydomain.Evidence
}

// Module represents the eligibility module.
type Module struct {
	EligibilityService *eligibilityservice.EligibilityService
	EligibilityRouter  *eligibilityrouter.EligibilityRouter
}

// NewEligibilityModule creates and initializes a new eligibility module.
func NewEligibilityModule(
	ctx context.Context,
	cfg Config,
	provider *observability.Provider,
	m metrics.EligibilityMetrics,
	eventBus eventbus.EventBus,
	router *message.Router,
	db *bun.DB,
	deps Deps,
) (*Module, error) {
	logger := provider.Logger
	tracer := provider.Tracer

	logger.InfoContext(ctx, "eligibility.NewEligibilityModule initializing")

	grants := eligibilitydb.NewRepository(db)

	var assigner eligibilityservice.RoleAssigner
	if cfg.Discord.Token != "" {
		client, err := discordroles.NewClient(cfg.Discord, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create discord client: %w", err)
		}
		assigner = client
	} else {
		logger.WarnContext(ctx, "No Discord token configured; role grants will fail")
	}

	orchestrator := eligibilityservice.NewOrchestrator(
		eligibilitydomain.NewEvaluator(nil),
		assigner,
		logger,
		eligibilityservice.WithGrantTimeout(cfg.GrantTimeout),
		eligibilityservice.WithRoleLedger(deps.Roles),
		eligibilityservice.WithGrantRecorder(eligibilityservice.NewGrantLog(grants)),
	)

	service := eligibilityservice.NewEligibilityService(
		orchestrator,
		deps.Tiers,
		deps.Members,
		deps.Evidence,
		logger,
		m,
		tracer,
		eligibilityservice.WithGrantHistory(grants),
	)
	handlers := eligibilityhandlers.NewEligibilityHandlers(service, logger, tracer)

	eligibilityRouter := eligibilityrouter.NewEligibilityRouter(logger, router, eventBus, eventBus, tracer)
	if err := eligibilityRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure eligibility router: %w", err)
	}

	return &Module{
		EligibilityService: service,
		EligibilityRouter:  eligibilityRouter,
	}, nil
}
