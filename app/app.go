package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Black-And-White-Club/tier-bot/app/modules/badge"
	"github.com/Black-And-White-Club/tier-bot/app/modules/eligibility"
	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	discordroles "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/discord"
	"github.com/Black-And-White-Club/tier-bot/app/modules/member"
	"github.com/Black-And-White-Club/tier-bot/app/modules/nomination"
	nominationqueue "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/queue"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	"github.com/Black-And-White-Club/tier-bot/app/modules/tier/infrastructure/tierconfig"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/config"
	"github.com/Black-And-White-Club/tier-bot/internal/db/bundb"
	"github.com/Black-And-White-Club/tier-bot/internal/eventbus"
	"github.com/Black-And-White-Club/tier-bot/internal/httpserver"
	"github.com/Black-And-White-Club/tier-bot/internal/observability"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/ThreeDotsLabs/watermill"
	wmmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/uptrace/bun"
)

const appType = "tier-bot"

// App holds the application components.
type App struct {
	Config        *config.Config
	Observability *observability.Provider
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	Tiers         *tierdomain.Registry

	MemberModule      *member.Module
	BadgeModule       *badge.Module
	NominationModule  *nomination.Module
	EligibilityModule *eligibility.Module

	HTTPServer    *httpserver.Server
	MetricsServer *httpserver.Server

	wg sync.WaitGroup
}

// Initialize builds every component. Handlers are registered on the router but
// nothing consumes messages until Run is called.
func (app *App) Initialize(ctx context.Context, cfg *config.Config) error {
	app.Config = cfg
	app.Observability = observability.New(config.ToObsConfig(cfg))
	logger := app.Observability.Logger

	logger.InfoContext(ctx, "Initializing tier-bot",
		attr.String("environment", cfg.Observability.Environment),
		attr.String("tiers_file", cfg.Tiers.File),
	)

	tiers, err := tierconfig.LoadFile(cfg.Tiers.File)
	if err != nil {
		return fmt.Errorf("failed to load tiers: %w", err)
	}
	app.Tiers = tiers
	logger.InfoContext(ctx, "Tier definitions loaded", attr.Int("tiers", len(tiers.All())))

	db, err := bundb.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	app.DB = db

	if err := app.initEventBus(ctx); err != nil {
		return err
	}

	if err := app.initRouter(); err != nil {
		return err
	}

	if err := app.initModules(ctx); err != nil {
		return err
	}

	app.initHTTP()

	logger.InfoContext(ctx, "tier-bot initialized")
	return nil
}

func (app *App) initEventBus(ctx context.Context) error {
	logger := app.Observability.Logger
	if app.Config.NATS.URL == "" {
		logger.WarnContext(ctx, "No NATS URL configured; using the in-process event bus")
		app.EventBus = eventbus.NewGoChannelEventBus(logger)
		return nil
	}

	bus, err := eventbus.NewJetStreamEventBus(ctx, app.Config.NATS.URL, appType, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = bus
	return nil
}

func (app *App) initRouter() error {
	logger := app.Observability.Logger

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create message router: %w", err)
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          watermill.NewSlogLogger(logger),
		}.Middleware,
		middleware.Recoverer,
	)

	if os.Getenv("APP_ENV") != "test" {
		builder := wmmetrics.NewPrometheusMetricsBuilder(app.Observability.Registry, "", "")
		builder.AddPrometheusRouterMetrics(router)
	} else {
		logger.Info("Skipping Prometheus router metrics in test environment")
	}

	app.Router = router
	return nil
}

func (app *App) initModules(ctx context.Context) error {
	cfg := app.Config
	provider := app.Observability
	m := metrics.NewPrometheus(provider.Registry, "tierbot")

	memberModule, err := member.NewMemberModule(ctx, provider, m, app.EventBus, app.Router, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize member module: %w", err)
	}
	app.MemberModule = memberModule

	app.BadgeModule = badge.NewBadgeModule(provider.Logger, m, provider.Tracer, app.DB)

	nominationModule, err := nomination.NewNominationModule(ctx, nomination.Config{
		VotingWindow: cfg.Nomination.VotingWindow,
		QueueDSN:     cfg.Postgres.DSN,
		Queue: nominationqueue.Config{
			MaxWorkers:    cfg.Nomination.MaxWorkers,
			SweepInterval: cfg.Nomination.SweepInterval,
		},
	}, provider, m, app.EventBus, app.Router, app.DB, app.Tiers, memberModule.MemberService)
	if err != nil {
		return fmt.Errorf("failed to initialize nomination module: %w", err)
	}
	app.NominationModule = nominationModule

	eligibilityModule, err := eligibility.NewEligibilityModule(ctx, eligibility.Config{
		GrantTimeout: cfg.Grants.Timeout,
		Discord: discordroles.Config{
			Token:   cfg.Discord.Token,
			GuildID: cfg.Discord.GuildID,
			RoleIDs: roleIDs(cfg.Discord.RoleIDs),
			Timeout: cfg.Grants.Timeout,
		},
	}, provider, m, app.EventBus, app.Router, app.DB, eligibility.Deps{
		Tiers:   app.Tiers,
		Members: memberModule.MemberService,
		Roles:   memberModule.MemberService,
		Evidence: eligibilitydomain.Evidence{
			Badges:      app.BadgeModule.BadgeService,
			Nominations: nominationModule.Evidence,
			Accounts:    memberModule.MemberService,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize eligibility module: %w", err)
	}
	app.EligibilityModule = eligibilityModule

	return nil
}

func (app *App) initHTTP() {
	cfg := app.Config
	provider := app.Observability

	registry := provider.Registry
	metricsAddr := cfg.Observability.MetricsAddress
	if metricsAddr != "" && metricsAddr != cfg.HTTP.Address {
		app.MetricsServer = httpserver.NewMetricsServer(metricsAddr, registry, provider.Logger)
		registry = nil
	}

	app.HTTPServer = httpserver.New(httpserver.Config{
		Address:                  cfg.HTTP.Address,
		RequestsPerSecond:        cfg.HTTP.RequestsPerSecond,
		Burst:                    cfg.HTTP.Burst,
		VerdictRequestsPerSecond: cfg.HTTP.VerdictRequestsPerSecond,
		VerdictBurst:             cfg.HTTP.VerdictBurst,
	}, app.EligibilityModule.EligibilityService, registry, provider.Logger)
}

// Run starts the router, the nomination queue and the HTTP listeners, then
// blocks until ctx is cancelled or a listener fails.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)

	go func() {
		if err := app.Router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("message router stopped: %w", err)
		}
	}()

	select {
	case <-app.Router.Running():
		logger.InfoContext(ctx, "Message router running")
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}

	app.wg.Add(1)
	go app.NominationModule.Run(ctx, &app.wg)

	for _, srv := range []*httpserver.Server{app.HTTPServer, app.MetricsServer} {
		if srv == nil {
			continue
		}
		go func(s *httpserver.Server) {
			if err := s.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("http server stopped: %w", err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown requested")
		return nil
	case err := <-errCh:
		logger.Error("Component failed", attr.Error(err))
		return err
	}
}

// Close stops every component in reverse start order.
func (app *App) Close() error {
	var errs []error
	logger := app.Observability.Logger

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, srv := range []*httpserver.Server{app.HTTPServer, app.MetricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	if app.NominationModule != nil {
		if err := app.NominationModule.Close(); err != nil {
			errs = append(errs, fmt.Errorf("nomination module: %w", err))
		}
	}
	app.wg.Wait()

	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("message router: %w", err))
		}
	}

	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}

	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("Shutdown finished with errors", attr.Error(err))
		return err
	}
	logger.Info("tier-bot shut down cleanly")
	return nil
}

func roleIDs(in map[string]string) map[sharedtypes.RoleName]string {
	out := make(map[sharedtypes.RoleName]string, len(in))
	for name, id := range in {
		out[sharedtypes.RoleName(name)] = id
	}
	return out
}
