package nomination

import (
	"context"
	"fmt"
	"sync"
	"time"

	nominationservice "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/application"
	nominationhandlers "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/handlers"
	nominationqueue "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/queue"
	nominationdb "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories"
	nominationrouter "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/router"
	"github.com/Black-And-White-Club/tier-bot/internal/eventbus"
	"github.com/Black-And-White-Club/tier-bot/internal/observability"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Config holds the nomination module settings.
type Config struct {
	VotingWindow time.Duration
	// QueueDSN enables River expiry jobs. Without it threads only expire
	// lazily when a vote or a new nomination arrives.
	QueueDSN string
	Queue    nominationqueue.Config
}

// Module represents the nomination module.
type Module struct {
	NominationService nominationservice.Service
	NominationRouter  *nominationrouter.NominationRouter
	Evidence          *nominationdb.EvidenceView
	QueueService      nominationqueue.QueueService
	cancelFunc        context.CancelFunc
	provider          *observability.Provider
}

// NewNominationModule creates and initializes a new nomination module.
func NewNominationModule(
	ctx context.Context,
	cfg Config,
	provider *observability.Provider,
	m metrics.NominationMetrics,
	eventBus eventbus.EventBus,
	router *message.Router,
	db *bun.DB,
	tiers nominationservice.TierCatalog,
	members nominationservice.RoleReader,
) (*Module, error) {
	logger := provider.Logger
	tracer := provider.Tracer

	logger.InfoContext(ctx, "nomination.NewNominationModule initializing")

	repo := nominationdb.NewRepository(db)

	opts := []nominationservice.Option{nominationservice.WithVotingWindow(cfg.VotingWindow)}

	var queue nominationqueue.QueueService
	if cfg.QueueDSN != "" {
		q, err := nominationqueue.NewService(ctx, cfg.QueueDSN, cfg.Queue, repo, eventBus, logger, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create nomination queue: %w", err)
		}
		queue = q
		opts = append(opts, nominationservice.WithExpiryScheduler(q))
	}

	service := nominationservice.NewNominationService(repo, tiers, members, logger, m, tracer, db, opts...)
	handlers := nominationhandlers.NewNominationHandlers(service, logger, tracer)

	nominationRouter := nominationrouter.NewNominationRouter(logger, router, eventBus, eventBus, tracer)
	if err := nominationRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure nomination router: %w", err)
	}

	return &Module{
		NominationService: service,
		NominationRouter:  nominationRouter,
		Evidence:          nominationdb.NewEvidenceView(repo),
		QueueService:      queue,
		provider:          provider,
	}, nil
}

// Run starts the expiry queue and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.provider.Logger
	logger.InfoContext(ctx, "Starting nomination module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.QueueService != nil {
		if err := m.QueueService.Start(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to start nomination queue", "error", err)
		}
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Nomination module goroutine stopped")
}

// Close shuts down the nomination module.
func (m *Module) Close() error {
	logger := m.provider.Logger
	logger.Info("Stopping nomination module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.QueueService != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.QueueService.Stop(stopCtx); err != nil {
			logger.Error("Error stopping nomination queue", "error", err)
		}
	}

	logger.Info("Nomination module stopped")
	return nil
}
