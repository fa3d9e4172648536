package member

import (
	"context"
	"fmt"

	memberservice "github.com/Black-And-White-Club/tier-bot/app/modules/member/application"
	memberhandlers "github.com/Black-And-White-Club/tier-bot/app/modules/member/infrastructure/handlers"
	memberdb "github.com/Black-And-White-Club/tier-bot/app/modules/member/infrastructure/repositories"
	memberrouter "github.com/Black-And-White-Club/tier-bot/app/modules/member/infrastructure/router"
	"github.com/Black-And-White-Club/tier-bot/internal/eventbus"
	"github.com/Black-And-White-Club/tier-bot/internal/observability"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Module represents the member directory module.
type Module struct {
	MemberService *memberservice.MemberService
	MemberRouter  *memberrouter.MemberRouter
}

// NewMemberModule creates and initializes a new member module.
func NewMemberModule(
	ctx context.Context,
	provider *observability.Provider,
	m metrics.OperationMetrics,
	eventBus eventbus.EventBus,
	router *message.Router,
	db *bun.DB,
) (*Module, error) {
	logger := provider.Logger
	logger.InfoContext(ctx, "member.NewMemberModule initializing")

	service := memberservice.NewMemberService(memberdb.NewRepository(db), logger, m, provider.Tracer, db)
	handlers := memberhandlers.NewMemberHandlers(service, logger, provider.Tracer)

	memberRouter := memberrouter.NewMemberRouter(logger, router, eventBus, eventBus, provider.Tracer)
	if err := memberRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure member router: %w", err)
	}

	return &Module{MemberService: service, MemberRouter: memberRouter}, nil
}
