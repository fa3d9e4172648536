package memberrouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	memberhandlers "github.com/Black-And-White-Club/tier-bot/app/modules/member/infrastructure/handlers"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// MemberRouter handles Watermill handler registration for member events.
type MemberRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

func NewMemberRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *MemberRouter {
	return &MemberRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *MemberRouter) Configure(_ context.Context, handlers memberhandlers.Handlers) error {
	handlerName := "member." + events.MemberSyncRequestedV1
	handlerwrapper.Register(
		r.router,
		handlerName,
		events.MemberSyncRequestedV1,
		r.subscriber,
		r.publisher,
		r.logger,
		handlerwrapper.WrapTransformingTyped(handlerName, r.logger, r.tracer, handlers.HandleSyncRequested),
	)
	r.logger.Info("Member module handlers registered successfully")
	return nil
}
