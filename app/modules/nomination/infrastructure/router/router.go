package nominationrouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	nominationhandlers "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/handlers"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// NominationRouter handles Watermill handler registration for nomination events.
type NominationRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewNominationRouter creates a new NominationRouter.
func NewNominationRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *NominationRouter {
	return &NominationRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *NominationRouter) Configure(_ context.Context, handlers nominationhandlers.Handlers) error {
	r.logger.Info("Registering nomination module handlers")

	registerHandler(r, events.NominationStartRequestedV1, handlers.HandleStartRequested)
	registerHandler(r, events.NominationVoteRequestedV1, handlers.HandleVoteRequested)
	registerHandler(r, events.NominationCloseRequestedV1, handlers.HandleCloseRequested)

	r.logger.Info("Nomination module handlers registered successfully")
	return nil
}

func registerHandler[T any](
	r *NominationRouter,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "nomination." + topic
	handlerwrapper.Register(
		r.router,
		handlerName,
		topic,
		r.subscriber,
		r.publisher,
		r.logger,
		handlerwrapper.WrapTransformingTyped(handlerName, r.logger, r.tracer, handler),
	)
}

// Close shuts down the router.
func (r *NominationRouter) Close() error {
	return r.router.Close()
}
