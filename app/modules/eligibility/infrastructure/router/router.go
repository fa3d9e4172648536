package eligibilityrouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	eligibilityhandlers "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/handlers"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// EligibilityRouter handles Watermill handler registration for eligibility events.
type EligibilityRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewEligibilityRouter creates a new EligibilityRouter.
func NewEligibilityRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *EligibilityRouter {
	return &EligibilityRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *EligibilityRouter) Configure(_ context.Context, handlers eligibilityhandlers.Handlers) error {
	r.logger.Info("Registering eligibility module handlers")

	registerHandler(r, events.EligibilityCheckRequestedV1, handlers.HandleCheckRequested)
	registerHandler(r, events.RoleGrantRequestedV1, handlers.HandleGrantRequested)
	registerHandler(r, events.NominationThreadClosedV1, handlers.HandleNominationClosed)

	r.logger.Info("Eligibility module handlers registered successfully")
	return nil
}

func registerHandler[T any](
	r *EligibilityRouter,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "eligibility." + topic
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
func (r *EligibilityRouter) Close() error {
	return r.router.Close()
}
