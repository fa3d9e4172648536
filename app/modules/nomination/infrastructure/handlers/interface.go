package nominationhandlers

import (
	"context"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
)

// Handlers defines the interface for nomination event handlers.
type Handlers interface {
	// HandleStartRequested opens a nomination thread.
	HandleStartRequested(ctx context.Context, payload *events.NominationStartRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleVoteRequested admits or rejects a vote. A vote that reaches the
	// threshold also produces nomination.thread.closed.v1.
	HandleVoteRequested(ctx context.Context, payload *events.NominationVoteRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleCloseRequested closes a thread on request or when its expiry job fires.
	HandleCloseRequested(ctx context.Context, payload *events.NominationCloseRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
