package eligibilityhandlers

import (
	"context"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
)

// Handlers handles eligibility related events.
type Handlers interface {
	HandleCheckRequested(ctx context.Context, payload *events.EligibilityCheckRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleGrantRequested(ctx context.Context, payload *events.RoleGrantRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleNominationClosed(ctx context.Context, payload *events.NominationThreadClosedPayloadV1) ([]handlerwrapper.Result, error)
}
