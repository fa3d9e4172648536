package eligibilityhandlers

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	eligibilityservice "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/application"
	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// EligibilityHandlers implements the Handlers interface.
type EligibilityHandlers struct {
	service eligibilityservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewEligibilityHandlers creates a new EligibilityHandlers instance.
func NewEligibilityHandlers(
	service eligibilityservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &EligibilityHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func (h *EligibilityHandlers) HandleCheckRequested(ctx context.Context, payload *events.EligibilityCheckRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EligibilityHandlers.HandleCheckRequested")
	defer span.End()

	result, err := h.service.Evaluate(ctx, payload.MemberID, payload.TierID)
	if err != nil {
		return nil, err
	}

	if result.IsFailure() {
		return []handlerwrapper.Result{{
			Topic: handlerwrapper.ReplyTopic(ctx, events.EligibilityCheckFailedV1),
			Payload: &events.EligibilityCheckFailedPayloadV1{
				MemberID: payload.MemberID,
				TierID:   payload.TierID,
				Reason:   (*result.Failure).Error(),
			},
		}}, nil
	}

	return []handlerwrapper.Result{{
		Topic:   handlerwrapper.ReplyTopic(ctx, events.EligibilityCheckedV1),
		Payload: &events.EligibilityCheckedPayloadV1{Verdict: *result.Success},
	}}, nil
}

func (h *EligibilityHandlers) HandleGrantRequested(ctx context.Context, payload *events.RoleGrantRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EligibilityHandlers.HandleGrantRequested")
	defer span.End()

	return h.attemptGrant(ctx, eligibilityservice.GrantRequest{
		MemberID: payload.MemberID,
		TierID:   payload.TierID,
		ThreadID: payload.ThreadID,
	})
}

// HandleNominationClosed attempts the grant for a nomination that reached its
// threshold. Threads closed for any other reason are ignored.
func (h *EligibilityHandlers) HandleNominationClosed(ctx context.Context, payload *events.NominationThreadClosedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EligibilityHandlers.HandleNominationClosed")
	defer span.End()

	thread := payload.Thread
	if nominationdomain.CloseReason(thread.CloseReason) != nominationdomain.CloseThresholdReached {
		h.logger.InfoContext(ctx, "Nomination closed without reaching threshold",
			attr.ExtractCorrelationID(ctx),
			attr.String("thread_id", thread.ThreadID.String()),
			attr.String("close_reason", thread.CloseReason),
		)
		return nil, nil
	}

	threadID := thread.ThreadID
	return h.attemptGrant(ctx, eligibilityservice.GrantRequest{
		MemberID: thread.NomineeID,
		TierID:   thread.TierID,
		ThreadID: &threadID,
	})
}

func (h *EligibilityHandlers) attemptGrant(ctx context.Context, req eligibilityservice.GrantRequest) ([]handlerwrapper.Result, error) {
	result, err := h.service.AttemptGrant(ctx, req)
	if err != nil {
		return nil, err
	}

	if result.IsFailure() {
		return []handlerwrapper.Result{{
			Topic: handlerwrapper.ReplyTopic(ctx, events.RoleGrantFailedV1),
			Payload: &events.RoleGrantFailedPayloadV1{
				MemberID: req.MemberID,
				TierID:   req.TierID,
				Reason:   (*result.Failure).Error(),
			},
		}}, nil
	}

	res := *result.Success
	switch res.Outcome {
	case eligibilityservice.OutcomeGranted:
		return []handlerwrapper.Result{{
			Topic: handlerwrapper.ReplyTopic(ctx, events.RoleGrantedV1),
			Payload: &events.RoleGrantedPayloadV1{
				GrantID:     res.GrantID,
				MemberID:    res.MemberID,
				TierID:      res.TierID,
				RoleName:    res.RoleName,
				AlreadyHeld: res.AlreadyHeld,
			},
		}}, nil
	case eligibilityservice.OutcomeNotEligible:
		return []handlerwrapper.Result{{
			Topic: handlerwrapper.ReplyTopic(ctx, events.RoleGrantDeniedV1),
			Payload: &events.RoleGrantDeniedPayloadV1{
				GrantID:  res.GrantID,
				MemberID: res.MemberID,
				TierID:   res.TierID,
				Verdict:  res.Verdict,
			},
		}}, nil
	default:
		return []handlerwrapper.Result{{
			Topic: handlerwrapper.ReplyTopic(ctx, events.RoleGrantFailedV1),
			Payload: &events.RoleGrantFailedPayloadV1{
				GrantID:  res.GrantID,
				MemberID: res.MemberID,
				TierID:   res.TierID,
				Reason:   grantFailureReason(res),
			},
		}}, nil
	}
}

func grantFailureReason(res eligibilityservice.GrantResult) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return eligibilityservice.ErrGrantFailed.Error()
}
