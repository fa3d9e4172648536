package nominationhandlers

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	nominationservice "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/application"
	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// NominationHandlers implements the Handlers interface.
type NominationHandlers struct {
	service nominationservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewNominationHandlers creates a new NominationHandlers instance.
func NewNominationHandlers(
	service nominationservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &NominationHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func (h *NominationHandlers) HandleStartRequested(ctx context.Context, payload *events.NominationStartRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "NominationHandlers.HandleStartRequested")
	defer span.End()

	result, err := h.service.StartNomination(ctx, nominationservice.StartNominationRequest{
		NominatorID: payload.NominatorID,
		NomineeID:   payload.NomineeID,
		TierID:      payload.TierID,
	})
	if err != nil {
		return nil, err
	}

	if result.IsFailure() {
		reason := (*result.Failure).Error()
		h.logger.InfoContext(ctx, "Nomination rejected",
			attr.ExtractCorrelationID(ctx),
			attr.String("nominee_id", string(payload.NomineeID)),
			attr.String("tier_id", string(payload.TierID)),
			attr.String("reason", reason),
		)
		return []handlerwrapper.Result{{
			Topic: handlerwrapper.ReplyTopic(ctx, events.NominationStartRejectedV1),
			Payload: &events.NominationStartRejectedPayloadV1{
				NominatorID: payload.NominatorID,
				NomineeID:   payload.NomineeID,
				TierID:      payload.TierID,
				Reason:      reason,
			},
		}}, nil
	}

	return []handlerwrapper.Result{{
		Topic:   handlerwrapper.ReplyTopic(ctx, events.NominationThreadOpenedV1),
		Payload: &events.NominationThreadOpenedPayloadV1{Thread: events.ThreadPayload(*result.Success)},
	}}, nil
}

func (h *NominationHandlers) HandleVoteRequested(ctx context.Context, payload *events.NominationVoteRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "NominationHandlers.HandleVoteRequested")
	defer span.End()

	result, err := h.service.SubmitVote(ctx, nominationservice.SubmitVoteRequest{
		ThreadID: payload.ThreadID,
		VoterID:  payload.VoterID,
	})
	if err != nil {
		return nil, err
	}

	if result.IsFailure() {
		return []handlerwrapper.Result{{
			Topic: handlerwrapper.ReplyTopic(ctx, events.NominationVoteRejectedV1),
			Payload: &events.NominationVoteRejectedPayloadV1{
				ThreadID: payload.ThreadID,
				VoterID:  payload.VoterID,
				Reason:   (*result.Failure).Error(),
			},
		}}, nil
	}

	outcome := *result.Success
	thread := events.ThreadPayload(outcome.Thread)
	out := []handlerwrapper.Result{{
		Topic: handlerwrapper.ReplyTopic(ctx, events.NominationVoteAdmittedV1),
		Payload: &events.NominationVoteAdmittedPayloadV1{
			VoteID:  outcome.Vote.ID,
			VoterID: outcome.Vote.VoterID,
			Thread:  thread,
		},
	}}
	if outcome.Closed {
		h.logger.InfoContext(ctx, "Nomination reached its vote threshold",
			attr.ExtractCorrelationID(ctx),
			attr.String("thread_id", outcome.Thread.ID.String()),
			attr.Int("votes", outcome.Thread.VoteCount),
		)
		out = append(out, handlerwrapper.Result{
			Topic:   events.NominationThreadClosedV1,
			Payload: &events.NominationThreadClosedPayloadV1{Thread: thread},
		})
	}
	return out, nil
}

func (h *NominationHandlers) HandleCloseRequested(ctx context.Context, payload *events.NominationCloseRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "NominationHandlers.HandleCloseRequested")
	defer span.End()

	result, err := h.service.CloseNomination(ctx, payload.ThreadID, nominationdomain.CloseReason(payload.Reason))
	if err != nil {
		return nil, err
	}

	if result.IsFailure() {
		return []handlerwrapper.Result{{
			Topic: handlerwrapper.ReplyTopic(ctx, events.NominationCloseRejectedV1),
			Payload: &events.NominationCloseRejectedPayloadV1{
				ThreadID: payload.ThreadID,
				Reason:   (*result.Failure).Error(),
			},
		}}, nil
	}

	outcome := *result.Success
	if !outcome.Changed {
		h.logger.DebugContext(ctx, "Thread already closed",
			attr.String("thread_id", payload.ThreadID.String()),
			attr.String("close_reason", string(outcome.Thread.CloseReason)),
		)
		return nil, nil
	}

	return []handlerwrapper.Result{{
		Topic:   events.NominationThreadClosedV1,
		Payload: &events.NominationThreadClosedPayloadV1{Thread: events.ThreadPayload(outcome.Thread)},
	}}, nil
}
