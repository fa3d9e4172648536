package memberhandlers

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	memberservice "github.com/Black-And-White-Club/tier-bot/app/modules/member/application"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// Handlers defines the interface for member event handlers.
type Handlers interface {
	HandleSyncRequested(ctx context.Context, payload *events.MemberSyncRequestedPayloadV1) ([]handlerwrapper.Result, error)
}

// MemberHandlers implements the Handlers interface.
type MemberHandlers struct {
	service memberservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewMemberHandlers(service memberservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &MemberHandlers{service: service, logger: logger, tracer: tracer}
}

// HandleSyncRequested stores the member snapshot sent by the chat gateway.
func (h *MemberHandlers) HandleSyncRequested(ctx context.Context, payload *events.MemberSyncRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MemberHandlers.HandleSyncRequested")
	defer span.End()

	result, err := h.service.SyncMember(ctx, memberservice.SyncMemberRequest{
		Member:         payload.Member,
		LinkedAccounts: payload.LinkedAccounts,
		StellarAccount: payload.StellarAccount,
		ObservedAt:     payload.ObservedAt,
	})
	if err != nil {
		return nil, err
	}

	if result.IsFailure() {
		h.logger.WarnContext(ctx, "Member snapshot rejected",
			attr.ExtractCorrelationID(ctx),
			attr.String("member_id", string(payload.Member.ID)),
			attr.Error(*result.Failure),
		)
		return []handlerwrapper.Result{{
			Topic: events.MemberSyncFailedV1,
			Payload: &events.MemberSyncFailedPayloadV1{
				MemberID: payload.Member.ID,
				Reason:   (*result.Failure).Error(),
			},
		}}, nil
	}

	return []handlerwrapper.Result{{
		Topic: events.MemberSyncedV1,
		Payload: &events.MemberSyncedPayloadV1{
			MemberID: result.Success.ID,
			Roles:    len(result.Success.Roles),
		},
	}}, nil
}
