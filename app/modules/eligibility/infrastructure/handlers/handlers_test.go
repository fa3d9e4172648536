package eligibilityhandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/Black-And-White-Club/tier-bot/app/events"
	eligibilityservice "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/application"
	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestHandlers(svc *FakeEligibilityService) Handlers {
	return NewEligibilityHandlers(svc, slog.Default(), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleCheckRequested(t *testing.T) {
	payload := &events.EligibilityCheckRequestedPayloadV1{MemberID: "222", TierID: "navigator"}

	tests := []struct {
		name      string
		evaluate  func(context.Context, sharedtypes.DiscordID, sharedtypes.TierID) (eligibilityservice.VerdictResult, error)
		wantTopic string
		wantErr   bool
	}{
		{
			name: "verdict published",
			evaluate: func(context.Context, sharedtypes.DiscordID, sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
				return results.SuccessResult[eligibilitydomain.Verdict, error](eligibilitydomain.Verdict{MemberID: "222", Eligible: true}), nil
			},
			wantTopic: events.EligibilityCheckedV1,
		},
		{
			name: "unknown tier",
			evaluate: func(context.Context, sharedtypes.DiscordID, sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
				return results.FailureResult[eligibilitydomain.Verdict, error](fmt.Errorf("%w: navigator", eligibilityservice.ErrUnknownTier)), nil
			},
			wantTopic: events.EligibilityCheckFailedV1,
		},
		{
			name: "infrastructure error is retried",
			evaluate: func(context.Context, sharedtypes.DiscordID, sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
				return eligibilityservice.VerdictResult{}, errors.New("db down")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&FakeEligibilityService{EvaluateFunc: tt.evaluate})

			out, err := h.HandleCheckRequested(context.Background(), payload)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tt.wantTopic, out[0].Topic)
		})
	}
}

func TestHandleCheckRequested_RepliesToRequester(t *testing.T) {
	svc := &FakeEligibilityService{
		EvaluateFunc: func(context.Context, sharedtypes.DiscordID, sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
			return results.SuccessResult[eligibilitydomain.Verdict, error](eligibilitydomain.Verdict{}), nil
		},
	}
	ctx := context.WithValue(context.Background(), handlerwrapper.CtxKeyReplyTo, "discord.replies.abc")

	out, err := newTestHandlers(svc).HandleCheckRequested(ctx, &events.EligibilityCheckRequestedPayloadV1{MemberID: "1", TierID: "t"})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "discord.replies.abc", out[0].Topic)
}

func TestHandleGrantRequested(t *testing.T) {
	grantID := uuid.New()
	grant := func(outcome eligibilityservice.GrantOutcome, err error) func(context.Context, eligibilityservice.GrantRequest) (eligibilityservice.GrantOpResult, error) {
		return func(_ context.Context, req eligibilityservice.GrantRequest) (eligibilityservice.GrantOpResult, error) {
			return results.SuccessResult[eligibilityservice.GrantResult, error](eligibilityservice.GrantResult{
				GrantID:  grantID,
				Outcome:  outcome,
				MemberID: req.MemberID,
				TierID:   req.TierID,
				RoleName: "Navigator",
				Err:      err,
			}), nil
		}
	}

	tests := []struct {
		name      string
		attempt   func(context.Context, eligibilityservice.GrantRequest) (eligibilityservice.GrantOpResult, error)
		wantTopic string
		wantErr   bool
	}{
		{name: "granted", attempt: grant(eligibilityservice.OutcomeGranted, nil), wantTopic: events.RoleGrantedV1},
		{name: "not eligible", attempt: grant(eligibilityservice.OutcomeNotEligible, nil), wantTopic: events.RoleGrantDeniedV1},
		{
			name:      "grant failed",
			attempt:   grant(eligibilityservice.OutcomeGrantFailed, fmt.Errorf("%w: 403", eligibilityservice.ErrGrantFailed)),
			wantTopic: events.RoleGrantFailedV1,
		},
		{
			name: "member not found",
			attempt: func(context.Context, eligibilityservice.GrantRequest) (eligibilityservice.GrantOpResult, error) {
				return results.FailureResult[eligibilityservice.GrantResult, error](sharedtypes.ErrMemberNotFound), nil
			},
			wantTopic: events.RoleGrantFailedV1,
		},
		{
			name: "infrastructure error",
			attempt: func(context.Context, eligibilityservice.GrantRequest) (eligibilityservice.GrantOpResult, error) {
				return eligibilityservice.GrantOpResult{}, errors.New("db down")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&FakeEligibilityService{AttemptGrantFunc: tt.attempt})

			out, err := h.HandleGrantRequested(context.Background(), &events.RoleGrantRequestedPayloadV1{MemberID: "222", TierID: "navigator"})

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tt.wantTopic, out[0].Topic)
		})
	}
}

func TestHandleNominationClosed(t *testing.T) {
	threadID := uuid.New()

	tests := []struct {
		name        string
		reason      nominationdomain.CloseReason
		wantAttempt bool
	}{
		{name: "threshold reached attempts the grant", reason: nominationdomain.CloseThresholdReached, wantAttempt: true},
		{name: "expired thread is ignored", reason: nominationdomain.CloseExpired},
		{name: "cancelled thread is ignored", reason: nominationdomain.CloseCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got eligibilityservice.GrantRequest
			svc := &FakeEligibilityService{
				AttemptGrantFunc: func(_ context.Context, req eligibilityservice.GrantRequest) (eligibilityservice.GrantOpResult, error) {
					got = req
					return results.SuccessResult[eligibilityservice.GrantResult, error](eligibilityservice.GrantResult{Outcome: eligibilityservice.OutcomeGranted}), nil
				},
			}
			payload := &events.NominationThreadClosedPayloadV1{Thread: events.NominationThreadPayloadV1{
				ThreadID:    threadID,
				NomineeID:   "222",
				TierID:      "navigator",
				State:       string(nominationdomain.StateClosed),
				CloseReason: string(tt.reason),
			}}

			out, err := newTestHandlers(svc).HandleNominationClosed(context.Background(), payload)

			require.NoError(t, err)
			if !tt.wantAttempt {
				assert.Empty(t, out)
				assert.Empty(t, svc.Trace())
				return
			}
			require.Len(t, out, 1)
			assert.Equal(t, events.RoleGrantedV1, out[0].Topic)
			assert.Equal(t, sharedtypes.DiscordID("222"), got.MemberID)
			require.NotNil(t, got.ThreadID)
			assert.Equal(t, threadID, *got.ThreadID)
		})
	}
}
