package eligibilityservice

import (
	"context"
	"errors"
	"fmt"
	"testing"

	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	eligibilitydb "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/repositories"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestService(t *testing.T, members *FakeMemberDirectory, assigner RoleAssigner, opts ...OrchestratorOption) *EligibilityService {
	t.Helper()
	registry, err := tierdomain.NewRegistry(navigatorTier())
	require.NoError(t, err)

	return NewEligibilityService(
		newTestOrchestrator(assigner, opts...),
		registry,
		members,
		eligibilitydomain.Evidence{Badges: categoryLedger(map[string]int{"core": 3})},
		nil,
		metrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
	)
}

func memberFound(roles ...sharedtypes.RoleName) *FakeMemberDirectory {
	return &FakeMemberDirectory{
		GetMemberFunc: func(context.Context, sharedtypes.DiscordID) (sharedtypes.Member, error) {
			return testMember(roles...), nil
		},
	}
}

func TestEligibilityService_Evaluate(t *testing.T) {
	tests := []struct {
		name         string
		members      *FakeMemberDirectory
		tierID       sharedtypes.TierID
		wantEligible bool
		wantFailure  error
		wantErr      bool
	}{
		{
			name:         "eligible member",
			members:      memberFound("Pathfinder"),
			tierID:       "tier-navigator",
			wantEligible: true,
		},
		{
			name:    "member missing the concurrent role",
			members: memberFound(),
			tierID:  "tier-navigator",
		},
		{
			name:        "unknown tier",
			members:     memberFound("Pathfinder"),
			tierID:      "tier-captain",
			wantFailure: ErrUnknownTier,
		},
		{
			name:        "unknown member",
			members:     &FakeMemberDirectory{},
			tierID:      "tier-navigator",
			wantFailure: sharedtypes.ErrMemberNotFound,
		},
		{
			name: "directory error",
			members: &FakeMemberDirectory{
				GetMemberFunc: func(context.Context, sharedtypes.DiscordID) (sharedtypes.Member, error) {
					return sharedtypes.Member{}, errors.New("connection refused")
				},
			},
			tierID:  "tier-navigator",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.members, &FakeRoleAssigner{})

			res, err := svc.Evaluate(context.Background(), "100000000000000001", tt.tierID)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantFailure != nil {
				require.True(t, res.IsFailure())
				assert.ErrorIs(t, *res.Failure, tt.wantFailure)
				return
			}
			require.True(t, res.IsSuccess())
			assert.Equal(t, tt.wantEligible, res.Success.Eligible)
			assert.Equal(t, tierdomain.TierNavigator, res.Success.TierName)
		})
	}
}

func TestEligibilityService_Evaluate_UnknownTierSkipsDirectory(t *testing.T) {
	members := memberFound("Pathfinder")
	svc := newTestService(t, members, &FakeRoleAssigner{})

	res, err := svc.Evaluate(context.Background(), "100000000000000001", "tier-captain")

	require.NoError(t, err)
	require.True(t, res.IsFailure())
	assert.Empty(t, members.Trace())
}

func TestEligibilityService_AttemptGrant(t *testing.T) {
	t.Run("eligible member is granted with thread link", func(t *testing.T) {
		assigner := &FakeRoleAssigner{}
		recorder := &FakeGrantRecorder{}
		svc := newTestService(t, memberFound("Pathfinder"), assigner, WithGrantRecorder(recorder))
		threadID := uuid.New()

		res, err := svc.AttemptGrant(context.Background(), GrantRequest{
			MemberID: "100000000000000001",
			TierID:   "tier-navigator",
			ThreadID: &threadID,
		})

		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Equal(t, OutcomeGranted, res.Success.Outcome)
		assert.Len(t, assigner.Calls(), 1)
		require.Len(t, recorder.records, 1)
		assert.Equal(t, &threadID, recorder.records[0].ThreadID)
	})

	t.Run("grant failure is a successful result with grant_failed outcome", func(t *testing.T) {
		assigner := &FakeRoleAssigner{
			GrantRoleFunc: func(context.Context, sharedtypes.DiscordID, sharedtypes.RoleName, string) error {
				return fmt.Errorf("missing permissions")
			},
		}
		svc := newTestService(t, memberFound("Pathfinder"), assigner)

		res, err := svc.AttemptGrant(context.Background(), GrantRequest{MemberID: "100000000000000001", TierID: "tier-navigator"})

		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Equal(t, OutcomeGrantFailed, res.Success.Outcome)
		assert.ErrorIs(t, res.Success.Err, ErrGrantFailed)
	})

	t.Run("unknown member fails without calling the assigner", func(t *testing.T) {
		assigner := &FakeRoleAssigner{}
		svc := newTestService(t, &FakeMemberDirectory{}, assigner)

		res, err := svc.AttemptGrant(context.Background(), GrantRequest{MemberID: "42", TierID: "tier-navigator"})

		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, *res.Failure, sharedtypes.ErrMemberNotFound)
		assert.Empty(t, assigner.Calls())
	})
}

func TestEligibilityService_Tiers(t *testing.T) {
	svc := newTestService(t, &FakeMemberDirectory{}, nil)

	tiers := svc.Tiers()

	require.Len(t, tiers, 1)
	assert.Equal(t, tierdomain.TierNavigator, tiers[0].Name)
}

func TestEligibilityService_GrantHistory(t *testing.T) {
	repo := &FakeGrantRepo{}
	registry, err := tierdomain.NewRegistry(navigatorTier())
	require.NoError(t, err)

	svc := NewEligibilityService(
		newTestOrchestrator(&FakeRoleAssigner{}, WithGrantRecorder(NewGrantLog(repo))),
		registry,
		memberFound("Pathfinder"),
		eligibilitydomain.Evidence{Badges: categoryLedger(map[string]int{"core": 1})},
		nil,
		metrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
		WithGrantHistory(repo),
	)

	_, err = svc.AttemptGrant(context.Background(), GrantRequest{MemberID: "100000000000000001", TierID: "tier-navigator"})
	require.NoError(t, err)

	res, err := svc.GrantHistory(context.Background(), "100000000000000001", 10)

	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	history := *res.Success
	require.Len(t, history, 1)
	assert.Equal(t, OutcomeNotEligible, history[0].Outcome)
	assert.False(t, history[0].Verdict.Eligible)
	assert.Len(t, history[0].Verdict.UnmetRequirements(), 1)
}

func TestEligibilityService_GrantHistory_RepoError(t *testing.T) {
	repo := &FakeGrantRepo{
		ListGrantsFunc: func(context.Context, bun.IDB, sharedtypes.DiscordID, int) ([]eligibilitydb.RoleGrant, error) {
			return nil, errors.New("timeout")
		},
	}
	registry, err := tierdomain.NewRegistry(navigatorTier())
	require.NoError(t, err)
	svc := NewEligibilityService(newTestOrchestrator(nil), registry, &FakeMemberDirectory{}, eligibilitydomain.Evidence{}, nil, nil, nil, WithGrantHistory(repo))

	_, err = svc.GrantHistory(context.Background(), "1", 0)

	require.Error(t, err)
}
