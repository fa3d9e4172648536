//go:build integration

package eligibilitydb

import (
	"context"
	"testing"
	"time"

	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	eligibilitymigrations "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/tier-bot/internal/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantRepository_Integration(t *testing.T) {
	db := testutils.NewPostgres(t, eligibilitymigrations.Migrations)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	denied := &RoleGrant{
		ID:          uuid.New(),
		MemberID:    "222",
		TierID:      "tier-navigator",
		RoleName:    "Navigator",
		Outcome:     "not_eligible",
		Reason:      "missing 1 core badge",
		Verdict: &eligibilitydomain.Verdict{
			MemberID: "222",
			TierID:   "tier-navigator",
			Groups: []eligibilitydomain.GroupResult{{
				GroupID: "contribution",
				Requirements: []eligibilitydomain.RequirementResult{{
					RequirementID: "core-badges",
					Reason:        eligibilitydomain.Shortfall{"core": 1},
				}},
			}},
		},
		AttemptedAt: base,
	}
	threadID := uuid.New()
	granted := &RoleGrant{
		ID:          uuid.New(),
		MemberID:    "222",
		TierID:      "tier-navigator",
		RoleName:    "Navigator",
		Outcome:     "granted",
		ThreadID:    &threadID,
		AttemptedAt: base.Add(time.Hour),
	}
	require.NoError(t, repo.InsertGrant(ctx, nil, denied))
	require.NoError(t, repo.InsertGrant(ctx, nil, granted))

	got, err := repo.GetGrant(ctx, nil, denied.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Verdict)
	unmet := got.Verdict.UnmetRequirements()
	require.Len(t, unmet, 1)
	assert.Equal(t, eligibilitydomain.Shortfall{"core": 1}, unmet[0].Reason)

	list, err := repo.ListGrants(ctx, nil, "222", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, granted.ID, list[0].ID, "newest first")
	require.NotNil(t, list[0].ThreadID)
	assert.Equal(t, threadID, *list[0].ThreadID)

	list, err = repo.ListGrants(ctx, nil, "222", 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetGrant(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, ErrGrantNotFound)

	bad := &RoleGrant{ID: uuid.New(), MemberID: "222", TierID: "tier-navigator", RoleName: "Navigator", Outcome: "maybe", AttemptedAt: base}
	assert.Error(t, repo.InsertGrant(ctx, nil, bad), "outcome is constrained")
}
