//go:build integration

package nominationservice

import (
	"context"
	"log/slog"
	"testing"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	nominationdb "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories"
	nominationmigrations "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories/migrations"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/Black-And-White-Club/tier-bot/internal/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

// staleRepo hands out a thread snapshot one vote behind the stored row, so the
// conditional vote_count update matches nothing after the vote row is written.
type staleRepo struct {
	nominationdb.Repository
}

func (r staleRepo) GetThreadForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*nominationdomain.Thread, error) {
	t, err := r.Repository.GetThreadForUpdate(ctx, db, id)
	if err != nil {
		return nil, err
	}
	t.VoteCount--
	return t, nil
}

func TestSubmitVote_Integration_RejectedWriteRollsBack(t *testing.T) {
	db := testutils.NewPostgres(t, nominationmigrations.Migrations)
	ctx := context.Background()
	repo := nominationdb.NewRepository(db)
	roles := &FakeRoleReader{Roles: map[sharedtypes.DiscordID][]sharedtypes.RoleName{
		"nominator": {"Navigator"},
		"pilot-1":   {"Pilot"},
		"pilot-2":   {"Pilot"},
	}}
	newService := func(r nominationdb.Repository) *NominationService {
		return NewNominationService(
			r,
			FakeTierCatalog{navigatorTier.ID: navigatorTier},
			roles,
			slog.Default(),
			metrics.NewNoop(),
			noop.NewTracerProvider().Tracer("test"),
			db,
		)
	}

	svc := newService(repo)
	started, err := svc.StartNomination(ctx, StartNominationRequest{NominatorID: "nominator", NomineeID: "nominee", TierID: navigatorTier.ID})
	require.NoError(t, err)
	require.True(t, started.IsSuccess())
	thread := *started.Success

	first, err := svc.SubmitVote(ctx, SubmitVoteRequest{ThreadID: thread.ID, VoterID: "pilot-1"})
	require.NoError(t, err)
	require.True(t, first.IsSuccess())

	res, err := newService(staleRepo{Repository: repo}).SubmitVote(ctx, SubmitVoteRequest{ThreadID: thread.ID, VoterID: "pilot-2"})
	require.NoError(t, err)
	require.True(t, res.IsFailure())
	assert.ErrorIs(t, *res.Failure, nominationdomain.ErrThreadNotAcceptingVotes)

	voted, err := repo.HasVoted(ctx, nil, thread.ID, "pilot-2")
	require.NoError(t, err)
	assert.False(t, voted, "vote row is rolled back with the failed count update")

	stored, err := repo.GetThread(ctx, nil, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.VoteCount)
	assert.Equal(t, nominationdomain.StateOpen, stored.State)
}
