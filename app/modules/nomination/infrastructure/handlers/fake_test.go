package nominationhandlers

import (
	"context"

	nominationservice "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/application"
	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	"github.com/google/uuid"
)

// ------------------------
// Fake Nomination Service
// ------------------------

type FakeNominationService struct {
	trace []string

	StartNominationFunc func(ctx context.Context, req nominationservice.StartNominationRequest) (nominationservice.ThreadResult, error)
	SubmitVoteFunc      func(ctx context.Context, req nominationservice.SubmitVoteRequest) (nominationservice.VoteResult, error)
	CloseNominationFunc func(ctx context.Context, threadID uuid.UUID, reason nominationdomain.CloseReason) (nominationservice.CloseResult, error)
}

func NewFakeNominationService() *FakeNominationService {
	return &FakeNominationService{trace: []string{}}
}

func (f *FakeNominationService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeNominationService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// --- Service Interface Implementation ---

func (f *FakeNominationService) StartNomination(ctx context.Context, req nominationservice.StartNominationRequest) (nominationservice.ThreadResult, error) {
	f.record("StartNomination")
	if f.StartNominationFunc != nil {
		return f.StartNominationFunc(ctx, req)
	}
	return nominationservice.ThreadResult{}, nil
}

func (f *FakeNominationService) SubmitVote(ctx context.Context, req nominationservice.SubmitVoteRequest) (nominationservice.VoteResult, error) {
	f.record("SubmitVote")
	if f.SubmitVoteFunc != nil {
		return f.SubmitVoteFunc(ctx, req)
	}
	return nominationservice.VoteResult{}, nil
}

func (f *FakeNominationService) CloseNomination(ctx context.Context, threadID uuid.UUID, reason nominationdomain.CloseReason) (nominationservice.CloseResult, error) {
	f.record("CloseNomination")
	if f.CloseNominationFunc != nil {
		return f.CloseNominationFunc(ctx, threadID, reason)
	}
	return nominationservice.CloseResult{}, nil
}

func (f *FakeNominationService) CloseExpired(ctx context.Context, limit int) ([]nominationdomain.Thread, error) {
	f.record("CloseExpired")
	return nil, nil
}

func (f *FakeNominationService) GetThread(ctx context.Context, threadID uuid.UUID) (nominationservice.ThreadResult, error) {
	f.record("GetThread")
	return nominationservice.ThreadResult{}, nil
}

var _ nominationservice.Service = (*FakeNominationService)(nil)
