package eligibilityhandlers

import (
	"context"

	eligibilityservice "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/application"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// ------------------------
// Fake Eligibility Service
// ------------------------

type FakeEligibilityService struct {
	trace []string

	EvaluateFunc     func(ctx context.Context, memberID sharedtypes.DiscordID, tierID sharedtypes.TierID) (eligibilityservice.VerdictResult, error)
	AttemptGrantFunc func(ctx context.Context, req eligibilityservice.GrantRequest) (eligibilityservice.GrantOpResult, error)
}

func (f *FakeEligibilityService) Trace() []string { return f.trace }

func (f *FakeEligibilityService) Evaluate(ctx context.Context, memberID sharedtypes.DiscordID, tierID sharedtypes.TierID) (eligibilityservice.VerdictResult, error) {
	f.trace = append(f.trace, "Evaluate")
	if f.EvaluateFunc != nil {
		return f.EvaluateFunc(ctx, memberID, tierID)
	}
	return eligibilityservice.VerdictResult{}, nil
}

func (f *FakeEligibilityService) AttemptGrant(ctx context.Context, req eligibilityservice.GrantRequest) (eligibilityservice.GrantOpResult, error) {
	f.trace = append(f.trace, "AttemptGrant")
	if f.AttemptGrantFunc != nil {
		return f.AttemptGrantFunc(ctx, req)
	}
	return eligibilityservice.GrantOpResult{}, nil
}

func (f *FakeEligibilityService) GrantHistory(context.Context, sharedtypes.DiscordID, int) (eligibilityservice.GrantHistoryResult, error) {
	f.trace = append(f.trace, "GrantHistory")
	return eligibilityservice.GrantHistoryResult{}, nil
}

func (f *FakeEligibilityService) Tiers() []tierdomain.Tier { return nil }

var _ eligibilityservice.Service = (*FakeEligibilityService)(nil)
