// Package eligibilitydomain evaluates a member against a tier definition and
// explains the outcome requirement by requirement.
package eligibilitydomain

import (
	"context"
	"fmt"
	"time"

	nominationdomain "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/domain"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// Evaluator computes verdicts. It holds no mutable state and is safe for
// concurrent use.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator returns an Evaluator using now as its clock, or time.Now when nil.
func NewEvaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}
}

// Evaluate checks member against every requirement of tier. Evidence failures
// mark the affected requirement unmet and never abort the verdict.
func (e *Evaluator) Evaluate(ctx context.Context, member sharedtypes.Member, tier tierdomain.Tier, ev Evidence) Verdict {
	now := e.now()
	v := Verdict{
		MemberID:    member.ID,
		TierID:      tier.ID,
		TierName:    tier.Name,
		Groups:      make([]GroupResult, 0, len(tier.Groups)),
		EvaluatedAt: now,
	}

	roles := member.RoleNames()
	metGroups := 0
	for _, g := range tier.Groups {
		gr := GroupResult{
			GroupID:      g.ID,
			Name:         g.Name,
			Mode:         g.Mode,
			Requirements: make([]RequirementResult, 0, len(g.Requirements)),
		}
		met := 0
		for _, req := range g.Requirements {
			rr := e.evaluateRequirement(ctx, member, roles, tier, req, ev, now)
			if rr.Met {
				met++
			}
			gr.Requirements = append(gr.Requirements, rr)
		}
		if g.Mode == tierdomain.GroupModeAny {
			gr.Met = met > 0
		} else {
			gr.Met = met == len(g.Requirements)
		}
		if gr.Met {
			metGroups++
		}
		v.Groups = append(v.Groups, gr)
	}

	if tier.RoleMode == tierdomain.RoleModeAllGroups {
		v.Eligible = metGroups == len(tier.Groups)
	} else {
		v.Eligible = metGroups > 0
	}

	if v.Eligible {
		v.Message = fmt.Sprintf("member meets the requirements for %s", tier.Name)
	} else {
		v.Message = fmt.Sprintf("member does not meet the requirements for %s: %d of %d groups met", tier.Name, metGroups, len(tier.Groups))
	}
	return v
}

func (e *Evaluator) evaluateRequirement(
	ctx context.Context,
	member sharedtypes.Member,
	roles []sharedtypes.RoleName,
	tier tierdomain.Tier,
	req tierdomain.Requirement,
	ev Evidence,
	now time.Time,
) RequirementResult {
	rr := RequirementResult{RequirementID: req.RequirementID(), Kind: req.Kind()}

	switch r := req.(type) {
	case tierdomain.DiscordPresence:
		if !sharedtypes.ContainsRole(roles, r.RoleName) {
			return unmet(rr, MissingItems{Items: []string{string(r.RoleName)}})
		}
		if r.MinTenure > 0 {
			if member.AccountCreatedAt.IsZero() {
				return unavailable(rr, "account creation date unknown")
			}
			if tenure := now.Sub(member.AccountCreatedAt); tenure < r.MinTenure {
				return unmet(rr, TextReason{Text: fmt.Sprintf("account age %s is below the minimum %s", tenure.Round(time.Hour), r.MinTenure)})
			}
		}
		return met(rr)

	case tierdomain.ExistingRole:
		return roleResult(rr, roles, r.RoleName)

	case tierdomain.ConcurrentRole:
		return roleResult(rr, roles, r.RoleName)

	case tierdomain.SocialVerification:
		if ev.Accounts == nil {
			return unavailable(rr, "account links not configured")
		}
		ok, err := ev.Accounts.HasLinkedAccount(ctx, member.ID, r.Provider)
		if err != nil {
			return unavailable(rr, err.Error())
		}
		if !ok {
			return unmet(rr, MissingItems{Items: []string{r.Provider}})
		}
		return met(rr)

	case tierdomain.StellarAccountLinked:
		if ev.Accounts == nil {
			return unavailable(rr, "account links not configured")
		}
		ok, err := ev.Accounts.HasStellarAccount(ctx, member.ID)
		if err != nil {
			return unavailable(rr, err.Error())
		}
		if !ok {
			return unmet(rr, MissingItems{Items: []string{"stellar account"}})
		}
		return met(rr)

	case tierdomain.BadgeCount:
		if ev.Badges == nil {
			return unavailable(rr, "badge ledger not configured")
		}
		count, err := ev.Badges.CountBadges(ctx, member.ID, BadgeQuery{Category: r.Category, BadgeIDs: r.BadgeIDs})
		if err != nil {
			return unavailable(rr, err.Error())
		}
		if count < r.MinCount {
			return unmet(rr, Shortfall{r.ShortfallKey(): r.MinCount - count})
		}
		return met(rr)

	case tierdomain.Nomination:
		return e.nominationResult(ctx, rr, member.ID, tier, tier.VoteThreshold(r.RequiredVotes), 1, ev)

	case tierdomain.CommunityVote:
		return e.nominationResult(ctx, rr, member.ID, tier, tier.VoteThreshold(r.RequiredVotes), r.Rounds(), ev)

	default:
		return unmet(rr, TextReason{Text: fmt.Sprintf("unsupported requirement kind %q", req.Kind())})
	}
}

func (e *Evaluator) nominationResult(
	ctx context.Context,
	rr RequirementResult,
	memberID sharedtypes.DiscordID,
	tier tierdomain.Tier,
	threshold int,
	rounds int,
	ev Evidence,
) RequirementResult {
	if ev.Nominations == nil {
		return unavailable(rr, "nomination store not configured")
	}

	if rounds > 1 {
		if history, ok := ev.Nominations.(RoundHistory); ok {
			n, err := history.QualifyingRounds(ctx, memberID, tier.ID, threshold)
			if err != nil {
				return unavailable(rr, err.Error())
			}
			if n < rounds {
				return unmet(rr, Shortfall{"rounds": rounds - n})
			}
			return met(rr)
		}
	}

	// A later thread never cancels a round that already reached the threshold.
	qualified, err := ev.Nominations.HasQualifyingThread(ctx, memberID, tier.ID, threshold)
	if err != nil {
		return unavailable(rr, err.Error())
	}
	if qualified {
		return met(rr)
	}

	thread, err := ev.Nominations.LatestThread(ctx, memberID, tier.ID)
	if err != nil {
		return unavailable(rr, err.Error())
	}
	if thread == nil || thread.State == nominationdomain.StateNone {
		return unmet(rr, TextReason{Text: "no nomination thread"})
	}
	if thread.VoteCount < threshold {
		return unmet(rr, Shortfall{"votes": threshold - thread.VoteCount})
	}
	return met(rr)
}

func roleResult(rr RequirementResult, roles []sharedtypes.RoleName, name sharedtypes.RoleName) RequirementResult {
	if !sharedtypes.ContainsRole(roles, name) {
		return unmet(rr, MissingItems{Items: []string{string(name)}})
	}
	return met(rr)
}

func met(rr RequirementResult) RequirementResult {
	rr.Met = true
	return rr
}

func unmet(rr RequirementResult, reason Reason) RequirementResult {
	rr.Met = false
	rr.Reason = reason
	return rr
}

func unavailable(rr RequirementResult, detail string) RequirementResult {
	rr.Met = false
	rr.Unavailable = true
	rr.Reason = TextReason{Text: fmt.Sprintf("%s: %s", ErrEvidenceUnavailable, detail)}
	return rr
}
