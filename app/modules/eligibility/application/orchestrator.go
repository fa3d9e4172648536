package eligibilityservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/google/uuid"
)

// GrantOutcome distinguishes a refused rule check from a refused grant call.
type GrantOutcome string

const (
	OutcomeGranted     GrantOutcome = "granted"
	OutcomeNotEligible GrantOutcome = "not_eligible"
	OutcomeGrantFailed GrantOutcome = "grant_failed"
)

// ErrGrantFailed wraps every error returned by the role assigner.
var ErrGrantFailed = errors.New("role grant failed")

// DefaultGrantTimeout bounds the role assigner call when none is configured.
const DefaultGrantTimeout = 10 * time.Second

// GrantResult is the outcome of one grant attempt.
type GrantResult struct {
	GrantID     uuid.UUID                 `json:"grant_id"`
	Outcome     GrantOutcome              `json:"outcome"`
	MemberID    sharedtypes.DiscordID     `json:"member_id"`
	TierID      sharedtypes.TierID        `json:"tier_id"`
	RoleName    sharedtypes.RoleName      `json:"role_name"`
	AlreadyHeld bool                      `json:"already_held"`
	Verdict     eligibilitydomain.Verdict `json:"verdict"`
	// Err is set for OutcomeGrantFailed and wraps ErrGrantFailed.
	Err error `json:"-"`
}

// Orchestrator evaluates a member and, when eligible, grants the tier role.
type Orchestrator struct {
	evaluator *eligibilitydomain.Evaluator
	assigner  RoleAssigner
	ledger    RoleLedger
	recorder  GrantRecorder
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// OrchestratorOption configures optional Orchestrator behaviour.
type OrchestratorOption func(*Orchestrator)

// WithGrantTimeout bounds each role assigner call.
func WithGrantTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRoleLedger adds granted roles to the member directory.
func WithRoleLedger(l RoleLedger) OrchestratorOption {
	return func(o *Orchestrator) { o.ledger = l }
}

// WithGrantRecorder writes every attempt to the grant audit log.
func WithGrantRecorder(r GrantRecorder) OrchestratorOption {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(evaluator *eligibilitydomain.Evaluator, assigner RoleAssigner, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		evaluator: evaluator,
		assigner:  assigner,
		logger:    logger,
		timeout:   DefaultGrantTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate computes the verdict without side effects.
func (o *Orchestrator) Evaluate(ctx context.Context, member sharedtypes.Member, tier tierdomain.Tier, ev eligibilitydomain.Evidence) eligibilitydomain.Verdict {
	return o.evaluator.Evaluate(ctx, member, tier, ev)
}

// AttemptGrant evaluates member against tier and grants the tier role when the
// verdict is eligible. The role assigner is not called when the member is not
// eligible or already holds the role.
func (o *Orchestrator) AttemptGrant(ctx context.Context, member sharedtypes.Member, tier tierdomain.Tier, ev eligibilitydomain.Evidence) GrantResult {
	return o.attemptGrant(ctx, member, tier, ev, nil)
}

func (o *Orchestrator) attemptGrant(ctx context.Context, member sharedtypes.Member, tier tierdomain.Tier, ev eligibilitydomain.Evidence, threadID *uuid.UUID) GrantResult {
	role := tier.Name.RoleName()
	res := GrantResult{
		GrantID:  uuid.New(),
		MemberID: member.ID,
		TierID:   tier.ID,
		RoleName: role,
		Verdict:  o.evaluator.Evaluate(ctx, member, tier, ev),
	}

	switch {
	case !res.Verdict.Eligible:
		res.Outcome = OutcomeNotEligible
	case member.HasRole(role):
		res.Outcome = OutcomeGranted
		res.AlreadyHeld = true
	default:
		if err := o.grant(ctx, member.ID, role, res.Verdict.Message); err != nil {
			res.Outcome = OutcomeGrantFailed
			res.Err = err
		} else {
			res.Outcome = OutcomeGranted
		}
	}

	o.afterAttempt(ctx, res, threadID)
	return res
}

func (o *Orchestrator) grant(ctx context.Context, memberID sharedtypes.DiscordID, role sharedtypes.RoleName, reason string) error {
	if o.assigner == nil {
		return fmt.Errorf("%w: no role assigner configured", ErrGrantFailed)
	}
	grantCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.assigner.GrantRole(grantCtx, memberID, role, reason); err != nil {
		return fmt.Errorf("%w: %w", ErrGrantFailed, err)
	}
	if err := grantCtx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrGrantFailed, err)
	}
	return nil
}

// afterAttempt writes the audit record and the new role. Failures here are
// logged; the grant outcome stands.
func (o *Orchestrator) afterAttempt(ctx context.Context, res GrantResult, threadID *uuid.UUID) {
	now := o.now().UTC()

	if res.Outcome == OutcomeGranted && !res.AlreadyHeld && o.ledger != nil {
		if err := o.ledger.AddRole(ctx, res.MemberID, res.RoleName, now); err != nil {
			o.logger.ErrorContext(ctx, "Failed to record granted role",
				attr.ExtractCorrelationID(ctx),
				attr.String("member_id", string(res.MemberID)),
				attr.String("role", string(res.RoleName)),
				attr.Error(err),
			)
		}
	}

	if o.recorder == nil {
		return
	}
	rec := GrantRecord{
		ID:          res.GrantID,
		MemberID:    res.MemberID,
		TierID:      res.TierID,
		RoleName:    res.RoleName,
		Outcome:     res.Outcome,
		AlreadyHeld: res.AlreadyHeld,
		Reason:      res.Verdict.Message,
		ThreadID:    threadID,
		Verdict:     res.Verdict,
		AttemptedAt: now,
	}
	switch {
	case res.Err != nil:
		rec.Reason = res.Err.Error()
	case res.Outcome == OutcomeNotEligible:
		rec.Reason = deniedReason(res.Verdict)
	}
	if err := o.recorder.RecordGrant(ctx, rec); err != nil {
		o.logger.ErrorContext(ctx, "Failed to write grant audit record",
			attr.ExtractCorrelationID(ctx),
			attr.String("grant_id", res.GrantID.String()),
			attr.Error(err),
		)
	}
}

// deniedReason appends each unmet requirement and its reason to the verdict message.
func deniedReason(v eligibilitydomain.Verdict) string {
	unmet := v.UnmetRequirements()
	if len(unmet) == 0 {
		return v.Message
	}
	parts := make([]string, len(unmet))
	for i, r := range unmet {
		parts[i] = r.RequirementID
		if r.Reason != nil {
			parts[i] += " (" + r.Reason.String() + ")"
		}
	}
	return v.Message + "; unmet: " + strings.Join(parts, ", ")
}
