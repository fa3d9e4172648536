package eligibilityservice

import (
	"context"
	"fmt"

	eligibilitydb "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/results"
)

// GrantHistoryResult carries the member's recorded grant attempts.
type GrantHistoryResult = results.OperationResult[[]GrantRecord, error]

// GrantLog writes grant attempts to the role_grants table.
type GrantLog struct {
	repo eligibilitydb.Repository
}

// NewGrantLog returns a GrantRecorder backed by repo.
func NewGrantLog(repo eligibilitydb.Repository) *GrantLog {
	return &GrantLog{repo: repo}
}

func (l *GrantLog) RecordGrant(ctx context.Context, rec GrantRecord) error {
	verdict := rec.Verdict
	row := &eligibilitydb.RoleGrant{
		ID:          rec.ID,
		MemberID:    rec.MemberID,
		TierID:      rec.TierID,
		RoleName:    rec.RoleName,
		Outcome:     string(rec.Outcome),
		AlreadyHeld: rec.AlreadyHeld,
		Reason:      rec.Reason,
		ThreadID:    rec.ThreadID,
		Verdict:     &verdict,
		AttemptedAt: rec.AttemptedAt,
	}
	return l.repo.InsertGrant(ctx, nil, row)
}

func grantRecordFromRow(row eligibilitydb.RoleGrant) GrantRecord {
	rec := GrantRecord{
		ID:          row.ID,
		MemberID:    row.MemberID,
		TierID:      row.TierID,
		RoleName:    row.RoleName,
		Outcome:     GrantOutcome(row.Outcome),
		AlreadyHeld: row.AlreadyHeld,
		Reason:      row.Reason,
		ThreadID:    row.ThreadID,
		AttemptedAt: row.AttemptedAt,
	}
	if row.Verdict != nil {
		rec.Verdict = *row.Verdict
	}
	return rec
}

// GrantHistory lists the member's grant attempts, newest first.
func (s *EligibilityService) GrantHistory(ctx context.Context, memberID sharedtypes.DiscordID, limit int) (GrantHistoryResult, error) {
	return withTelemetry(s, ctx, "GrantHistory", string(memberID), func(ctx context.Context) (GrantHistoryResult, error) {
		if s.grants == nil {
			return results.SuccessResult[[]GrantRecord, error]([]GrantRecord{}), nil
		}
		rows, err := s.grants.ListGrants(ctx, nil, memberID, limit)
		if err != nil {
			return GrantHistoryResult{}, fmt.Errorf("failed to list grants: %w", err)
		}
		out := make([]GrantRecord, 0, len(rows))
		for _, row := range rows {
			out = append(out, grantRecordFromRow(row))
		}
		return results.SuccessResult[[]GrantRecord, error](out), nil
	})
}

var _ GrantRecorder = (*GrantLog)(nil)
