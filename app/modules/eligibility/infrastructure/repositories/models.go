package eligibilitydb

import (
	"time"

	eligibilitydomain "github.com/Black-And-White-Club/tier-bot/app/modules/eligibility/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleGrant is one grant attempt in the audit log.
type RoleGrant struct {
	bun.BaseModel `bun:"table:role_grants,alias:rg"`

	ID          uuid.UUID                  `bun:"id,pk,type:uuid"`
	MemberID    sharedtypes.DiscordID      `bun:"member_id,notnull"`
	TierID      sharedtypes.TierID         `bun:"tier_id,notnull"`
	RoleName    sharedtypes.RoleName       `bun:"role_name,notnull"`
	Outcome     string                     `bun:"outcome,notnull"`
	AlreadyHeld bool                       `bun:"already_held,notnull,default:false"`
	Reason      string                     `bun:"reason"`
	ThreadID    *uuid.UUID                 `bun:"thread_id,type:uuid,nullzero"`
	Verdict     *eligibilitydomain.Verdict `bun:"verdict,type:jsonb"`
	AttemptedAt time.Time                  `bun:"attempted_at,notnull"`
	CreatedAt   time.Time                  `bun:"created_at,notnull,default:current_timestamp"`
}
