package badgedb

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/uptrace/bun"
)

// Badge is a catalog entry. Category groups badges for BadgeCount requirements.
type Badge struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID        string    `bun:"id,pk"`
	Category  string    `bun:"category,notnull"`
	Name      string    `bun:"name,nullzero"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// MemberBadge records one badge held by a member.
type MemberBadge struct {
	bun.BaseModel `bun:"table:member_badges,alias:mb"`

	MemberID  sharedtypes.DiscordID `bun:"member_id,pk"`
	BadgeID   string                `bun:"badge_id,pk"`
	AwardedAt time.Time             `bun:"awarded_at,notnull"`
	Source    string                `bun:"source,nullzero"`
}
