package parsers

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// Parser defines the interface for badge award file parsers.
type Parser interface {
	// Parse reads the raw file bytes and returns one row per award.
	Parse(fileData []byte, fileName string) ([]AwardRow, error)
}

// AwardRow is one badge awarded to one member.
type AwardRow struct {
	MemberID  sharedtypes.DiscordID
	BadgeID   string
	Category  string
	AwardedAt time.Time
}
