package tierdomain

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// RequirementKind names the evidence a requirement checks.
type RequirementKind string

const (
	KindDiscordPresence      RequirementKind = "discord-presence"
	KindSocialVerification   RequirementKind = "social-verification"
	KindStellarAccountLinked RequirementKind = "stellar-account-linked"
	KindBadgeCount           RequirementKind = "badge-count"
	KindNomination           RequirementKind = "nomination"
	KindCommunityVote        RequirementKind = "community-vote"
	KindExistingRole         RequirementKind = "existing-role"
	KindConcurrentRole       RequirementKind = "concurrent-role"
)

// Requirement is one atomic eligibility check. The concrete types below are
// the only implementations; each carries only the parameters of its kind.
type Requirement interface {
	RequirementID() string
	Kind() RequirementKind
	validate() error
}

// DiscordPresence requires a platform role, optionally held for a minimum tenure
// on the platform.
type DiscordPresence struct {
	ID        string
	RoleName  sharedtypes.RoleName
	MinTenure time.Duration
}

// SocialVerification requires a verified account on an external provider.
type SocialVerification struct {
	ID       string
	Provider string
}

// StellarAccountLinked requires a linked on-chain account.
type StellarAccountLinked struct {
	ID string
}

// BadgeCount requires MinCount badges from Category, or from the explicit BadgeIDs set.
type BadgeCount struct {
	ID       string
	Category string
	BadgeIDs []string
	MinCount int
}

// Nomination requires a peer nomination thread that reached its vote threshold.
type Nomination struct {
	ID                 string
	RequiredVotes      int
	EligibleVoterRoles []sharedtypes.RoleName
}

// CommunityVote is a nomination that must have met its threshold in
// ParticipationRounds distinct rounds.
type CommunityVote struct {
	ID                  string
	RequiredVotes       int
	EligibleVoterRoles  []sharedtypes.RoleName
	ParticipationRounds int
}

// ExistingRole requires a role the member already holds.
type ExistingRole struct {
	ID       string
	RoleName sharedtypes.RoleName
}

// ConcurrentRole requires a role held at the same time as pursuing the tier.
type ConcurrentRole struct {
	ID       string
	RoleName sharedtypes.RoleName
}

func (r DiscordPresence) RequirementID() string      { return r.ID }
func (r SocialVerification) RequirementID() string   { return r.ID }
func (r StellarAccountLinked) RequirementID() string { return r.ID }
func (r BadgeCount) RequirementID() string           { return r.ID }
func (r Nomination) RequirementID() string           { return r.ID }
func (r CommunityVote) RequirementID() string        { return r.ID }
func (r ExistingRole) RequirementID() string         { return r.ID }
func (r ConcurrentRole) RequirementID() string       { return r.ID }

func (DiscordPresence) Kind() RequirementKind      { return KindDiscordPresence }
func (SocialVerification) Kind() RequirementKind   { return KindSocialVerification }
func (StellarAccountLinked) Kind() RequirementKind { return KindStellarAccountLinked }
func (BadgeCount) Kind() RequirementKind           { return KindBadgeCount }
func (Nomination) Kind() RequirementKind           { return KindNomination }
func (CommunityVote) Kind() RequirementKind        { return KindCommunityVote }
func (ExistingRole) Kind() RequirementKind         { return KindExistingRole }
func (ConcurrentRole) Kind() RequirementKind       { return KindConcurrentRole }

// Rounds returns the number of rounds the vote must have passed in; at least one.
func (r CommunityVote) Rounds() int {
	if r.ParticipationRounds < 1 {
		return 1
	}
	return r.ParticipationRounds
}

// BadgeShortfallKey is the shortfall key reported for explicit badge id sets.
const BadgeShortfallKey = "badge_ids"

// ShortfallKey is the key under which a missing badge count is reported.
func (r BadgeCount) ShortfallKey() string {
	if r.Category != "" {
		return r.Category
	}
	return BadgeShortfallKey
}
