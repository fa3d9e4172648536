package tierdomain

import (
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// TierName is one of the fixed, ordered community tiers.
type TierName string

const (
	TierVerified   TierName = "Verified"
	TierPathfinder TierName = "Pathfinder"
	TierNavigator  TierName = "Navigator"
	TierPilot      TierName = "Pilot"
)

// tierOrder lists the tiers from lowest to highest rank.
var tierOrder = []TierName{TierVerified, TierPathfinder, TierNavigator, TierPilot}

// Rank returns the position of n in the tier order, or -1 when n is not a tier.
func (n TierName) Rank() int {
	for i, t := range tierOrder {
		if t == n {
			return i
		}
	}
	return -1
}

// IsValid reports whether n is one of the known tiers.
func (n TierName) IsValid() bool { return n.Rank() >= 0 }

// RoleName is the community role granted for the tier.
func (n TierName) RoleName() sharedtypes.RoleName { return sharedtypes.RoleName(n) }

// RoleMode combines the group results of a tier.
type RoleMode string

const (
	RoleModeAnyGroup  RoleMode = "ANY_GROUP"
	RoleModeAllGroups RoleMode = "ALL_GROUPS"
)

// GroupMode combines the requirement results of a group.
type GroupMode string

const (
	GroupModeAny GroupMode = "ANY"
	GroupModeAll GroupMode = "ALL"
)

// RequirementGroup is a set of requirements combined by its mode.
type RequirementGroup struct {
	ID           string
	Name         string
	Mode         GroupMode
	Requirements []Requirement
}

// Tier is the eligibility definition of one community tier.
type Tier struct {
	ID                sharedtypes.TierID
	Name              TierName
	Description       string
	RoleMode          RoleMode
	Groups            []RequirementGroup
	NominationEnabled bool
	// RequiredVotes is the vote threshold that closes a nomination thread.
	RequiredVotes  int
	NominatorRoles []sharedtypes.RoleName
}

// EligibleVoterRoles collects the voter roles declared by the tier's nomination
// and community-vote requirements, in declaration order without duplicates.
func (t Tier) EligibleVoterRoles() []sharedtypes.RoleName {
	var out []sharedtypes.RoleName
	for _, g := range t.Groups {
		for _, r := range g.Requirements {
			var roles []sharedtypes.RoleName
			switch req := r.(type) {
			case Nomination:
				roles = req.EligibleVoterRoles
			case CommunityVote:
				roles = req.EligibleVoterRoles
			}
			for _, role := range roles {
				if !sharedtypes.ContainsRole(out, role) {
					out = append(out, role)
				}
			}
		}
	}
	return out
}

// VoteThreshold returns the vote count a nomination-kind requirement needs,
// falling back to the tier's own threshold when the requirement sets none.
func (t Tier) VoteThreshold(requiredVotes int) int {
	if requiredVotes > 0 {
		return requiredVotes
	}
	return t.RequiredVotes
}

// CanNominate reports whether a member holding roles may open a nomination for t.
func (t Tier) CanNominate(roles []sharedtypes.RoleName) bool {
	if len(t.NominatorRoles) == 0 {
		return true
	}
	return sharedtypes.IntersectsRoles(roles, t.NominatorRoles)
}
