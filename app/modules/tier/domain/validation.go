package tierdomain

import (
	"errors"
	"fmt"
)

func (r DiscordPresence) validate() error {
	if r.RoleName == "" {
		return missing("role_name")
	}
	if r.MinTenure < 0 {
		return &paramError{field: "min_tenure", reason: "cannot be negative"}
	}
	return nil
}

func (r SocialVerification) validate() error {
	if r.Provider == "" {
		return missing("provider")
	}
	return nil
}

func (StellarAccountLinked) validate() error { return nil }

func (r BadgeCount) validate() error {
	if r.Category == "" && len(r.BadgeIDs) == 0 {
		return missing("category or badge_ids")
	}
	if r.Category != "" && len(r.BadgeIDs) > 0 {
		return &paramError{field: "badge_ids", reason: "cannot be combined with category"}
	}
	for _, id := range r.BadgeIDs {
		if id == "" {
			return &paramError{field: "badge_ids", reason: "contains an empty id"}
		}
	}
	if r.MinCount <= 0 {
		return &paramError{field: "min_count", reason: "must be greater than zero"}
	}
	return nil
}

func (r Nomination) validate() error {
	if r.RequiredVotes < 0 {
		return &paramError{field: "required_votes", reason: "cannot be negative"}
	}
	if len(r.EligibleVoterRoles) == 0 {
		return missing("eligible_voter_roles")
	}
	return nil
}

func (r CommunityVote) validate() error {
	if r.RequiredVotes < 0 {
		return &paramError{field: "required_votes", reason: "cannot be negative"}
	}
	if len(r.EligibleVoterRoles) == 0 {
		return missing("eligible_voter_roles")
	}
	if r.ParticipationRounds < 0 {
		return &paramError{field: "participation_rounds", reason: "cannot be negative"}
	}
	return nil
}

func (r ExistingRole) validate() error {
	if r.RoleName == "" {
		return missing("role_name")
	}
	return nil
}

func (r ConcurrentRole) validate() error {
	if r.RoleName == "" {
		return missing("role_name")
	}
	return nil
}

// Validate checks that the tier is well formed. It returns a *ConfigError
// describing the first problem found.
func (t Tier) Validate() error {
	cfgErr := func(field, reason string) error {
		return &ConfigError{Tier: string(t.Name), Field: field, Reason: reason}
	}

	if !t.Name.IsValid() {
		return cfgErr("name", fmt.Sprintf("unknown tier %q", t.Name))
	}
	if t.ID == "" {
		return cfgErr("id", "is required")
	}
	switch t.RoleMode {
	case RoleModeAnyGroup, RoleModeAllGroups:
	default:
		return cfgErr("role_mode", fmt.Sprintf("unknown mode %q", t.RoleMode))
	}
	if t.RoleMode == RoleModeAllGroups && len(t.Groups) == 0 {
		return cfgErr("groups", "ALL_GROUPS requires at least one group")
	}
	if t.NominationEnabled && t.RequiredVotes <= 0 {
		return cfgErr("required_votes", "must be greater than zero when nomination is enabled")
	}

	groupIDs := make(map[string]struct{}, len(t.Groups))
	reqIDs := make(map[string]struct{})
	for i, g := range t.Groups {
		path := fmt.Sprintf("groups[%d]", i)
		if g.ID == "" {
			return cfgErr(path+".id", "is required")
		}
		if _, dup := groupIDs[g.ID]; dup {
			return cfgErr(path+".id", fmt.Sprintf("duplicate group id %q", g.ID))
		}
		groupIDs[g.ID] = struct{}{}

		switch g.Mode {
		case GroupModeAny, GroupModeAll:
		default:
			return cfgErr(path+".mode", fmt.Sprintf("unknown mode %q", g.Mode))
		}
		if len(g.Requirements) == 0 {
			return cfgErr(path+".requirements", "group must contain at least one requirement")
		}

		for j, r := range g.Requirements {
			rpath := fmt.Sprintf("%s.requirements[%d]", path, j)
			if r == nil {
				return cfgErr(rpath, "is nil")
			}
			if r.RequirementID() == "" {
				return cfgErr(rpath+".id", "is required")
			}
			if _, dup := reqIDs[r.RequirementID()]; dup {
				return cfgErr(rpath+".id", fmt.Sprintf("duplicate requirement id %q", r.RequirementID()))
			}
			reqIDs[r.RequirementID()] = struct{}{}

			if err := r.validate(); err != nil {
				var pe *paramError
				if errors.As(err, &pe) {
					return cfgErr(rpath+"."+pe.field, fmt.Sprintf("%s (%s)", pe.reason, r.Kind()))
				}
				return cfgErr(rpath, err.Error())
			}

			if field, err := t.validateVoteRequirement(r); err != nil {
				return cfgErr(rpath+"."+field, err.Error())
			}
		}
	}

	if t.NominationEnabled && len(t.EligibleVoterRoles()) == 0 {
		return cfgErr("groups", "nomination is enabled but no requirement declares eligible voter roles")
	}
	return nil
}

// validateVoteRequirement checks a nomination-kind requirement against the
// tier's nomination settings. Threads close at the tier's RequiredVotes, so a
// requirement asking for more votes could never be met.
func (t Tier) validateVoteRequirement(r Requirement) (string, error) {
	var votes int
	switch req := r.(type) {
	case Nomination:
		votes = req.RequiredVotes
	case CommunityVote:
		votes = req.RequiredVotes
	default:
		return "", nil
	}
	if !t.NominationEnabled {
		return "kind", fmt.Errorf("%s requirement needs nomination enabled on the tier", r.Kind())
	}
	if threshold := t.VoteThreshold(votes); threshold > t.RequiredVotes {
		return "required_votes", fmt.Errorf("%d votes exceeds the tier's closing threshold of %d", threshold, t.RequiredVotes)
	}
	return "", nil
}
