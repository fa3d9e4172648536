package httpserver

import (
	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

type tierView struct {
	ID                sharedtypes.TierID     `json:"id"`
	Name              tierdomain.TierName    `json:"name"`
	Rank              int                    `json:"rank"`
	Description       string                 `json:"description,omitempty"`
	RoleMode          tierdomain.RoleMode    `json:"role_mode"`
	NominationEnabled bool                   `json:"nomination_enabled"`
	RequiredVotes     int                    `json:"required_votes,omitempty"`
	NominatorRoles    []sharedtypes.RoleName `json:"nominator_roles,omitempty"`
	Groups            []groupView            `json:"groups"`
}

type groupView struct {
	ID           string               `json:"id"`
	Name         string               `json:"name,omitempty"`
	Mode         tierdomain.GroupMode `json:"mode"`
	Requirements []requirementView    `json:"requirements"`
}

type requirementView struct {
	ID   string                     `json:"id"`
	Kind tierdomain.RequirementKind `json:"kind"`
}

func newTierView(t tierdomain.Tier) tierView {
	v := tierView{
		ID:                t.ID,
		Name:              t.Name,
		Rank:              t.Name.Rank(),
		Description:       t.Description,
		RoleMode:          t.RoleMode,
		NominationEnabled: t.NominationEnabled,
		RequiredVotes:     t.RequiredVotes,
		NominatorRoles:    t.NominatorRoles,
		Groups:            make([]groupView, 0, len(t.Groups)),
	}
	for _, g := range t.Groups {
		gv := groupView{ID: g.ID, Name: g.Name, Mode: g.Mode, Requirements: make([]requirementView, 0, len(g.Requirements))}
		for _, r := range g.Requirements {
			gv.Requirements = append(gv.Requirements, requirementView{ID: r.RequirementID(), Kind: r.Kind()})
		}
		v.Groups = append(v.Groups, gv)
	}
	return v
}
