// Package tierconfig loads tier definitions from YAML into a validated registry.
package tierconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tierdomain "github.com/Black-And-White-Club/tier-bot/app/modules/tier/domain"
	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of the tiers file.
type File struct {
	Tiers []TierDef `yaml:"tiers"`
}

type TierDef struct {
	ID                string     `yaml:"id"`
	Name              string     `yaml:"name"`
	Description       string     `yaml:"description"`
	RoleMode          string     `yaml:"role_mode"`
	NominationEnabled bool       `yaml:"nomination_enabled"`
	RequiredVotes     int        `yaml:"required_votes"`
	NominatorRoles    []string   `yaml:"nominator_roles"`
	Groups            []GroupDef `yaml:"groups"`
}

type GroupDef struct {
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	Mode         string           `yaml:"mode"`
	Requirements []RequirementDef `yaml:"requirements"`
}

// RequirementDef is the flat YAML form of a requirement; only the fields of
// its kind are read.
type RequirementDef struct {
	ID                  string        `yaml:"id"`
	Kind                string        `yaml:"kind"`
	RoleName            string        `yaml:"role_name"`
	MinTenure           time.Duration `yaml:"min_tenure"`
	Provider            string        `yaml:"provider"`
	Category            string        `yaml:"category"`
	BadgeIDs            []string      `yaml:"badge_ids"`
	MinCount            int           `yaml:"min_count"`
	RequiredVotes       int           `yaml:"required_votes"`
	EligibleVoterRoles  []string      `yaml:"eligible_voter_roles"`
	ParticipationRounds int           `yaml:"participation_rounds"`
}

// LoadFile reads and validates the tiers file at path.
func LoadFile(path string) (*tierdomain.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tiers file: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Load decodes tier definitions from r. A malformed tier fails the whole load.
func Load(r io.Reader) (*tierdomain.Registry, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("tiers file is empty")
		}
		return nil, fmt.Errorf("failed to decode tiers file: %w", err)
	}
	if len(f.Tiers) == 0 {
		return nil, errors.New("tiers file defines no tiers")
	}

	tiers := make([]tierdomain.Tier, 0, len(f.Tiers))
	for _, def := range f.Tiers {
		t, err := def.toDomain()
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tierdomain.NewRegistry(tiers...)
}

func (d TierDef) toDomain() (tierdomain.Tier, error) {
	t := tierdomain.Tier{
		ID:                sharedtypes.TierID(d.ID),
		Name:              tierdomain.TierName(d.Name),
		Description:       d.Description,
		RoleMode:          tierdomain.RoleMode(d.RoleMode),
		NominationEnabled: d.NominationEnabled,
		RequiredVotes:     d.RequiredVotes,
		NominatorRoles:    roleNames(d.NominatorRoles),
	}
	if t.RoleMode == "" {
		t.RoleMode = tierdomain.RoleModeAnyGroup
	}

	for gi, g := range d.Groups {
		group := tierdomain.RequirementGroup{
			ID:   g.ID,
			Name: g.Name,
			Mode: tierdomain.GroupMode(g.Mode),
		}
		if group.Mode == "" {
			group.Mode = tierdomain.GroupModeAll
		}
		for ri, rd := range g.Requirements {
			req, err := rd.toDomain()
			if err != nil {
				return tierdomain.Tier{}, &tierdomain.ConfigError{
					Tier:   d.Name,
					Field:  fmt.Sprintf("groups[%d].requirements[%d].kind", gi, ri),
					Reason: err.Error(),
				}
			}
			group.Requirements = append(group.Requirements, req)
		}
		t.Groups = append(t.Groups, group)
	}
	return t, nil
}

func (d RequirementDef) toDomain() (tierdomain.Requirement, error) {
	switch tierdomain.RequirementKind(d.Kind) {
	case tierdomain.KindDiscordPresence:
		return tierdomain.DiscordPresence{ID: d.ID, RoleName: sharedtypes.RoleName(d.RoleName), MinTenure: d.MinTenure}, nil
	case tierdomain.KindSocialVerification:
		return tierdomain.SocialVerification{ID: d.ID, Provider: d.Provider}, nil
	case tierdomain.KindStellarAccountLinked:
		return tierdomain.StellarAccountLinked{ID: d.ID}, nil
	case tierdomain.KindBadgeCount:
		return tierdomain.BadgeCount{ID: d.ID, Category: d.Category, BadgeIDs: d.BadgeIDs, MinCount: d.MinCount}, nil
	case tierdomain.KindNomination:
		return tierdomain.Nomination{
			ID:                 d.ID,
			RequiredVotes:      d.RequiredVotes,
			EligibleVoterRoles: roleNames(d.EligibleVoterRoles),
		}, nil
	case tierdomain.KindCommunityVote:
		return tierdomain.CommunityVote{
			ID:                  d.ID,
			RequiredVotes:       d.RequiredVotes,
			EligibleVoterRoles:  roleNames(d.EligibleVoterRoles),
			ParticipationRounds: d.ParticipationRounds,
		}, nil
	case tierdomain.KindExistingRole:
		return tierdomain.ExistingRole{ID: d.ID, RoleName: sharedtypes.RoleName(d.RoleName)}, nil
	case tierdomain.KindConcurrentRole:
		return tierdomain.ConcurrentRole{ID: d.ID, RoleName: sharedtypes.RoleName(d.RoleName)}, nil
	case "":
		return nil, errors.New("is required")
	default:
		return nil, fmt.Errorf("unknown requirement kind %q", d.Kind)
	}
}

func roleNames(in []string) []sharedtypes.RoleName {
	if len(in) == 0 {
		return nil
	}
	out := make([]sharedtypes.RoleName, len(in))
	for i, r := range in {
		out[i] = sharedtypes.RoleName(r)
	}
	return out
}
