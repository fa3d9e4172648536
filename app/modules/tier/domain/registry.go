package tierdomain

import (
	"fmt"
	"sort"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
)

// Registry is the validated, rank-ordered set of tier definitions.
type Registry struct {
	tiers  []Tier
	byID   map[sharedtypes.TierID]int
	byName map[TierName]int
}

// NewRegistry validates every tier and indexes them. Any malformed tier or a
// duplicate id or name fails the whole registry.
func NewRegistry(tiers ...Tier) (*Registry, error) {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)

	for _, t := range sorted {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name.Rank() < sorted[j].Name.Rank() })

	r := &Registry{
		tiers:  sorted,
		byID:   make(map[sharedtypes.TierID]int, len(sorted)),
		byName: make(map[TierName]int, len(sorted)),
	}
	for i, t := range sorted {
		if _, dup := r.byID[t.ID]; dup {
			return nil, &ConfigError{Tier: string(t.Name), Field: "id", Reason: fmt.Sprintf("duplicate tier id %q", t.ID)}
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, &ConfigError{Tier: string(t.Name), Field: "name", Reason: "tier defined more than once"}
		}
		r.byID[t.ID] = i
		r.byName[t.Name] = i
	}
	return r, nil
}

// ByID looks a tier up by id.
func (r *Registry) ByID(id sharedtypes.TierID) (Tier, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Tier{}, false
	}
	return r.tiers[i], true
}

// ByName looks a tier up by name.
func (r *Registry) ByName(name TierName) (Tier, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Tier{}, false
	}
	return r.tiers[i], true
}

// Lookup resolves a tier by id first, then by name.
func (r *Registry) Lookup(key string) (Tier, bool) {
	if t, ok := r.ByID(sharedtypes.TierID(key)); ok {
		return t, true
	}
	return r.ByName(TierName(key))
}

// All returns the tiers from lowest to highest rank.
func (r *Registry) All() []Tier {
	out := make([]Tier, len(r.tiers))
	copy(out, r.tiers)
	return out
}
