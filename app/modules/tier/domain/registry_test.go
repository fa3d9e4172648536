package tierdomain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifiedTier() Tier {
	return Tier{
		ID:       "tier-verified",
		Name:     TierVerified,
		RoleMode: RoleModeAnyGroup,
		Groups: []RequirementGroup{{
			ID:           "g-discord",
			Mode:         GroupModeAll,
			Requirements: []Requirement{DiscordPresence{ID: "r-member", RoleName: "Member"}},
		}},
	}
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(navigatorTier(), verifiedTier())
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, TierVerified, all[0].Name, "tiers are ordered by rank")
	assert.Equal(t, TierNavigator, all[1].Name)

	tier, ok := reg.ByID("tier-navigator")
	assert.True(t, ok)
	assert.Equal(t, TierNavigator, tier.Name)

	tier, ok = reg.ByName(TierVerified)
	assert.True(t, ok)
	assert.Equal(t, "tier-verified", string(tier.ID))

	_, ok = reg.Lookup("Navigator")
	assert.True(t, ok)
	_, ok = reg.Lookup("tier-pilot")
	assert.False(t, ok)
}

func TestNewRegistryRejects(t *testing.T) {
	t.Run("invalid tier", func(t *testing.T) {
		bad := verifiedTier()
		bad.Groups[0].Requirements = nil
		_, err := NewRegistry(bad)
		assert.True(t, errors.Is(err, ErrInvalidTier))
	})

	t.Run("duplicate name", func(t *testing.T) {
		other := verifiedTier()
		other.ID = "tier-verified-2"
		_, err := NewRegistry(verifiedTier(), other)
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "name", cfgErr.Field)
	})

	t.Run("duplicate id", func(t *testing.T) {
		other := navigatorTier()
		other.ID = "tier-verified"
		_, err := NewRegistry(verifiedTier(), other)
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "id", cfgErr.Field)
	})
}
