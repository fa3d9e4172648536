// Package testutils generates test data shared by package tests.
package testutils

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/brianvoe/gofakeit/v7"
)

// TestDataGenerator provides methods to create test data.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed the generator was built with, for reproducing failures.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// DiscordID returns a random 18-digit snowflake.
func (g *TestDataGenerator) DiscordID() sharedtypes.DiscordID {
	return sharedtypes.DiscordID(g.faker.Numerify("1#################"))
}

// GenerateMember builds a member holding roles, with an account between one
// and five years old and a join date in the last year, both before now.
func (g *TestDataGenerator) GenerateMember(now time.Time, roles ...sharedtypes.RoleName) sharedtypes.Member {
	created := g.faker.DateRange(now.AddDate(-5, 0, 0), now.AddDate(-1, 0, 0)).UTC()
	joined := g.faker.DateRange(now.AddDate(-1, 0, 0), now.Add(-time.Hour)).UTC()

	held := make([]sharedtypes.HeldRole, 0, len(roles))
	for _, r := range roles {
		held = append(held, sharedtypes.HeldRole{Name: r, GrantedAt: joined})
	}

	return sharedtypes.Member{
		ID:               g.DiscordID(),
		DisplayName:      g.faker.Username(),
		Roles:            held,
		AccountCreatedAt: created,
		JoinedAt:         joined,
	}
}

// GenerateMembers creates count members holding roles.
func (g *TestDataGenerator) GenerateMembers(now time.Time, count int, roles ...sharedtypes.RoleName) []sharedtypes.Member {
	out := make([]sharedtypes.Member, count)
	seen := make(map[sharedtypes.DiscordID]struct{}, count)
	for i := range out {
		m := g.GenerateMember(now, roles...)
		for {
			if _, dup := seen[m.ID]; !dup {
				break
			}
			m.ID = g.DiscordID()
		}
		seen[m.ID] = struct{}{}
		out[i] = m
	}
	return out
}
