// Package sharedtypes holds identifiers and the member record shared by all modules.
package sharedtypes

import (
	"errors"
	"fmt"
	"time"
)

// DiscordID is a member's stable external identity on the chat platform.
type DiscordID string

// RoleName is the display name of a community role.
type RoleName string

// TierID identifies a tier; it is the chat platform's role id for that tier.
type TierID string

var (
	// ErrMemberNotFound indicates the member directory has no record for an id.
	ErrMemberNotFound = errors.New("member not found")

	// ErrEmptyMemberID indicates a member record without an identity.
	ErrEmptyMemberID = errors.New("member ID cannot be empty")

	// ErrDuplicateRole indicates a member record lists the same role twice.
	ErrDuplicateRole = errors.New("member holds duplicate role")

	// ErrRoleGrantedInFuture indicates a role grant timestamp after now.
	ErrRoleGrantedInFuture = errors.New("role grant timestamp is in the future")
)

// HeldRole is a role currently held by a member.
type HeldRole struct {
	Name      RoleName  `json:"name"`
	Code      string    `json:"code,omitempty"`
	GrantedAt time.Time `json:"granted_at"`
}

// Member is the identity-bearing record the eligibility rules are evaluated against.
type Member struct {
	ID               DiscordID  `json:"id"`
	DisplayName      string     `json:"display_name"`
	Roles            []HeldRole `json:"roles"`
	AccountCreatedAt time.Time  `json:"account_created_at"`
	JoinedAt         time.Time  `json:"joined_at"`
	ProfileNote      string     `json:"profile_note,omitempty"`
}

// HasRole reports whether the member currently holds the named role.
func (m Member) HasRole(name RoleName) bool {
	for _, r := range m.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames lists the names of the roles the member holds.
func (m Member) RoleNames() []RoleName {
	out := make([]RoleName, 0, len(m.Roles))
	for _, r := range m.Roles {
		out = append(out, r.Name)
	}
	return out
}

// Validate checks the member invariants: an identity, no duplicate role names
// and no role granted after now.
func (m Member) Validate(now time.Time) error {
	if m.ID == "" {
		return ErrEmptyMemberID
	}
	seen := make(map[RoleName]struct{}, len(m.Roles))
	for _, r := range m.Roles {
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRole, r.Name)
		}
		seen[r.Name] = struct{}{}
		if r.GrantedAt.After(now) {
			return fmt.Errorf("%w: %s", ErrRoleGrantedInFuture, r.Name)
		}
	}
	return nil
}

// ContainsRole reports whether roles includes name.
func ContainsRole(roles []RoleName, name RoleName) bool {
	for _, r := range roles {
		if r == name {
			return true
		}
	}
	return false
}

// IntersectsRoles reports whether any of held appears in wanted.
func IntersectsRoles(held, wanted []RoleName) bool {
	for _, h := range held {
		if ContainsRole(wanted, h) {
			return true
		}
	}
	return false
}
