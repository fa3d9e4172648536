package memberdb

import (
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/uptrace/bun"
)

// Member is the persisted member snapshot.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID               sharedtypes.DiscordID `bun:"id,pk"`
	DisplayName      string                `bun:"display_name,notnull"`
	AccountCreatedAt time.Time             `bun:"account_created_at,nullzero"`
	JoinedAt         time.Time             `bun:"joined_at,nullzero"`
	ProfileNote      string                `bun:"profile_note,nullzero"`
	StellarAccount   string                `bun:"stellar_account,nullzero"`
	CreatedAt        time.Time             `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt        time.Time             `bun:"updated_at,notnull,default:current_timestamp"`

	Roles []*MemberRole `bun:"rel:has-many,join:id=member_id"`
}

// MemberRole is a role currently held by a member.
type MemberRole struct {
	bun.BaseModel `bun:"table:member_roles,alias:mr"`

	MemberID  sharedtypes.DiscordID `bun:"member_id,pk"`
	RoleName  sharedtypes.RoleName  `bun:"role_name,pk"`
	RoleCode  string                `bun:"role_code,nullzero"`
	GrantedAt time.Time             `bun:"granted_at,notnull"`
}

// MemberAccount links a member to an external account such as github or twitter.
type MemberAccount struct {
	bun.BaseModel `bun:"table:member_accounts,alias:ma"`

	MemberID   sharedtypes.DiscordID `bun:"member_id,pk"`
	Provider   string                `bun:"provider,pk"`
	Handle     string                `bun:"handle,notnull"`
	VerifiedAt time.Time             `bun:"verified_at,notnull"`
}

func (m *Member) toDomain() sharedtypes.Member {
	out := sharedtypes.Member{
		ID:               m.ID,
		DisplayName:      m.DisplayName,
		AccountCreatedAt: m.AccountCreatedAt,
		JoinedAt:         m.JoinedAt,
		ProfileNote:      m.ProfileNote,
		Roles:            make([]sharedtypes.HeldRole, 0, len(m.Roles)),
	}
	for _, r := range m.Roles {
		out.Roles = append(out.Roles, sharedtypes.HeldRole{
			Name:      r.RoleName,
			Code:      r.RoleCode,
			GrantedAt: r.GrantedAt,
		})
	}
	return out
}
