// Package discordroles grants community roles through a discordgo session.
package discordroles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sharedtypes "github.com/Black-And-White-Club/tier-bot/app/types/shared"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/bwmarrin/discordgo"
)

// maxAuditReason is Discord's limit on the X-Audit-Log-Reason header.
const maxAuditReason = 512

var (
	ErrUnknownRole        = errors.New("no discord role id configured")
	ErrRateLimited        = errors.New("discord rate limit exceeded")
	ErrMissingPermissions = errors.New("bot lacks permission to manage the role")
)

// Config holds the guild and role mapping used for grants.
type Config struct {
	Token   string
	GuildID string
	RoleIDs map[sharedtypes.RoleName]string
	Timeout time.Duration
}

// Client adds guild member roles. It implements eligibilityservice.RoleAssigner.
type Client struct {
	session *discordgo.Session
	guildID string
	roleIDs map[sharedtypes.RoleName]string
	logger  *slog.Logger
}

type Option func(*discordgo.Session)

// WithHTTPClient replaces the session's *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *discordgo.Session) {
		if hc != nil {
			s.Client = hc
		}
	}
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Client = &http.Client{Timeout: cfg.Timeout}
	// Grants run as River jobs, which carry their own retry and backoff.
	session.ShouldRetryOnRateLimit = false
	session.MaxRestRetries = 0
	for _, opt := range opts {
		opt(session)
	}
	return &Client{
		session: session,
		guildID: cfg.GuildID,
		roleIDs: cfg.RoleIDs,
		logger:  logger,
	}, nil
}

// GrantRole adds the role to the guild member. Discord treats adding a held
// role as success.
func (c *Client) GrantRole(ctx context.Context, memberID sharedtypes.DiscordID, role sharedtypes.RoleName, reason string) error {
	roleID, ok := c.roleIDs[role]
	if !ok || roleID == "" {
		return fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}

	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(truncate(reason, maxAuditReason)))
	}
	if err := c.session.GuildMemberRoleAdd(c.guildID, string(memberID), roleID, opts...); err != nil {
		return classify(err)
	}

	c.logger.InfoContext(ctx, "Discord role added",
		attr.ExtractCorrelationID(ctx),
		attr.String("member_id", string(memberID)),
		attr.String("role", string(role)),
	)
	return nil
}

func classify(err error) error {
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return fmt.Errorf("%w: retry after %s", ErrRateLimited, rl.RetryAfter)
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Message != nil && rest.Message.Code == discordgo.ErrCodeMissingPermissions {
			return fmt.Errorf("%w: %w", ErrMissingPermissions, err)
		}
		return fmt.Errorf("adding guild member role: %w", err)
	}
	return fmt.Errorf("adding guild member role: %w", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
