package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/tier-bot/internal/observability"
)

const (
	defaultGrantTimeout  = 10 * time.Second
	defaultVotingWindow  = 7 * 24 * time.Hour
	defaultHTTPAddress   = ":8080"
	defaultTiersFile     = "tiers.yaml"
	defaultSweepInterval = 5 * time.Minute
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Discord       DiscordConfig       `yaml:"discord"`
	Tiers         TiersConfig         `yaml:"tiers"`
	Grants        GrantsConfig        `yaml:"grants"`
	Nomination    NominationConfig    `yaml:"nomination"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL runs the event bus in process.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the read-only API listener settings.
type HTTPConfig struct {
	Address           string  `yaml:"address"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	// Verdict* bound the verdict route on top of the API budget.
	VerdictRequestsPerSecond float64 `yaml:"verdict_requests_per_second"`
	VerdictBurst             int     `yaml:"verdict_burst"`
}

// DiscordConfig holds the bot credentials and the tier role mapping.
type DiscordConfig struct {
	Token   string            `yaml:"token"`
	GuildID string            `yaml:"guild_id"`
	RoleIDs map[string]string `yaml:"role_ids"`
}

// TiersConfig points at the tier definitions file.
type TiersConfig struct {
	File string `yaml:"file"`
}

// GrantsConfig bounds the role grant call.
type GrantsConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// NominationConfig holds the voting window and expiry sweep settings.
type NominationConfig struct {
	VotingWindow  time.Duration `yaml:"voting_window"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxWorkers    int           `yaml:"max_workers"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	Version        string `yaml:"version"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("TIERS_FILE"); v != "" {
		cfg.Tiers.File = v
	}
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_GUILD_ID"); v != "" {
		cfg.Discord.GuildID = v
	}
	if v := os.Getenv("DISCORD_ROLE_IDS"); v != "" {
		ids, err := parseRoleIDs(v)
		if err != nil {
			return fmt.Errorf("invalid DISCORD_ROLE_IDS value: %w", err)
		}
		cfg.Discord.RoleIDs = ids
	}
	if v := os.Getenv("GRANT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GRANT_TIMEOUT value: %w", err)
		}
		cfg.Grants.Timeout = d
	}
	if v := os.Getenv("NOMINATION_VOTING_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid NOMINATION_VOTING_WINDOW value: %w", err)
		}
		cfg.Nomination.VotingWindow = d
	}
	if v := os.Getenv("HTTP_REQUESTS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_REQUESTS_PER_SECOND value: %w", err)
		}
		cfg.HTTP.RequestsPerSecond = f
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = defaultHTTPAddress
	}
	if c.Tiers.File == "" {
		c.Tiers.File = defaultTiersFile
	}
	if c.Grants.Timeout <= 0 {
		c.Grants.Timeout = defaultGrantTimeout
	}
	if c.Nomination.VotingWindow == 0 {
		c.Nomination.VotingWindow = defaultVotingWindow
	}
	if c.Nomination.SweepInterval <= 0 {
		c.Nomination.SweepInterval = defaultSweepInterval
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "production"
	}
}

// parseRoleIDs reads "Verified=123,Pathfinder=456".
func parseRoleIDs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, id, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("expected name=id, got %q", pair)
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(id)
	}
	return out, nil
}

func ToObsConfig(appCfg *Config) observability.Config {
	version := appCfg.Observability.Version
	if version == "" {
		version = "dev"
	}
	return observability.Config{
		ServiceName: "tier-bot",
		Environment: appCfg.Observability.Environment,
		Version:     version,
		LogLevel:    appCfg.Observability.LogLevel,
	}
}
