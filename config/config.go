/*
config.go - Runtime configuration from environment variables

PURPOSE:
  Aggregates all runtime configuration for the coverage/raffle engine.
  Values come from the environment (optionally a .env file via godotenv),
  with sensible defaults for everything except remote-sync credentials.

CONFIGURATION SURFACE:
  App:     HTTP bind address, reminder sweep interval
  Time:    Target IANA zone for all civil-time computation
  Leave:   Approver identity set, data file, approval/leave channel
           references
  Raffle:  Data file, raffle channel reference
  GitHub:  Remote mirror coordinates; absence of any required value
           silently disables mirroring (never fatal)
  Logger:  Log level
  Admin:   Bot owner identity for module kill switches

SEE ALSO:
  - cmd/server/main.go: Wires the config into components
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App    AppConfig
	Leave  LeaveConfig
	Raffle RaffleConfig
	GitHub GitHubConfig
	Logger LoggerConfig
	Admin  AdminConfig

	// Timezone is the IANA zone every civil date, period boundary and
	// reminder instant is resolved in.
	Timezone string
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Host                 string
	Port                 string
	SweepIntervalSeconds int
}

// ChannelConfig identifies a delivery channel. ID takes precedence over
// Name when resolving; Name falls back to normalized comparison.
type ChannelConfig struct {
	ID   string
	Name string
}

// LeaveConfig holds leave-workflow settings.
type LeaveConfig struct {
	DataFile        string
	ApproverIDs     []string
	ApprovalChannel ChannelConfig
	LeaveChannel    ChannelConfig
}

// RaffleConfig holds raffle-ticket settings.
type RaffleConfig struct {
	DataFile string
	Channel  ChannelConfig
}

// GitHubConfig holds remote mirror coordinates.
type GitHubConfig struct {
	Owner       string
	Repo        string
	Token       string
	LeavePath   string
	RafflePath  string
	SeedOnStart bool
}

// Enabled reports whether mirroring is configured at all.
func (g GitHubConfig) Enabled() bool {
	return g.Owner != "" && g.Repo != "" && g.Token != ""
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AdminConfig identifies the operator allowed to flip module switches.
type AdminConfig struct {
	OwnerID string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Host:                 getEnv("APP_HOST", "0.0.0.0"),
			Port:                 getEnv("APP_PORT", "8080"),
			SweepIntervalSeconds: getEnvAsInt("REMINDER_SWEEP_SECONDS", 300),
		},
		Timezone: getEnv("TARGET_TIMEZONE", "America/New_York"),
		Leave: LeaveConfig{
			DataFile:    getEnv("LEAVE_DATA_FILE", "data/leaves.json"),
			ApproverIDs: splitList(os.Getenv("LEAVE_APPROVER_IDS")),
			ApprovalChannel: ChannelConfig{
				ID:   os.Getenv("LEAVE_APPROVAL_CHANNEL_ID"),
				Name: getEnv("LEAVE_APPROVAL_CHANNEL_NAME", "leave-approval"),
			},
			LeaveChannel: ChannelConfig{
				ID:   os.Getenv("LEAVE_CHANNEL_ID"),
				Name: getEnv("LEAVE_CHANNEL_NAME", "leave-requests"),
			},
		},
		Raffle: RaffleConfig{
			DataFile: getEnv("RAFFLE_DATA_FILE", "data/tix.json"),
			Channel: ChannelConfig{
				ID:   os.Getenv("RAFFLE_CHANNEL_ID"),
				Name: getEnv("RAFFLE_CHANNEL_NAME", "monthly-raffle-tickets"),
			},
		},
		GitHub: GitHubConfig{
			Owner:       os.Getenv("GITHUB_OWNER"),
			Repo:        os.Getenv("GITHUB_REPO"),
			Token:       os.Getenv("GITHUB_TOKEN"),
			LeavePath:   getEnv("GITHUB_LEAVE_PATH", "leaves.json"),
			RafflePath:  getEnv("GITHUB_RAFFLE_PATH", "tix.json"),
			SeedOnStart: getEnvAsBool("GITHUB_SEED_ON_START", true),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Admin: AdminConfig{
			OwnerID: os.Getenv("BOT_OWNER_ID"),
		},
	}

	if cfg.App.SweepIntervalSeconds <= 0 {
		return nil, fmt.Errorf("REMINDER_SWEEP_SECONDS must be positive")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// SweepInterval returns the reminder sweep interval as a duration.
func (a AppConfig) SweepInterval() time.Duration {
	return time.Duration(a.SweepIntervalSeconds) * time.Second
}

// Location resolves the configured IANA zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TARGET_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
