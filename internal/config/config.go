// Package config provides configuration management for the bot.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"
)

const (
	// defaultCommission is the per-contract fee used when trading.commission is unset.
	defaultCommission = 0.65
	// defaultDashboardPort is used when dashboard.port is unset.
	defaultDashboardPort = 9847
	// defaultStoragePath is used when storage.path is unset.
	defaultStoragePath = "data/options"
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Discord     DiscordConfig     `yaml:"discord"`
	Storage     StorageConfig     `yaml:"storage"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	Trading     TradingConfig     `yaml:"trading"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	Mode     string `yaml:"mode"`      // dev | prod
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// DiscordConfig defines Discord API settings. Token and AppID may be
// supplied via environment instead of yaml.
type DiscordConfig struct {
	Token             string `yaml:"token" env:"DISCORD_TOKEN"`
	AppID             string `yaml:"app_id" env:"DISCORD_APP_ID"`
	GuildID           string `yaml:"guild_id"` // empty registers commands globally
	AnnounceChannelID string `yaml:"announce_channel_id"`
	// DailySummary is a standard 5-field cron expression; empty disables
	// the scheduled summary message.
	DailySummary string `yaml:"daily_summary"`
}

// StorageConfig defines where per-user position files live.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DashboardConfig defines the read-only HTTP dashboard settings.
type DashboardConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token" env:"DASHBOARD_AUTH_TOKEN"`
}

// TradingConfig defines bookkeeping parameters.
type TradingConfig struct {
	// Commission is the default per-contract fee seeded into new user stores.
	Commission float64 `yaml:"commission"`
}

// Load reads and parses the configuration file from the specified path.
// Environment variables override the corresponding yaml fields.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Env vars win over yaml
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.Environment.Mode != "dev" && c.Environment.Mode != "prod" {
		return fmt.Errorf("environment.mode must be 'dev' or 'prod'")
	}
	if _, err := logrus.ParseLevel(c.Environment.LogLevel); err != nil {
		return fmt.Errorf("environment.log_level invalid: %w", err)
	}

	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required (yaml or DISCORD_TOKEN)")
	}
	if c.Discord.AppID == "" {
		return fmt.Errorf("discord.app_id is required (yaml or DISCORD_APP_ID)")
	}
	if c.Discord.DailySummary != "" {
		if _, err := cron.ParseStandard(c.Discord.DailySummary); err != nil {
			return fmt.Errorf("discord.daily_summary invalid: %w", err)
		}
		if c.Discord.AnnounceChannelID == "" {
			return fmt.Errorf("discord.announce_channel_id is required when daily_summary is set")
		}
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	if c.Dashboard.Enabled {
		if c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535 {
			return fmt.Errorf("dashboard.port must be in (0,65535]")
		}
	}

	if c.Trading.Commission < 0 {
		return fmt.Errorf("trading.commission must be >= 0")
	}

	return nil
}

// LogLevel returns the parsed logrus level, defaulting to info.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Environment.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// IsDev returns true if the bot runs in development mode.
func (c *Config) IsDev() bool {
	return c.Environment.Mode == "dev"
}

// normalize fills in defaults for optional settings.
func (c *Config) normalize() {
	if c.Environment.Mode == "" {
		c.Environment.Mode = "dev"
	}
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = defaultDashboardPort
	}
	if c.Trading.Commission == 0 {
		c.Trading.Commission = defaultCommission
	}
}
