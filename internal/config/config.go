// Package config provides configuration management for the harvester.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
)

// Config holds all application configuration. Credentials never serialize;
// 'config show --json' must not echo secrets.
type Config struct {
	Telegram    TelegramConfig `mapstructure:"telegram" json:"telegram"`
	Extract     ExtractConfig  `mapstructure:"extract" json:"extract"`
	Webhook     WebhookConfig  `mapstructure:"webhook" json:"webhook"`
	State       StateConfig    `mapstructure:"state" json:"state"`
	Log         LogConfig      `mapstructure:"log" json:"log"`
	Credentials Credentials    `mapstructure:"-" json:"-"` // Loaded separately
}

// TelegramConfig holds message-source configuration.
type TelegramConfig struct {
	ChannelID int64 `mapstructure:"channel_id" json:"channel_id"`
}

// ExtractConfig holds extraction configuration.
type ExtractConfig struct {
	Model     string `mapstructure:"model" json:"model"`
	MaxTokens int    `mapstructure:"max_tokens" json:"max_tokens"`
	Workers   int    `mapstructure:"workers" json:"workers"`
}

// WebhookConfig holds delivery endpoint configuration.
type WebhookConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

// StateConfig holds watermark store configuration.
type StateConfig struct {
	Backend string `mapstructure:"backend" json:"backend"` // "file" or "sqlite"
	Path    string `mapstructure:"path" json:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// Credentials holds API credentials.
type Credentials struct {
	Telegram TelegramCredentials `mapstructure:"telegram"`
	OpenAI   OpenAICredentials   `mapstructure:"openai"`
	Webhook  WebhookCredentials  `mapstructure:"webhook"`
}

// TelegramCredentials holds Telegram API credentials.
type TelegramCredentials struct {
	APIID   string `mapstructure:"api_id"`
	APIHash string `mapstructure:"api_hash"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// WebhookCredentials holds delivery endpoint credentials.
type WebhookCredentials struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/harvester"
	}
	return filepath.Join(home, ".config", "harvester")
}

// DefaultStatePath returns the default watermark file path.
func DefaultStatePath() string {
	return filepath.Join(DefaultConfigDir(), "pipeline_state.json")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	// Load main config
	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// An empty state path means the default location
	if cfg.State.Path == "" {
		cfg.State.Path = DefaultStatePath()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	// Set defaults
	v.SetDefault("telegram.channel_id", 0)
	v.SetDefault("extract.model", "gpt-4o-mini")
	v.SetDefault("extract.max_tokens", 300)
	v.SetDefault("extract.workers", 1)
	v.SetDefault("webhook.timeout_seconds", 30)
	v.SetDefault("state.backend", "file")
	v.SetDefault("state.path", DefaultStatePath())
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Credentials may arrive entirely via environment; missing file is
			// not fatal here, RequireCredentials decides later.
			return nil
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	// Telegram credentials
	if v := os.Getenv("API_ID"); v != "" {
		cfg.Credentials.Telegram.APIID = v
	}
	if v := os.Getenv("API_HASH"); v != "" {
		cfg.Credentials.Telegram.APIHash = v
	}

	// OpenAI credentials
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}

	// Webhook credentials
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Credentials.Webhook.URL = v
	}
	if v := os.Getenv("WEBHOOK_API_KEY"); v != "" {
		cfg.Credentials.Webhook.APIKey = v
	}

	// Target channel
	if v := os.Getenv("TELEGRAM_CHANNEL_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChannelID = id
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.State.Backend != "file" && c.State.Backend != "sqlite" {
		return fmt.Errorf("invalid state backend: %s (must be 'file' or 'sqlite')", c.State.Backend)
	}
	if c.Extract.Workers < 1 || c.Extract.Workers > 32 {
		return fmt.Errorf("extract workers must be between 1 and 32")
	}
	if c.Extract.MaxTokens <= 0 {
		return fmt.Errorf("extract max_tokens must be positive")
	}
	if c.Webhook.TimeoutSeconds <= 0 {
		return fmt.Errorf("webhook timeout_seconds must be positive")
	}
	return nil
}

// RequireCredentials checks that the credentials mandatory for a run are
// present. Webhook credentials are only required for live runs.
func (c *Config) RequireCredentials(dryRun bool) error {
	if c.Credentials.Telegram.APIID == "" || c.Credentials.Telegram.APIHash == "" {
		return apperrors.Wrap(apperrors.ErrMissingCredentials, "API_ID and API_HASH must be set")
	}
	if c.Credentials.OpenAI.APIKey == "" {
		return apperrors.Wrap(apperrors.ErrMissingCredentials, "OPENAI_API_KEY must be set")
	}
	if !dryRun && (c.Credentials.Webhook.URL == "" || c.Credentials.Webhook.APIKey == "") {
		return apperrors.Wrap(apperrors.ErrMissingCredentials,
			"WEBHOOK_URL and WEBHOOK_API_KEY must be set (use --dry-run to test parsing without sending)")
	}
	return nil
}
