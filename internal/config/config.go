// ABOUTME: Configuration loading and parsing for uidkeeper
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete uidkeeper configuration
type Config struct {
	Matrix   MatrixConfig   `yaml:"matrix"`
	Resolver ResolverConfig `yaml:"resolver"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Bot      BotConfig      `yaml:"bot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MatrixConfig holds the Matrix homeserver connection configuration
type MatrixConfig struct {
	Homeserver   string   `yaml:"homeserver"`
	UserID       string   `yaml:"user_id"`
	AccessToken  string   `yaml:"access_token"`
	RecoveryKey  string   `yaml:"recovery_key"` // optional, enables E2EE cross-signing
	AllowedRooms []string `yaml:"allowed_rooms"`
}

// ResolverConfig holds the external profile resolver configuration.
// Without an access token the bot falls back to local pattern
// extraction and disables profile lookups.
type ResolverConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds the admin allow-list
type AuthConfig struct {
	Admins []string `yaml:"admins"`
}

// BotConfig holds command-surface configuration
type BotConfig struct {
	CommandPrefix  string   `yaml:"command_prefix"`
	ProfileDomains []string `yaml:"profile_domains"`

	SaveTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	SaveTimeoutRaw string `yaml:"save_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values the config file may omit.
func (c *Config) applyDefaults() {
	if c.Bot.CommandPrefix == "" {
		c.Bot.CommandPrefix = "!"
	}
	if c.Bot.SaveTimeout == 0 {
		c.Bot.SaveTimeout = 5 * time.Minute
	}
	if c.Resolver.Timeout == 0 {
		c.Resolver.Timeout = 10 * time.Second
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Matrix.Homeserver == "" {
		return fmt.Errorf("matrix.homeserver is required")
	}
	if c.Matrix.UserID == "" {
		return fmt.Errorf("matrix.user_id is required")
	}
	if c.Matrix.AccessToken == "" {
		return fmt.Errorf("matrix.access_token is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Resolver.TimeoutRaw != "" {
		cfg.Resolver.Timeout, err = time.ParseDuration(cfg.Resolver.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing resolver timeout %q: %w", cfg.Resolver.TimeoutRaw, err)
		}
	}

	if cfg.Bot.SaveTimeoutRaw != "" {
		cfg.Bot.SaveTimeout, err = time.ParseDuration(cfg.Bot.SaveTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing save_timeout %q: %w", cfg.Bot.SaveTimeoutRaw, err)
		}
	}

	return nil
}
