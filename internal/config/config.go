package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSecretKey matches the placeholder shipped with the original site.
// Startup warns when it is still in use.
const DefaultSecretKey = "change-me"

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Business holds the constants rendered into the public pages.
type Business struct {
	Name            string `mapstructure:"business_name"`
	ContactEmail    string `mapstructure:"contact_email"`
	Country         string `mapstructure:"country"`
	RetentionPeriod string `mapstructure:"retention_period"`
}

// Config is the process-scoped configuration, built once at startup and
// handed to every component that needs it.
type Config struct {
	Business  Business `mapstructure:",squash"`
	Addr      string   `mapstructure:"addr"`
	SecretKey string   `mapstructure:"secret_key"`
	Store     string   `mapstructure:"store"`
	SQLiteDSN string   `mapstructure:"sqlite_dsn"`
	LogLevel  string   `mapstructure:"log_level"`
	MCP       bool     `mapstructure:"mcp"`
}

// SetDefaults registers every key with its fallback value. Viper only
// resolves environment overrides for keys it knows about.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("business_name", "Dietlhousing")
	v.SetDefault("contact_email", "contact@dietlhousing.de")
	v.SetDefault("country", "Germany")
	v.SetDefault("retention_period", "12 months")

	v.SetDefault("addr", ":5000")
	v.SetDefault("secret_key", DefaultSecretKey)
	v.SetDefault("store", StoreMemory)
	v.SetDefault("sqlite_dsn", "file:privacy-portal?mode=memory&cache=shared")
	v.SetDefault("log_level", "info")
	v.SetDefault("mcp", false)
}

// Load layers defaults, an optional YAML file, .env and PRIVACY_* variables
// into a Config. Flags bound to v before the call take precedence.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	SetDefaults(v)

	v.SetEnvPrefix("PRIVACY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want %q or %q)", c.Store, StoreMemory, StoreSQLite)
	}
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.SecretKey == "" {
		return errors.New("secret_key must not be empty")
	}
	return nil
}

// UsesDefaultSecret reports whether the flash signing key was left unset.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}
