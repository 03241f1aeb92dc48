// Package config loads service configuration from environment variables and
// an optional YAML file via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration for the batch registry server.
type Config struct {
	ListenAddr    string        `mapstructure:"listen_addr"`
	DatabaseType  string        `mapstructure:"database_type"`
	DatabaseDSN   string        `mapstructure:"database_dsn"`
	DatabaseName  string        `mapstructure:"database_name"`
	TokenSecret   string        `mapstructure:"token_secret"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	ClientOrigin  string        `mapstructure:"client_origin"`

	AuditQueueSize     int `mapstructure:"audit_queue_size"`
	AuditRetentionDays int `mapstructure:"audit_retention_days"`
}

// Load reads configuration from the environment (prefix BATCHREG_) and, if
// path is non-empty, a YAML file. Environment values win over file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("database_type", "sqlite")
	v.SetDefault("database_dsn", "batchregistry.db")
	v.SetDefault("database_name", "batchregistry")
	v.SetDefault("token_lifetime", time.Hour)
	v.SetDefault("client_origin", "http://localhost:3000")
	v.SetDefault("audit_queue_size", 256)
	v.SetDefault("audit_retention_days", 90)

	// AutomaticEnv only resolves keys viper already knows about, so keys
	// without a default must be bound explicitly or they never unmarshal.
	v.SetDefault("token_secret", "")
	v.SetDefault("public_base_url", "")

	v.SetEnvPrefix("BATCHREG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("token_secret is required (BATCHREG_TOKEN_SECRET)")
	}
	switch c.DatabaseType {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database_type %q (expected sqlite, postgres, or mysql)", c.DatabaseType)
	}
	if c.TokenLifetime <= 0 {
		return fmt.Errorf("token_lifetime must be positive, got %s", c.TokenLifetime)
	}
	if c.AuditQueueSize <= 0 {
		return fmt.Errorf("audit_queue_size must be positive, got %d", c.AuditQueueSize)
	}
	return nil
}
