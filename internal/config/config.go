// Package config loads the application settings from environment variables,
// once, at startup.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable the quota-and-cache layer and the gateway read.
type Config struct {
	APIHost string `env:"API_HOST" envDefault:"0.0.0.0"`
	APIPort int    `env:"API_PORT" envDefault:"8000"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// RedisDisabled forces fallback-only mode: no remote backend at all.
	RedisDisabled bool `env:"REDIS_DISABLED" envDefault:"false"`

	CacheTTLSeconds        int `env:"CACHE_TTL" envDefault:"3600"`
	RateLimitMax           int `env:"RATE_LIMIT_MAX" envDefault:"60"`
	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW" envDefault:"60"`
}

// Load parses and validates the environment. A validation failure is fatal
// for remote mode; the caller may still construct the layer in fallback-only
// mode with explicit values.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the layer cannot run with.
func (c Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("invalid API_PORT %d", c.APIPort)
	}
	if !c.RedisDisabled {
		if c.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST must not be empty when Redis is enabled")
		}
		if c.RedisPort <= 0 || c.RedisPort > 65535 {
			return fmt.Errorf("invalid REDIS_PORT %d", c.RedisPort)
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("invalid REDIS_DB %d", c.RedisDB)
		}
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %d", c.CacheTTLSeconds)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %d", c.RateLimitWindowSeconds)
	}
	return nil
}

// RedisAddr returns the host:port pair for the go-redis client.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// APIAddr returns the bind address for the gateway.
func (c Config) APIAddr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

// CacheTTL returns the entry lifetime as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RateLimitWindow returns the window length as a duration.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}
