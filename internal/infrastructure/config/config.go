// Package config loads application configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sandbox   SandboxConfig
	Budget    BudgetConfig
	Tokens    TokenConfig
	Write     WriteConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SandboxConfig holds the filesystem sandbox root. All tool paths
// resolve inside it.
type SandboxConfig struct {
	Root string `envconfig:"SANDBOX_ROOT" default:"./storage"`
}

// BudgetConfig bounds the serialized size of one tool response. The
// fraction leaves headroom for the response envelope.
type BudgetConfig struct {
	LimitBytes int     `envconfig:"BUDGET_LIMIT_BYTES" default:"95000"`
	Fraction   float64 `envconfig:"BUDGET_FRACTION" default:"0.9"`
}

// TokenConfig holds continuation token lifecycle configuration.
type TokenConfig struct {
	TTL time.Duration `envconfig:"TOKEN_TTL" default:"15m"`
}

// WriteConfig holds atomic write pipeline configuration.
type WriteConfig struct {
	ChunkSize       int           `envconfig:"WRITE_CHUNK_SIZE" default:"65536"`
	RetryAttempts   int           `envconfig:"WRITE_RETRY_ATTEMPTS" default:"3"`
	BackoffBase     time.Duration `envconfig:"WRITE_BACKOFF_BASE" default:"100ms"`
	BackoffCap      time.Duration `envconfig:"WRITE_BACKOFF_CAP" default:"5s"`
	CompressBackups bool          `envconfig:"WRITE_COMPRESS_BACKUPS" default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			Root: "./storage",
		},
		Budget: BudgetConfig{
			LimitBytes: 95000,
			Fraction:   0.9,
		},
		Tokens: TokenConfig{
			TTL: 15 * time.Minute,
		},
		Write: WriteConfig{
			ChunkSize:     64 * 1024,
			RetryAttempts: 3,
			BackoffBase:   100 * time.Millisecond,
			BackoffCap:    5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
