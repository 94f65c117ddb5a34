package config

import (
	"time"

	redisclient "github.com/vietddude/jobctl/internal/infra/redis"
	"github.com/vietddude/jobctl/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Backend  BackendConfig      `yaml:"backend"`
	Retry    RetryConfig        `yaml:"retry"`
	Replay   ReplayConfig       `yaml:"replay"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// BackendConfig holds job backend connection settings.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RetryConfig holds the transient-fault retry policy settings.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Jitter     bool          `yaml:"jitter"`
}

// ReplayConfig holds failed-operation replay worker settings.
type ReplayConfig struct {
	Interval   time.Duration `yaml:"interval"`
	MaxReplays int           `yaml:"max_replays"` // drop entries replayed this many times
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
