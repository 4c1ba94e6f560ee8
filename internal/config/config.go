// Package config provides configuration loading from environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/usestring/pairdiff/internal/engine"
	"github.com/usestring/pairdiff/internal/logging"
	"github.com/usestring/pairdiff/internal/telemetry"
)

// Config holds runtime settings for the CLI and the MCP server.
// Comparison definitions are not here; they come from a comparison file.
type Config struct {
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"30s"`
	FetchWorkers      int           `env:"FETCH_WORKERS" envDefault:"16"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES" envDefault:"10485760"`
	BodyMemoMaxItems  int           `env:"BODY_MEMO_MAX_ITEMS" envDefault:"256"`
	UserAgent         string        `env:"USER_AGENT" envDefault:"pairdiff/1.0"`

	CacheDir     string `env:"CACHE_DIR" envDefault:"./cache"`
	MCPCacheFile string `env:"MCP_CACHE_FILE"` // default <CACHE_DIR>/mcp.json

	// MCPEnvAllow lists the variables MCP tool input may reference as $VAR.
	// An entry ending in "*" matches a prefix. Empty denies all.
	MCPEnvAllow []string `env:"MCP_ENV_ALLOW" envSeparator:","`

	MetricsTextfile string `env:"METRICS_TEXTFILE"`

	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`

	// Logging configuration
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	LogCompress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// Load reads configuration from environment variables with sensible defaults.
// Values that do not parse, or are out of range, are errors.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.HTTPClientTimeout <= 0 {
		return nil, fmt.Errorf("HTTP_CLIENT_TIMEOUT must be positive, got %s", cfg.HTTPClientTimeout)
	}
	if cfg.FetchWorkers < 1 {
		return nil, fmt.Errorf("FETCH_WORKERS must be at least 1, got %d", cfg.FetchWorkers)
	}
	if cfg.MaxBodyBytes < 1 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes)
	}
	if cfg.BodyMemoMaxItems < 0 {
		return nil, fmt.Errorf("BODY_MEMO_MAX_ITEMS must not be negative, got %d", cfg.BodyMemoMaxItems)
	}
	if cfg.MCPCacheFile == "" {
		cfg.MCPCacheFile = filepath.Join(cfg.CacheDir, "mcp.json")
	}
	return &cfg, nil
}

// EnvAllowed reports whether MCP tool input may expand the named variable.
func (c *Config) EnvAllowed(name string) bool {
	for _, entry := range c.MCPEnvAllow {
		entry = strings.TrimSpace(entry)
		if prefix, ok := strings.CutSuffix(entry, "*"); ok {
			if prefix != "" && strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if entry == name {
			return true
		}
	}
	return false
}

// Engine returns the engine settings for the given cache file.
// An empty cachePath disables caching.
func (c *Config) Engine(cachePath string) engine.Config {
	return engine.Config{
		CachePath:    cachePath,
		Timeout:      c.HTTPClientTimeout,
		Workers:      c.FetchWorkers,
		MaxBodyBytes: c.MaxBodyBytes,
		UserAgent:    c.UserAgent,
		MemoItems:    c.BodyMemoMaxItems,
	}
}

// Logging returns the logging settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.LogLevel,
		FilePath:   c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
		Compress:   c.LogCompress,
	}
}

// Telemetry returns the tracing settings.
func (c *Config) Telemetry() telemetry.Config {
	return telemetry.Config{
		Endpoint: c.OTelEndpoint,
		Enabled:  c.OTelEnabled,
	}
}
