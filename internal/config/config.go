// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast
// on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Data    DataConfig
	Cache   CacheConfig
	Rate    RateLimitConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8000)
	Port int `env:"SERVER_PORT" default:"8000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 2m,
	// large exports of big datasets need room)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DataConfig holds dataset location settings.
type DataConfig struct {
	// Roots is the ordered, comma-separated list of candidate directories
	// searched for each configured filename; first match wins (required)
	Roots []string `env:"DATA_ROOTS" required:"true"`

	// CatalogPath is the YAML file mapping dataset ids to filenames and
	// format options (default: catalog.yaml)
	CatalogPath string `env:"DATA_CATALOG" default:"catalog.yaml"`
}

// CacheConfig holds cache freshness settings.
type CacheConfig struct {
	// TTL is how long a cache entry is trusted before the content hash is
	// re-checked (default: 5m)
	TTL time.Duration `env:"CACHE_TTL" default:"5m"`

	// SweepInterval is how often the background sweep re-checks every
	// dataset; 0 disables the sweep (default: 30m)
	SweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" default:"30m"`

	// MaxConcurrentRefreshes bounds parallel background refreshes (default: 4)
	MaxConcurrentRefreshes int `env:"CACHE_MAX_CONCURRENT_REFRESHES" default:"4"`

	// RefreshMaxWait is how long a background refresh waits for a slot (default: 30s)
	RefreshMaxWait time.Duration `env:"CACHE_REFRESH_MAX_WAIT" default:"30s"`

	// WarmUpOnStart loads every dataset once at startup (default: true)
	WarmUpOnStart bool `env:"CACHE_WARMUP_ON_START" default:"true"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
