// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the Parley service.
package server

import (
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the server configuration settings including security controls.
// Fields are populated from the environment via envconfig tags; a .env file is
// loaded by cmd/server before processing.
type Config struct {
	Port            string        `envconfig:"SERVER_PORT" default:":8080"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	MaxMessageSize  int64         `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
	RateLimitRefill time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
	GuestNamePrefix string        `envconfig:"GUEST_NAME_PREFIX" default:"Guest "`
	HistoryDir      string        `envconfig:"HISTORY_DIR"`
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port:            ":8080",
		AllowedOrigins:  []string{"http://localhost:8080"},
		MaxMessageSize:  4096,
		RateLimitBurst:  10,
		RateLimitRefill: time.Second,
		GuestNamePrefix: "Guest ",
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}
	if cfg.RateLimitRefill <= 0 {
		cfg.RateLimitRefill = time.Second
	}
	if cfg.GuestNamePrefix == "" {
		cfg.GuestNamePrefix = "Guest "
	}

	normalizedOrigins, allowAll := normalizeOrigins(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		sanitizeConfig(defaultConfig())
		return
	}

	sanitized := *cfg
	sanitized.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	sanitizeConfig(sanitized)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all
// settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables,
// falling back to defaults when a variable is unset or unparsable.
func NewConfigFromEnv() *Config {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Printf("Invalid environment configuration: %v; using defaults", err)
		cfg = defaultConfig()
	}
	return &cfg
}
