package ratelimit

import (
	"net/http"
	"time"

	"github.com/jonathan/interview-coach/internal/config"
)

// EndpointConfig is the limit for one route.
type EndpointConfig struct {
	Path   string        // route pattern; "{name}" matches any single segment
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from RATE_LIMIT_* variables.
func LoadConfig() *Config {
	if !config.EnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    config.EnvIntOr("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   config.EnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: config.EnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       toSet(config.EnvList("RATE_LIMIT_WHITELIST")),
		Blacklist:       toSet(config.EnvList("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Model-backed operations
		{Path: "/vapi/generate", Method: http.MethodPost, Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/feedback", Method: http.MethodPost, Limit: 20, Window: time.Hour, Burst: 3},
		{Path: "/calls", Method: http.MethodPost, Limit: 30, Window: time.Hour, Burst: 5},

		// Credential guessing
		{Path: "/auth/sign-in", Method: http.MethodPost, Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/auth/sign-up", Method: http.MethodPost, Limit: 5, Window: time.Minute, Burst: 3},

		{Path: "/calls/{id}/stop", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
