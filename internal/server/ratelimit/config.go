package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit for one path and method. Burst defaults to
// Limit when zero; a zero Limit means unlimited.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// LoadConfig reads RATE_LIMIT_* variables from the environment.
func LoadConfig() *Config {
	return ConfigFrom(os.LookupEnv)
}

// ConfigFrom builds a Config from lookup. Unparseable values keep their
// defaults.
func ConfigFrom(lookup func(string) (string, bool)) *Config {
	env := envReader(lookup)
	if !env.bool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	runs := DefaultEndpointConfigs()
	runs[0].Limit = env.int("RATE_LIMIT_RUNS_PER_HOUR", runs[0].Limit)
	runs[0].Burst = env.int("RATE_LIMIT_RUNS_BURST", runs[0].Burst)

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.int("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(env.string("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(env.string("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: runs,
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Each
// accepted trigger starts a full pipeline run, so POST /runs is strict.
// The first entry is the trigger limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/runs", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/runs/", Method: "GET", Limit: 120, Window: time.Minute, Burst: 20},
	}
}

type envReader func(string) (string, bool)

func (e envReader) string(key string) string {
	v, _ := e(key)
	return strings.TrimSpace(v)
}

func (e envReader) int(key string, def int) int {
	if n, err := strconv.Atoi(e.string(key)); err == nil {
		return n
	}
	return def
}

func (e envReader) bool(key string, def bool) bool {
	if b, err := strconv.ParseBool(e.string(key)); err == nil {
		return b
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.string(key)); err == nil {
		return d
	}
	return def
}

// parseIPList parses a comma-separated list of IP addresses.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
