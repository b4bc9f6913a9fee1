package authapi

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// defaultLoginRateLimit bounds password attempts per client address per
	// window. Signup and token verification are not throttled.
	defaultLoginRateLimit  = 10
	defaultLoginRateWindow = time.Minute
)

// Config controls auth API behavior.
type Config struct {
	MaxBodyBytes    int64
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes:    envInt64("TASKBOX_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		LoginRateLimit:  int(envInt64("TASKBOX_LOGIN_RATE_LIMIT", defaultLoginRateLimit)),
		LoginRateWindow: envDuration("TASKBOX_LOGIN_RATE_WINDOW", defaultLoginRateWindow),
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
