package todoapi

import (
	"os"
	"strconv"
)

// MaxBodyEnvKey overrides the request body cap for todo endpoints.
const MaxBodyEnvKey = "TASKBOX_TODO_MAX_BODY_BYTES"

const defaultMaxBodyBytes = 1 << 20

// Config holds todo handler settings.
type Config struct {
	MaxBodyBytes int64
}

// LoadConfigFromEnv reads handler settings, falling back to defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{MaxBodyBytes: defaultMaxBodyBytes}
	if raw := os.Getenv(MaxBodyEnvKey); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}
	return cfg
}
