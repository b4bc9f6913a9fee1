package token

import (
	"os"
	"strings"
	"time"
)

const (
	// SecretEnvKey is the env var name for the signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "TASKBOX_TOKEN_SECRET"

	// TTLEnvKey overrides the token lifetime.
	TTLEnvKey = "TASKBOX_TOKEN_TTL"

	// MinSecretBytes is the minimum accepted secret length.
	MinSecretBytes = 32

	// DefaultTTL is the token lifetime when none is configured.
	DefaultTTL = 12 * time.Hour
)

// Config holds the process-wide token settings.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// FromEnv loads token config from environment variables.
// The secret is required; a missing or short secret is a startup error, not
// something to fall back from.
func FromEnv() (Config, error) {
	raw := strings.TrimSpace(os.Getenv(SecretEnvKey))
	if raw == "" {
		return Config{}, ErrSecretMissing
	}
	if len(raw) < MinSecretBytes {
		return Config{}, ErrSecretTooShort
	}

	ttl := DefaultTTL
	if v := strings.TrimSpace(os.Getenv(TTLEnvKey)); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			ttl = d
		}
	}

	return Config{Secret: []byte(raw), TTL: ttl}, nil
}
