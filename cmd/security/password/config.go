package password

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the fixed input cap. bcrypt only consumes the first
// 72 bytes of its input; anything longer is rejected up front so two distinct
// long passwords can never collapse onto the same hash.
const MaxPasswordBytes = 72

// Config is the single configuration surface for this package.
type Config struct {
	// Cost is the bcrypt work factor. Values outside bcrypt's legal range
	// are clamped during Hash.
	Cost int
}

// DefaultConfig returns the baseline bcrypt configuration.
func DefaultConfig() Config {
	return Config{Cost: bcrypt.DefaultCost}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - TASKBOX_BCRYPT_COST
func FromEnv() Config {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("TASKBOX_BCRYPT_COST")); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= bcrypt.MinCost && n <= bcrypt.MaxCost {
			cfg.Cost = n
		}
	}

	return cfg
}

func (c Config) cost() int {
	if c.Cost < bcrypt.MinCost || c.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return c.Cost
}
