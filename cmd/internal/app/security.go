package app

import (
	"errors"
	"fmt"

	"taskbox/cmd/security/token"
)

// ValidateSecurityConfig enforces the signing-key policy at startup.
// Fail-fast is intentional: a server that cannot sign tokens should not
// accept a single request.
func ValidateSecurityConfig() error {
	if _, err := token.FromEnv(); err != nil {
		switch {
		case errors.Is(err, token.ErrSecretMissing):
			return fmt.Errorf("security policy: %s must be set", token.SecretEnvKey)
		case errors.Is(err, token.ErrSecretTooShort):
			return fmt.Errorf("security policy: %s must be at least %d bytes", token.SecretEnvKey, token.MinSecretBytes)
		default:
			return err
		}
	}
	return nil
}
