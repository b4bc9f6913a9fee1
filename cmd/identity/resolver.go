package identity

import (
	"context"
	"strings"
	"time"
)

// TokenVerifier validates a raw access token and returns its subject.
// Satisfied by *token.Manager from cmd/security/token.
type TokenVerifier interface {
	Verify(token string, now time.Time) (string, error)
}

// Resolver recovers the authenticated User behind an Authorization header.
//
// Failure contract (all map to a generic 401 upstream):
//   - ErrMissingCredential: header absent or not exactly `Bearer <token>`
//   - ErrUnauthenticated: token failed verification (any kind)
//   - ErrUnknownSubject: token valid but the subject no longer exists
type Resolver struct {
	tokens TokenVerifier
	store  Store
}

// NewResolver constructs a Resolver.
func NewResolver(tokens TokenVerifier, store Store) *Resolver {
	return &Resolver{tokens: tokens, store: store}
}

// Resolve extracts the bearer credential, verifies it, and loads the user.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (User, error) {
	raw, ok := bearerToken(authorization)
	if !ok {
		return User{}, ErrMissingCredential
	}

	subject, err := r.tokens.Verify(raw, time.Now().UTC())
	if err != nil {
		return User{}, ErrUnauthenticated
	}

	u, err := r.store.GetUserByUsername(ctx, subject)
	if err != nil {
		if IsNotFound(err) {
			// User deleted after issuance; the token is structurally valid
			// but resolves to nothing.
			return User{}, ErrUnknownSubject
		}
		return User{}, err
	}

	return u, nil
}

// bearerToken parses `Bearer <token>` (case-insensitive scheme, single space,
// non-empty token). Anything else is rejected.
func bearerToken(header string) (string, bool) {
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	if rest == "" || strings.ContainsAny(rest, " \t") {
		return "", false
	}
	return rest, true
}
