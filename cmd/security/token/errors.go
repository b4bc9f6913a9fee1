package token

import "errors"

// Public, stable errors for callers.
//
// The three verification kinds are distinct for tests and logs, but MUST be
// collapsed into one generic 401 at the HTTP boundary so callers cannot probe
// which check failed.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrExpired          = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")

	ErrSecretMissing  = errors.New("token secret missing")
	ErrSecretTooShort = errors.New("token secret too short")
)
