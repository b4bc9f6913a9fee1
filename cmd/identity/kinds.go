package identity

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
)

// Resolver failure kinds. All three map to the same generic 401 at the HTTP
// boundary; they stay distinct here for logs and tests.
var (
	ErrMissingCredential = errors.New("missing_credential")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrUnknownSubject    = errors.New("unknown_subject")
)
