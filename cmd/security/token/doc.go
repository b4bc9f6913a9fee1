// Package token issues and verifies taskbox access tokens.
//
// Tokens are HS256-signed JWTs carrying the subject username and an absolute
// expiry. They are self-contained and never stored server-side; rotating the
// signing secret invalidates every outstanding token.
package token
