// Package password provides password hashing and verification for taskbox.
//
// It wraps bcrypt with:
// - Configurable cost (via environment variables)
// - A fixed 72-byte input cap (bcrypt silently truncates beyond that; we
//   reject instead so the cap is an explicit, documented contract)
//
// Security notes:
// - Hashes embed a random per-call salt, so identical passwords produce
//   different stored strings.
// - Verify treats the stored hash as untrusted input and reports only
//   match/no-match, never why.
package password
