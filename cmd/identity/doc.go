// Package identity implements taskbox's identity & authentication foundation.
//
// It contains the User model, the user persistence boundary (Postgres and
// SQLite implementations), and the per-request identity resolver that turns
// a raw Authorization header into a full User record.
package identity
