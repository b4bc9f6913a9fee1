package identity

import (
	"context"
	"time"
)

// User is taskbox's security principal.
// PasswordHash is opaque to this package; hashing lives in cmd/security/password.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUserInput describes a user registration request.
// The password MUST already be hashed; stores never see plaintext.
type CreateUserInput struct {
	Username     string
	PasswordHash string
	Now          time.Time
}

// Store is the identity persistence boundary.
//
// Contract:
//   - CreateUser returns ConflictError (field "username") when the username is
//     already taken, including under concurrent signups: uniqueness is enforced
//     by a store-level constraint, never by check-then-insert alone.
//   - Usernames are case-sensitive; lookups are exact matches.
//   - GetUserBy* return ErrNotFound (via NotFoundError) for missing users.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
}
