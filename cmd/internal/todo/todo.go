// Package todo contains the todo model and its ownership-scoped persistence.
//
// Every store operation takes the resolved owner's id and applies it inside
// the query predicate, so a missing todo and another user's todo are
// indistinguishable by construction.
package todo

import (
	"context"
	"errors"
	"time"
)

// Sentinel error kinds (stable for errors.Is and API status mapping).
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
)

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID          int64
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	OwnerID     int64
}

// CreateInput describes a new todo. OwnerID comes from the resolved identity,
// never from the request payload.
type CreateInput struct {
	OwnerID     int64
	Title       string
	Description *string
	Now         time.Time
}

// Patch carries a partial update. Nil fields are left unchanged.
// A decoded JSON null is treated the same as an absent field.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Store is the todo persistence boundary.
//
// Contract:
//   - Create requires a non-empty title (ErrInvalidInput otherwise).
//   - GetByID/Update/Delete return ErrNotFound both for ids that do not exist
//     and for ids owned by a different user.
//   - List returns only the owner's todos in insertion order; an empty account
//     yields an empty slice.
//   - Update applies only non-nil Patch fields in a single statement, so
//     concurrent updates are last-writer-wins without explicit locking.
type Store interface {
	Create(ctx context.Context, in CreateInput) (Todo, error)
	GetByID(ctx context.Context, ownerID, id int64) (Todo, error)
	List(ctx context.Context, ownerID int64) ([]Todo, error)
	Update(ctx context.Context, ownerID, id int64, p Patch) (Todo, error)
	Delete(ctx context.Context, ownerID, id int64) error
}
