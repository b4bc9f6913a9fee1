package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("todo: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// Statements are executed one at a time; pgx's extended protocol does not
// accept multi-statement strings.
var postgresTodosDDL = []string{
	`CREATE TABLE IF NOT EXISTS todos (
	    id          BIGSERIAL PRIMARY KEY,
	    title       TEXT        NOT NULL,
	    description TEXT,
	    completed   BOOLEAN     NOT NULL DEFAULT FALSE,
	    created_at  TIMESTAMPTZ NOT NULL,
	    owner_id    BIGINT      NOT NULL REFERENCES users (id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_owner ON todos (owner_id)`,
}

// Bootstrap creates the todos table if it does not exist.
// It assumes the users table already exists (identity bootstraps first).
func (s *PostgresStore) Bootstrap(ctx context.Context) error {
	for _, stmt := range postgresTodosDDL {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a todo owned by ownerID.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Todo, error) {
	const op = "todo.Create"

	title, desc, now, err := normalizeCreate(op, in)
	if err != nil {
		return Todo{}, err
	}

	var td Todo
	err = s.pool.QueryRow(ctx,
		`INSERT INTO todos (title, description, completed, created_at, owner_id)
		 VALUES ($1, $2, FALSE, $3, $4)
		 RETURNING id, title, description, completed, created_at, owner_id`,
		title, desc, now, in.OwnerID,
	).Scan(&td.ID, &td.Title, &td.Description, &td.Completed, &td.CreatedAt, &td.OwnerID)
	if err != nil {
		return Todo{}, err
	}
	return td, nil
}

// GetByID fetches one todo, scoped to its owner.
func (s *PostgresStore) GetByID(ctx context.Context, ownerID, id int64) (Todo, error) {
	const op = "todo.GetByID"

	var td Todo
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, completed, created_at, owner_id
		 FROM todos WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&td.ID, &td.Title, &td.Description, &td.Completed, &td.CreatedAt, &td.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Todo{}, opNotFound(op)
	}
	if err != nil {
		return Todo{}, err
	}
	return td, nil
}

// List returns the owner's todos in insertion order.
func (s *PostgresStore) List(ctx context.Context, ownerID int64) ([]Todo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, completed, created_at, owner_id
		 FROM todos WHERE owner_id = $1 ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Todo, 0)
	for rows.Next() {
		var td Todo
		if err := rows.Scan(&td.ID, &td.Title, &td.Description, &td.Completed, &td.CreatedAt, &td.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, td)
	}
	return out, rows.Err()
}

// Update applies the non-nil Patch fields in a single statement.
func (s *PostgresStore) Update(ctx context.Context, ownerID, id int64, p Patch) (Todo, error) {
	const op = "todo.Update"

	if err := validatePatch(op, p); err != nil {
		return Todo{}, err
	}

	var td Todo
	err := s.pool.QueryRow(ctx,
		`UPDATE todos SET
		     title       = COALESCE($3, title),
		     description = COALESCE($4, description),
		     completed   = COALESCE($5, completed)
		 WHERE id = $1 AND owner_id = $2
		 RETURNING id, title, description, completed, created_at, owner_id`,
		id, ownerID, p.Title, p.Description, p.Completed,
	).Scan(&td.ID, &td.Title, &td.Description, &td.Completed, &td.CreatedAt, &td.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Todo{}, opNotFound(op)
	}
	if err != nil {
		return Todo{}, err
	}
	return td, nil
}

// Delete removes one todo permanently, scoped to its owner.
func (s *PostgresStore) Delete(ctx context.Context, ownerID, id int64) error {
	const op = "todo.Delete"

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM todos WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return opNotFound(op)
	}
	return nil
}

// normalizeCreate validates CreateInput and fills defaults.
// Shared by the Postgres and SQLite stores so their contracts cannot drift.
func normalizeCreate(op string, in CreateInput) (title string, desc *string, now time.Time, err error) {
	title = strings.TrimSpace(in.Title)
	if title == "" {
		return "", nil, time.Time{}, fmt.Errorf("%s: %w: title is required", op, ErrInvalidInput)
	}
	if in.OwnerID <= 0 {
		return "", nil, time.Time{}, fmt.Errorf("%s: %w: missing owner", op, ErrInvalidInput)
	}

	desc = in.Description
	if desc != nil && strings.TrimSpace(*desc) == "" {
		desc = nil
	}

	now = in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return title, desc, now, nil
}

func validatePatch(op string, p Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%s: %w: title must not be empty", op, ErrInvalidInput)
	}
	return nil
}

func opNotFound(op string) error {
	return fmt.Errorf("%s: %w", op, ErrNotFound)
}
