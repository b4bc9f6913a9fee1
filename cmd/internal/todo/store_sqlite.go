package todo

import (
	"context"
	"database/sql"
	"errors"
)

// SQLiteStore implements Store over SQLite (database/sql + mattn/go-sqlite3).
// The *sql.DB is owned by the caller.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore constructs a SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("todo: nil db")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteTodosDDL = `
CREATE TABLE IF NOT EXISTS todos (
    id          INTEGER   PRIMARY KEY AUTOINCREMENT,
    title       TEXT      NOT NULL,
    description TEXT,
    completed   BOOLEAN   NOT NULL DEFAULT 0,
    created_at  TIMESTAMP NOT NULL,
    owner_id    INTEGER   NOT NULL REFERENCES users (id)
);
CREATE INDEX IF NOT EXISTS idx_todos_owner ON todos (owner_id)`

// Bootstrap creates the todos table if it does not exist.
// It assumes the users table already exists (identity bootstraps first).
func (s *SQLiteStore) Bootstrap(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteTodosDDL)
	return err
}

// Create inserts a todo owned by ownerID.
func (s *SQLiteStore) Create(ctx context.Context, in CreateInput) (Todo, error) {
	const op = "todo.Create"

	title, desc, now, err := normalizeCreate(op, in)
	if err != nil {
		return Todo{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (title, description, completed, created_at, owner_id)
		 VALUES (?, ?, 0, ?, ?)`,
		title, desc, now, in.OwnerID,
	)
	if err != nil {
		return Todo{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Todo{}, err
	}

	return Todo{
		ID:          id,
		Title:       title,
		Description: desc,
		Completed:   false,
		CreatedAt:   now,
		OwnerID:     in.OwnerID,
	}, nil
}

// GetByID fetches one todo, scoped to its owner.
func (s *SQLiteStore) GetByID(ctx context.Context, ownerID, id int64) (Todo, error) {
	const op = "todo.GetByID"

	var td Todo
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, completed, created_at, owner_id
		 FROM todos WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(&td.ID, &td.Title, &td.Description, &td.Completed, &td.CreatedAt, &td.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, opNotFound(op)
	}
	if err != nil {
		return Todo{}, err
	}
	return td, nil
}

// List returns the owner's todos in insertion order.
func (s *SQLiteStore) List(ctx context.Context, ownerID int64) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, completed, created_at, owner_id
		 FROM todos WHERE owner_id = ? ORDER BY id`,
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
func (s *SQLiteStore) Update(ctx context.Context, ownerID, id int64, p Patch) (Todo, error) {
	const op = "todo.Update"

	if err := validatePatch(op, p); err != nil {
		return Todo{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE todos SET
		     title       = COALESCE(?, title),
		     description = COALESCE(?, description),
		     completed   = COALESCE(?, completed)
		 WHERE id = ? AND owner_id = ?`,
		p.Title, p.Description, p.Completed, id, ownerID,
	)
	if err != nil {
		return Todo{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Todo{}, err
	}
	if n == 0 {
		return Todo{}, opNotFound(op)
	}

	return s.GetByID(ctx, ownerID, id)
}

// Delete removes one todo permanently, scoped to its owner.
func (s *SQLiteStore) Delete(ctx context.Context, ownerID, id int64) error {
	const op = "todo.Delete"

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return opNotFound(op)
	}
	return nil
}
