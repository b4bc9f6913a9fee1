package identity

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "identity_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return st
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	created, err := st.CreateUser(ctx, CreateUserInput{
		Username:     "alice",
		PasswordHash: "$2a$04$fakefakefakefakefakefake",
		Now:          now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected a non-zero user id")
	}
	if created.Username != "alice" {
		t.Fatalf("username = %q, want alice", created.Username)
	}

	byName, err := st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName.ID != created.ID || byName.PasswordHash != created.PasswordHash {
		t.Fatalf("lookup mismatch: %+v vs %+v", byName, created)
	}
	if !byName.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", byName.CreatedAt, now)
	}

	byID, err := st.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Username != "alice" {
		t.Fatalf("GetUserByID username = %q, want alice", byID.Username)
	}
}

func TestSQLiteStore_DuplicateUsernameConflicts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	in := CreateUserInput{Username: "alice", PasswordHash: "h1"}
	if _, err := st.CreateUser(ctx, in); err != nil {
		t.Fatalf("first CreateUser: %v", err)
	}

	in.PasswordHash = "h2"
	_, err := st.CreateUser(ctx, in)
	if !IsConflict(err) {
		t.Fatalf("second CreateUser: got %v, want ConflictError", err)
	}

	// The original record must be intact, not overwritten.
	u, err := st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u.PasswordHash != "h1" {
		t.Fatalf("duplicate signup must not overwrite: hash = %q", u.PasswordHash)
	}
}

func TestSQLiteStore_UsernamesAreCaseSensitive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.CreateUser(ctx, CreateUserInput{Username: "Alice", PasswordHash: "h"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := st.GetUserByUsername(ctx, "alice"); !IsNotFound(err) {
		t.Fatalf("lowercase lookup: got %v, want not found", err)
	}
	if _, err := st.CreateUser(ctx, CreateUserInput{Username: "alice", PasswordHash: "h"}); err != nil {
		t.Fatalf("distinct-case username should be creatable: %v", err)
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.GetUserByUsername(ctx, "nobody"); !IsNotFound(err) {
		t.Fatalf("GetUserByUsername: got %v, want not found", err)
	}
	if _, err := st.GetUserByID(ctx, 42); !IsNotFound(err) {
		t.Fatalf("GetUserByID: got %v, want not found", err)
	}
}

func TestSQLiteStore_CreateValidation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.CreateUser(ctx, CreateUserInput{Username: "  ", PasswordHash: "h"}); !IsInvalidInput(err) {
		t.Fatalf("blank username: got %v, want invalid input", err)
	}
	if _, err := st.CreateUser(ctx, CreateUserInput{Username: "bob"}); !IsInvalidInput(err) {
		t.Fatalf("missing hash: got %v, want invalid input", err)
	}
}
