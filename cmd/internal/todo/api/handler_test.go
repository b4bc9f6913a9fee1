package todoapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"taskbox/cmd/identity"
	authapi "taskbox/cmd/internal/auth/api"
	"taskbox/cmd/internal/todo"
	"taskbox/cmd/security/password"
	"taskbox/cmd/security/token"
)

// newTestServer builds a server with both the auth and todo handler groups
// mounted, backed by one sqlite file.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "todo_api_test.db")+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	users, err := identity.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("identity.NewSQLiteStore: %v", err)
	}
	if err := users.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap users: %v", err)
	}

	todos, err := todo.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("todo.NewSQLiteStore: %v", err)
	}
	if err := todos.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap todos: %v", err)
	}

	mgr, err := token.NewManager(token.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		TTL:    12 * time.Hour,
	})
	if err != nil {
		t.Fatalf("token.NewManager: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	authH, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), users, mgr, password.Config{Cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("authapi.NewHandler: %v", err)
	}
	todoH, err := NewHandler(log, LoadConfigFromEnv(), todos, authH.Resolver())
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	authH.Register(mux)
	todoH.Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func signupToken(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": "pw-" + username})
	resp, err := ts.Client().Post(ts.URL+"/auth/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup %s: status %d", username, resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return tok.AccessToken
}

// do issues an authenticated request with a JSON body and returns the status
// and raw response body.
func do(t *testing.T, ts *httptest.Server, method, path, tok string, body any) (int, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out
}

func createTodo(t *testing.T, ts *httptest.Server, tok string, body map[string]any) todoResponse {
	t.Helper()

	status, raw := do(t, ts, http.MethodPost, "/todos", tok, body)
	if status != http.StatusOK {
		t.Fatalf("create todo: status %d body=%s", status, raw)
	}
	var tr todoResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		t.Fatalf("decode todo: %v", err)
	}
	return tr
}

func TestCreateAndGet(t *testing.T) {
	ts := newTestServer(t)
	alice := signupToken(t, ts, "alice")

	created := createTodo(t, ts, alice, map[string]any{
		"title":       "buy milk",
		"description": "2 liters",
	})
	if created.Title != "buy milk" {
		t.Fatalf("title = %q", created.Title)
	}
	if created.Description == nil || *created.Description != "2 liters" {
		t.Fatalf("description = %v", created.Description)
	}
	if created.Completed {
		t.Fatal("new todo must start incomplete")
	}
	if created.OwnerID == 0 || created.ID == 0 {
		t.Fatalf("missing ids: %+v", created)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}

	status, raw := do(t, ts, http.MethodGet, "/todos/"+itoa(created.ID), alice, nil)
	if status != http.StatusOK {
		t.Fatalf("get: status %d body=%s", status, raw)
	}
	var got todoResponse
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != created.ID || got.Title != created.Title {
		t.Fatalf("get mismatch: %+v vs %+v", got, created)
	}
}

func TestCreate_OwnerFieldIgnored(t *testing.T) {
	ts := newTestServer(t)
	alice := signupToken(t, ts, "alice")

	created := createTodo(t, ts, alice, map[string]any{
		"title":    "not yours",
		"owner_id": 9999,
	})
	if created.OwnerID == 9999 {
		t.Fatal("payload owner_id must not be honored")
	}
}

func TestCreate_Validation(t *testing.T) {
	ts := newTestServer(t)
	alice := signupToken(t, ts, "alice")

	status, _ := do(t, ts, http.MethodPost, "/todos", alice, map[string]any{"title": "   "})
	if status != http.StatusBadRequest {
		t.Fatalf("blank title: status %d, want 400", status)
	}
	status, _ = do(t, ts, http.MethodPost, "/todos", alice, map[string]any{})
	if status != http.StatusBadRequest {
		t.Fatalf("missing title: status %d, want 400", status)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	ts := newTestServer(t)
	alice := signupToken(t, ts, "alice")
	bob := signupToken(t, ts, "bob")

	created := createTodo(t, ts, alice, map[string]any{"title": "buy milk"})
	path := "/todos/" + itoa(created.ID)

	// Bob cannot see, change, or delete Alice's todo. Each miss looks exactly
	// like a nonexistent id.
	missStatus, missBody := do(t, ts, http.MethodGet, "/todos/999999", bob, nil)

	status, body := do(t, ts, http.MethodGet, path, bob, nil)
	if status != http.StatusNotFound || string(body) != string(missBody) || missStatus != http.StatusNotFound {
		t.Fatalf("cross-user get: status %d body=%s (miss body=%s)", status, body, missBody)
	}
	status, _ = do(t, ts, http.MethodPut, path, bob, map[string]any{"completed": true})
	if status != http.StatusNotFound {
		t.Fatalf("cross-user update: status %d, want 404", status)
	}
	status, _ = do(t, ts, http.MethodDelete, path, bob, nil)
	if status != http.StatusNotFound {
		t.Fatalf("cross-user delete: status %d, want 404", status)
	}

	// Alice's record is untouched.
	status, raw := do(t, ts, http.MethodGet, path, alice, nil)
	if status != http.StatusOK {
		t.Fatalf("owner get after cross-user attempts: status %d", status)
	}
	var got todoResponse
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Completed {
		t.Fatal("cross-user update must not change the record")
	}
}

func TestList_ScopedToOwner(t *testing.T) {
	ts := newTestServer(t)
	alice := signupToken(t, ts, "alice")
	bob := signupToken(t, ts, "bob")

	createTodo(t, ts, alice, map[string]any{"title": "first"})
	createTodo(t, ts, alice, map[string]any{"title": "second"})
	createTodo(t, ts, bob, map[string]any{"title": "bob only"})

	status, raw := do(t, ts, http.MethodGet, "/todos", alice, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	var list []todoResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 || list[0].Title != "first" || list[1].Title != "second" {
		t.Fatalf("alice list = %+v", list)
	}

	carol := signupToken(t, ts, "carol")
	status, raw = do(t, ts, http.MethodGet, "/todos", carol, nil)
	if status != http.StatusOK {
		t.Fatalf("empty list: status %d", status)
	}
	if string(bytes.TrimSpace(raw)) != "[]" {
		t.Fatalf("empty account must list as [], got %s", raw)
	}
}

func TestUpdate_Partial(t *testing.T) {
	ts := newTestServer(t)
	alice := signupToken(t, ts, "alice")

	created := createTodo(t, ts, alice, map[string]any{
		"title":       "buy milk",
		"description": "2 liters",
	})
	path := "/todos/" + itoa(created.ID)

	status, raw := do(t, ts, http.MethodPut, path, alice, map[string]any{"completed": true})
	if status != http.StatusOK {
		t.Fatalf("update completed: status %d body=%s", status, raw)
	}
	var got todoResponse
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Completed || got.Title != "buy milk" || got.Description == nil || *got.Description != "2 liters" {
		t.Fatalf("partial update clobbered fields: %+v", got)
	}

	status, raw = do(t, ts, http.MethodPut, path, alice, map[string]any{"title": "buy oat milk"})
	if status != http.StatusOK {
		t.Fatalf("update title: status %d", status)
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != "buy oat milk" || !got.Completed {
		t.Fatalf("title-only update: %+v", got)
	}
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	alice := signupToken(t, ts, "alice")

	created := createTodo(t, ts, alice, map[string]any{"title": "buy milk"})
	path := "/todos/" + itoa(created.ID)

	status, raw := do(t, ts, http.MethodDelete, path, alice, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}
	var msg deleteResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := "todo " + itoa(created.ID) + " deleted"; msg.Message != want {
		t.Fatalf("message = %q, want %q", msg.Message, want)
	}

	status, _ = do(t, ts, http.MethodGet, path, alice, nil)
	if status != http.StatusNotFound {
		t.Fatalf("get after delete: status %d, want 404", status)
	}
	status, _ = do(t, ts, http.MethodDelete, path, alice, nil)
	if status != http.StatusNotFound {
		t.Fatalf("double delete: status %d, want 404", status)
	}
}

func TestNonNumericID(t *testing.T) {
	ts := newTestServer(t)
	alice := signupToken(t, ts, "alice")

	for _, path := range []string{"/todos/abc", "/todos/-1", "/todos/1.5"} {
		status, _ := do(t, ts, http.MethodGet, path, alice, nil)
		if status != http.StatusNotFound {
			t.Fatalf("GET %s: status %d, want 404", path, status)
		}
	}
}

func TestUnauthenticated(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		method string
		path   string
		body   map[string]any
	}{
		{http.MethodPost, "/todos", map[string]any{"title": "x"}},
		{http.MethodGet, "/todos", nil},
		{http.MethodGet, "/todos/1", nil},
		{http.MethodPut, "/todos/1", map[string]any{"completed": true}},
		{http.MethodDelete, "/todos/1", nil},
	}
	for _, c := range cases {
		status, _ := do(t, ts, c.method, c.path, "", c.body)
		if status != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: status %d, want 401", c.method, c.path, status)
		}
		status, _ = do(t, ts, c.method, c.path, "not-a-real-token", c.body)
		if status != http.StatusUnauthorized {
			t.Fatalf("%s %s with bad token: status %d, want 401", c.method, c.path, status)
		}
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
