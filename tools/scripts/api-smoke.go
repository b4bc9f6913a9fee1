// Command api-smoke is a CI-friendly end-to-end check against a running
// Taskbox server.
//
// It validates:
//   - signup issues a usable token
//   - form login issues a token for the same account
//   - whoami resolves the token to the account
//   - todo create/list/get round-trips
//   - partial update flips completion without touching other fields
//   - another account cannot see the first account's todo
//   - delete removes the todo
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"taskbox/pkg/client"
)

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "server base URL")
		timeout = flag.Duration("timeout", 7*time.Second, "per-step timeout")
		verbose = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	root := context.Background()
	suffix := ulid.Make().String()

	aliceName := "smoke-alice-" + suffix
	bobName := "smoke-bob-" + suffix
	pass := "smoke-password-" + suffix

	alice := client.New(*baseURL)
	bob := client.New(*baseURL)

	// Signup both accounts.
	tok, err := step(root, *timeout, func(ctx context.Context) (client.Token, error) {
		return alice.Signup(ctx, aliceName, pass)
	})
	check(err, "signup alice")
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		fatalf("signup: bad token response: %+v", tok)
	}
	alice.SetToken(tok.AccessToken)

	bobTok, err := step(root, *timeout, func(ctx context.Context) (client.Token, error) {
		return bob.Signup(ctx, bobName, pass)
	})
	check(err, "signup bob")
	bob.SetToken(bobTok.AccessToken)

	// Login must mint a second usable token for alice.
	loginTok, err := step(root, *timeout, func(ctx context.Context) (client.Token, error) {
		return alice.Login(ctx, aliceName, pass)
	})
	check(err, "login alice")
	alice.SetToken(loginTok.AccessToken)

	me, err := step(root, *timeout, func(ctx context.Context) (client.User, error) {
		return alice.Whoami(ctx)
	})
	check(err, "whoami")
	if me.Username != aliceName {
		fatalf("whoami: got %q want %q", me.Username, aliceName)
	}
	if *verbose {
		fmt.Printf("authenticated as %s (id %d)\n", me.Username, me.ID)
	}

	desc := "smoke test payload"
	created, err := step(root, *timeout, func(ctx context.Context) (client.Todo, error) {
		return alice.CreateTodo(ctx, "smoke: buy milk", &desc)
	})
	check(err, "create todo")
	if created.Completed {
		fatalf("create: new todo must start incomplete")
	}
	if created.OwnerID != me.ID {
		fatalf("create: owner_id=%d want=%d", created.OwnerID, me.ID)
	}

	list, err := step(root, *timeout, func(ctx context.Context) ([]client.Todo, error) {
		return alice.ListTodos(ctx)
	})
	check(err, "list todos")
	if len(list) == 0 {
		fatalf("list: created todo missing")
	}

	done := true
	updated, err := step(root, *timeout, func(ctx context.Context) (client.Todo, error) {
		return alice.UpdateTodo(ctx, created.ID, client.TodoPatch{Completed: &done})
	})
	check(err, "update todo")
	if !updated.Completed || updated.Title != created.Title {
		fatalf("update: partial update clobbered fields: %+v", updated)
	}

	// Ownership: bob must see a plain 404, never alice's record.
	_, err = step(root, *timeout, func(ctx context.Context) (client.Todo, error) {
		return bob.GetTodo(ctx, created.ID)
	})
	assertNotFound(err, "cross-account get")

	msg, err := step(root, *timeout, func(ctx context.Context) (string, error) {
		return alice.DeleteTodo(ctx, created.ID)
	})
	check(err, "delete todo")
	if msg == "" {
		fatalf("delete: empty message")
	}

	_, err = step(root, *timeout, func(ctx context.Context) (client.Todo, error) {
		return alice.GetTodo(ctx, created.ID)
	})
	assertNotFound(err, "get after delete")

	fmt.Printf("OK: alice=%s bob=%s todo_id=%d\n", aliceName, bobName, created.ID)
}

func step[T any](parent context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return fn(ctx)
}

func check(err error, what string) {
	if err != nil {
		fatalf("%s: %v", what, err)
	}
}

func assertNotFound(err error, what string) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		fatalf("%s: want http 404, got %v", what, err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
