// Package client is a typed HTTP client for the Taskbox API. It is used by
// the bundled CLI and is importable by other Go programs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response decoded from the server error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: %s (%s, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("api error: http %d", e.Status)
}

// User mirrors the whoami response.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Token is an issued access token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Todo mirrors the todo resource.
type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     int64     `json:"owner_id"`
}

// TodoPatch is a partial todo update. Nil fields are left unchanged.
type TodoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Client talks to one Taskbox server. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sets the bearer token used on authenticated calls.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New builds a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken updates the bearer token after login.
func (c *Client) SetToken(token string) { c.token = token }

// Signup creates an account and returns its first access token.
func (c *Client) Signup(ctx context.Context, username, password string) (Token, error) {
	var tok Token
	err := c.doJSON(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"username": username,
		"password": password,
	}, &tok)
	return tok, err
}

// Login exchanges credentials for an access token. The endpoint takes form
// fields, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{"username": {username}, "password": {password}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok Token
	if err := c.send(req, &tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// Whoami returns the account behind the configured token.
func (c *Client) Whoami(ctx context.Context) (User, error) {
	var u User
	err := c.doJSON(ctx, http.MethodGet, "/whoami", nil, &u)
	return u, err
}

// CreateTodo adds a todo for the authenticated user.
func (c *Client) CreateTodo(ctx context.Context, title string, description *string) (Todo, error) {
	var t Todo
	err := c.doJSON(ctx, http.MethodPost, "/todos", map[string]any{
		"title":       title,
		"description": description,
	}, &t)
	return t, err
}

// ListTodos returns the authenticated user's todos in insertion order.
func (c *Client) ListTodos(ctx context.Context) ([]Todo, error) {
	var ts []Todo
	err := c.doJSON(ctx, http.MethodGet, "/todos", nil, &ts)
	return ts, err
}

// GetTodo fetches one todo by id.
func (c *Client) GetTodo(ctx context.Context, id int64) (Todo, error) {
	var t Todo
	err := c.doJSON(ctx, http.MethodGet, "/todos/"+strconv.FormatInt(id, 10), nil, &t)
	return t, err
}

// UpdateTodo applies a partial update and returns the new state.
func (c *Client) UpdateTodo(ctx context.Context, id int64, patch TodoPatch) (Todo, error) {
	var t Todo
	err := c.doJSON(ctx, http.MethodPut, "/todos/"+strconv.FormatInt(id, 10), patch, &t)
	return t, err
}

// DeleteTodo removes one todo by id and returns the server message.
func (c *Client) DeleteTodo(ctx context.Context, id int64) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.doJSON(ctx, http.MethodDelete, "/todos/"+strconv.FormatInt(id, 10), nil, &out)
	return out.Message, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		return &APIError{Status: status, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(raw))}
}
