// Package todoapi serves the /todos endpoints. Every handler resolves the
// caller's identity first and passes the owner id down to the store, which
// scopes each query to that owner.
package todoapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskbox/cmd/identity"
	"taskbox/cmd/internal/todo"
)

// Handler serves the todo CRUD routes.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	todos    todo.Store
	resolver *identity.Resolver
}

// NewHandler constructs a todo Handler.
func NewHandler(log *slog.Logger, cfg Config, todos todo.Store, resolver *identity.Resolver) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if todos == nil {
		return nil, errors.New("todoapi: nil todo store")
	}
	if resolver == nil {
		return nil, errors.New("todoapi: nil resolver")
	}
	return &Handler{log: log, cfg: cfg, todos: todos, resolver: resolver}, nil
}

// Register wires todo routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	// Collection routes accept both /todos and /todos/.
	mux.HandleFunc("POST /todos", h.handleCreate)
	mux.HandleFunc("POST /todos/{$}", h.handleCreate)
	mux.HandleFunc("GET /todos", h.handleList)
	mux.HandleFunc("GET /todos/{$}", h.handleList)
	mux.HandleFunc("GET /todos/{id}", h.handleGet)
	mux.HandleFunc("PUT /todos/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /todos/{id}", h.handleDelete)
}

// resolveUser authenticates the request. On failure it writes the response
// itself and reports ok=false.
func (h *Handler) resolveUser(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	u, err := h.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeUnauthenticated(w, h.log, err)
		return identity.User{}, false
	}
	return u, true
}

// pathID parses the {id} segment. A non-numeric id is a 404, not a 400:
// "/todos/abc" simply names nothing.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeNotFound(w)
		return 0, false
	}
	return id, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	t, err := h.todos.Create(r.Context(), todo.CreateInput{
		OwnerID:     u.ID,
		Title:       req.Title,
		Description: req.Description,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		h.writeStoreError(w, "todo.create", err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	u, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	ts, err := h.todos.List(r.Context(), u.ID)
	if err != nil {
		h.writeStoreError(w, "todo.list", err)
		return
	}

	out := make([]todoResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	u, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := h.todos.GetByID(r.Context(), u.ID, id)
	if err != nil {
		h.writeStoreError(w, "todo.get", err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	t, err := h.todos.Update(r.Context(), u.ID, id, todo.Patch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		h.writeStoreError(w, "todo.update", err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.todos.Delete(r.Context(), u.ID, id); err != nil {
		h.writeStoreError(w, "todo.delete", err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Message: fmt.Sprintf("todo %d deleted", id)})
}

// writeStoreError maps store error kinds onto the HTTP error envelope.
func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, todo.ErrNotFound):
		writeNotFound(w)
	case errors.Is(err, todo.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid todo payload")
	default:
		h.log.Error(op+".fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// writeNotFound is the uniform miss response. Missing todos and todos owned
// by someone else produce the same body.
func writeNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not_found", "todo not found")
}

// writeUnauthenticated collapses every resolver failure into one generic 401.
// Unexpected store failures surface as 500 instead.
func writeUnauthenticated(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, identity.ErrMissingCredential),
		errors.Is(err, identity.ErrUnauthenticated),
		errors.Is(err, identity.ErrUnknownSubject):
		log.Debug("todo.resolve.reject", "reason", err)
		writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired credentials")
	default:
		log.Error("todo.resolve.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
