// Package authapi wires the HTTP auth endpoints to the identity store and
// token manager: signup, password login, and whoami.
package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"taskbox/cmd/identity"
	"taskbox/cmd/security/password"
	"taskbox/cmd/security/token"
)

// Handler serves /auth/* and /whoami.
type Handler struct {
	log    *slog.Logger
	cfg    Config
	users  identity.Store
	tokens *token.Manager
	hasher password.Config

	resolver *identity.Resolver
	limiter  *loginLimiter

	// dummyHash keeps the unknown-username login path doing the same bcrypt
	// work as the wrong-password path, so response timing does not reveal
	// whether a username exists.
	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, users identity.Store, tokens *token.Manager, hasher password.Config) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil {
		return nil, errors.New("authapi: nil user store")
	}
	if tokens == nil {
		return nil, errors.New("authapi: nil token manager")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		resolver: identity.NewResolver(tokens, users),
		limiter:  newLoginLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow),
	}

	if hash, err := hasher.Hash("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Resolver exposes the identity resolver for other handler groups.
func (h *Handler) Resolver() *identity.Resolver { return h.resolver }

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/signup", h.handleSignup)
	mux.HandleFunc("/auth/token", h.handleLogin)
	mux.HandleFunc("/auth/whoami", h.handleWhoami)
	mux.HandleFunc("/whoami", h.handleWhoami)
}

// ---- handlers ----

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordEmpty), errors.Is(err, password.ErrPasswordTooLong):
			writeError(w, http.StatusBadRequest, "invalid_request", "password must be 1-72 bytes")
		default:
			h.log.Error("auth.signup.hash.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
		}
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	u, err := h.users.CreateUser(ctx, identity.CreateUserInput{
		Username:     username,
		PasswordHash: hash,
		Now:          now,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusBadRequest, "username_taken", "username already exists")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		default:
			h.log.Error("auth.signup.store.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
		}
		return
	}

	h.issueToken(w, u.Username, now, "auth.signup")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !h.limiter.Allow(clientKey(r), time.Now()) {
		h.log.Warn("auth.login.throttled", "remote", r.RemoteAddr)
		writeError(w, http.StatusTooManyRequests, "too_many_requests", "too many login attempts, try again later")
		return
	}

	// The login endpoint takes form fields, not JSON.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid form body")
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	pass := r.PostFormValue("password")
	if username == "" || pass == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	u, err := h.users.GetUserByUsername(ctx, username)
	if err != nil {
		if identity.IsNotFound(err) {
			// Timing resistance: do the same verify work as the found path.
			if h.dummyHash != "" {
				_ = password.Verify(pass, h.dummyHash)
			}
			writeInvalidCredentials(w)
			return
		}
		h.log.Error("auth.login.store.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	if !password.Verify(pass, u.PasswordHash) {
		writeInvalidCredentials(w)
		return
	}

	h.issueToken(w, u.Username, now, "auth.login")
}

func (h *Handler) handleWhoami(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, err := h.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeUnauthenticated(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, whoamiResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	})
}

// issueToken mints an access token for subject and writes the token response.
func (h *Handler) issueToken(w http.ResponseWriter, subject string, now time.Time, logOp string) {
	signed, _, err := h.tokens.Issue(subject, now)
	if err != nil {
		h.log.Error(logOp+".token.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: signed, TokenType: "bearer"})
}

// writeInvalidCredentials is the uniform bad-login response. Unknown username
// and wrong password are deliberately indistinguishable.
func writeInvalidCredentials(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "invalid_credentials", "incorrect username or password")
}

// writeUnauthenticated collapses every resolver failure into one generic 401.
// The real reason goes to debug logs only. Unexpected store failures are not
// auth failures and surface as 500 instead.
func writeUnauthenticated(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, identity.ErrMissingCredential),
		errors.Is(err, identity.ErrUnauthenticated),
		errors.Is(err, identity.ErrUnknownSubject):
		log.Debug("auth.resolve.reject", "reason", err)
		writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired credentials")
	default:
		log.Error("auth.resolve.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
