// Package app wires the Taskbox server runtime: config, logging, storage,
// HTTP routes, and graceful shutdown.
package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskbox/cmd/identity"
	authapi "taskbox/cmd/internal/auth/api"
	"taskbox/cmd/internal/todo"
	todoapi "taskbox/cmd/internal/todo/api"
	"taskbox/cmd/security/password"
	"taskbox/cmd/security/token"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// App is the Taskbox server runtime.
type App struct {
	cfg Config
	log Logger

	store     Store
	dbPool    *pgxpool.Pool
	dbEnabled bool

	metrics *Metrics
	auth    *authapi.Handler
	todos   *todoapi.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	st, dbPool, dbEnabled, users, todos, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	closeOnErr := func(err error) (*App, error) {
		_ = st.Close(context.Background())
		return nil, err
	}

	tokenCfg, err := token.FromEnv()
	if err != nil {
		return closeOnErr(err)
	}
	tokens, err := token.NewManager(tokenCfg)
	if err != nil {
		return closeOnErr(err)
	}

	authHandler, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), users, tokens, password.FromEnv())
	if err != nil {
		return closeOnErr(err)
	}
	todoHandler, err := todoapi.NewHandler(log, todoapi.LoadConfigFromEnv(), todos, authHandler.Resolver())
	if err != nil {
		return closeOnErr(err)
	}

	var metrics *Metrics
	if cfg.MetricsEnabled {
		metrics = NewMetrics()
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		metrics:   metrics,
		auth:      authHandler,
		todos:     todoHandler,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.metrics, a.auth, a.todos)

	var handler http.Handler = mux
	handler = WithMetrics(handler, a.metrics)
	handler = WithSecurityHeaders(handler)
	handler = WithCORS(handler, a.cfg)
	handler = WithRequestLogging(handler, a.log)
	handler = WithRequestID(handler)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the local SQLite
// file, bootstraps both schemas, and returns the store pair.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, identity.Store, todo.Store, error) {
	if cfg.DatabaseURL != "" {
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, false, nil, nil, err
		}

		users, err := identity.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, false, nil, nil, err
		}
		todos, err := todo.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, false, nil, nil, err
		}
		if err := users.Bootstrap(ctx); err != nil {
			pool.Close()
			return nil, nil, false, nil, nil, err
		}
		if err := todos.Bootstrap(ctx); err != nil {
			pool.Close()
			return nil, nil, false, nil, nil, err
		}

		log.Info("db.enabled.postgres_store")
		return pgStore{pool: pool}, pool, true, users, todos, nil
	}

	db, err := OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, nil, false, nil, nil, err
	}

	users, err := identity.NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, false, nil, nil, err
	}
	todos, err := todo.NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, false, nil, nil, err
	}
	if err := users.Bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, nil, false, nil, nil, err
	}
	if err := todos.Bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, nil, false, nil, nil, err
	}

	log.Info("db.sqlite_store", "path", cfg.SQLitePath)
	return sqliteStore{db: db}, nil, false, users, todos, nil
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s pgStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type sqliteStore struct {
	db *sql.DB
}

func (s sqliteStore) Close(_ context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
