package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"TASKBOX_HTTP_ADDR",
		"TASKBOX_LOG_LEVEL",
		"TASKBOX_DATABASE_URL",
		"TASKBOX_SQLITE_PATH",
		"TASKBOX_CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("log defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL=%q", cfg.DatabaseURL)
	}
	if cfg.SQLitePath != "taskbox.db" {
		t.Fatalf("SQLitePath=%q", cfg.SQLitePath)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout=%v", cfg.ReadTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("CORSAllowedOrigins=%v", cfg.CORSAllowedOrigins)
	}
}

func TestEnvStrings(t *testing.T) {
	t.Setenv("TASKBOX_TEST_LIST", " a.example.com , b.example.com ,,")
	got := EnvStrings("TASKBOX_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a.example.com" || got[1] != "b.example.com" {
		t.Fatalf("EnvStrings=%v", got)
	}

	t.Setenv("TASKBOX_TEST_LIST", "")
	if got := EnvStrings("TASKBOX_TEST_LIST", []string{"def"}); len(got) != 1 || got[0] != "def" {
		t.Fatalf("EnvStrings default=%v", got)
	}
}

func TestNonZeroHelpers(t *testing.T) {
	t.Parallel()

	if got := nonZeroDuration(0, time.Second); got != time.Second {
		t.Fatalf("nonZeroDuration(0)=%v", got)
	}
	if got := nonZeroDuration(2*time.Second, time.Second); got != 2*time.Second {
		t.Fatalf("nonZeroDuration(2s)=%v", got)
	}
	if got := nonZeroInt(0, 7); got != 7 {
		t.Fatalf("nonZeroInt(0)=%d", got)
	}
	if got := nonZeroInt(3, 7); got != 3 {
		t.Fatalf("nonZeroInt(3)=%d", got)
	}
}

func TestNewStore_SQLiteFallback(t *testing.T) {
	cfg := Config{
		SQLitePath: filepath.Join(t.TempDir(), "app_test.db"),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, pool, dbEnabled, users, todos, err := newStore(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer func() { _ = st.Close(context.Background()) }()

	if dbEnabled || pool != nil {
		t.Fatal("empty database url must select the sqlite store")
	}
	if users == nil || todos == nil {
		t.Fatal("stores must be wired in sqlite mode")
	}
}
