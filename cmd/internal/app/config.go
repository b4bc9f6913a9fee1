package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// Postgres is used when DatabaseURL is set; otherwise the server falls
	// back to a local SQLite file at SQLitePath.
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32
	SQLitePath  string

	// If true, /readyz returns 503 unless Postgres is configured and reachable.
	ReadinessRequireDB bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	MetricsEnabled bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("TASKBOX_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("TASKBOX_LOG_LEVEL", "info"),
		LogFormat: EnvString("TASKBOX_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("TASKBOX_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("TASKBOX_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("TASKBOX_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("TASKBOX_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("TASKBOX_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("TASKBOX_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("TASKBOX_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("TASKBOX_DB_MIN_CONNS", 0),
		SQLitePath:  EnvString("TASKBOX_SQLITE_PATH", "taskbox.db"),

		ReadinessRequireDB: EnvBool("TASKBOX_READINESS_REQUIRE_DB", false),

		CORSAllowedOrigins:   EnvStrings("TASKBOX_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("TASKBOX_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("TASKBOX_CORS_MAX_AGE_SECONDS", 600),

		MetricsEnabled: EnvBool("TASKBOX_METRICS_ENABLED", true),
	}
}
