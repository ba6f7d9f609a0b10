package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	UserStoreSQL    = "sql"
	UserStoreMemory = "memory"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string
	UserStore    string // "sql" or "memory"

	// Security
	JWTSecret      string
	JWTExpiry      time.Duration
	ResetExpiry    time.Duration
	AdminUsernames []string
	CookieSecure   bool

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Storage (optional, S3-compatible). Commute exports are disabled when S3Bucket is empty.
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration

	// Leaderboard
	LeaderboardDefaultLimit int
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Trak"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  envString("APP_URL", "http://localhost:8090"),
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/trak.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),
		UserStore:    envString("USER_STORE", UserStoreSQL),

		// Security
		JWTSecret:      envRequired("JWT_SECRET"),
		JWTExpiry:      envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		ResetExpiry:    envDuration("PASSWORD_RESET_EXPIRY", time.Hour),
		AdminUsernames: envList("ADMIN_USERNAMES"),
		CookieSecure:   envBool("COOKIE_SECURE", envString("APP_ENV", "development") == "production"),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),

		LeaderboardDefaultLimit: envInt("LEADERBOARD_DEFAULT_LIMIT", 10),
	}

	if cfg.UserStore != UserStoreSQL && cfg.UserStore != UserStoreMemory {
		slog.Warn("config unknown user store, using sql", "value", cfg.UserStore)
		cfg.UserStore = UserStoreSQL
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows email to run in log mode.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageEnabled reports whether an S3 bucket is configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// IsAdmin reports whether username is listed in ADMIN_USERNAMES.
func (c *Config) IsAdmin(username string) bool {
	for _, admin := range c.AdminUsernames {
		if strings.EqualFold(admin, username) {
			return true
		}
	}
	return false
}
