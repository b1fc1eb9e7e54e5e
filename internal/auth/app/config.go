package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/cvforge/cvforge/pkg/jwtx"
)

type Config struct {
	JWTSecret string // Required: HS256 signing secret, process refuses to start without it
	Issuer    string // Optional: issuer claim for tokens (default: cvforge-auth)

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 4h)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 168h)

	LockoutMaxAttempts int           // Optional: failed logins before lockout (default: 5)
	LockoutWindow      time.Duration // Optional: lockout duration (default: 15m)

	FrontendURL string // Optional: base URL for password reset links (default: http://localhost:3000)

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	Env       string // Environment (dev, staging, production) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	SentryDSN string // Optional: enables Sentry error reporting when set

	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// ErrMissingJWTSecret aborts startup when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable is required")

func LoadConfig() (Config, error) {
	cfg := Config{
		JWTSecret: os.Getenv("JWT_SECRET"),
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "cvforge-auth"),

		AccessTokenTTL:  getEnvDurationOrDefault("JWT_EXPIRES_IN", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("REFRESH_TOKEN_EXPIRES_IN", jwtx.DefaultRefreshTokenTTL),

		LockoutMaxAttempts: getEnvIntOrDefault("LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutWindow:      getEnvDurationOrDefault("LOCKOUT_WINDOW", 15*time.Minute),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		SentryDSN: os.Getenv("SENTRY_DSN"),

		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds (for compatibility with plain numbers)
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
