package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. Anyone running this
// outside local development must override it; main logs a warning when
// the fallback is active.
const DefaultJWTSecret = "change-me-in-production"

// Backend names accepted in DATA_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	DataBackend string
	SQLitePath  string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8000"),
		DataBackend: fallback(os.Getenv("DATA_BACKEND"), BackendSQLite),
		SQLitePath:  fallback(os.Getenv("SQLITE_DB_PATH"), "finance_tracker.db"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   fallback(os.Getenv("JWT_SECRET"), DefaultJWTSecret),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "fintrack"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	hours := fallback(os.Getenv("JWT_TTL_HOURS"), "24")
	if ttlHours, err := strconv.Atoi(hours); err == nil && ttlHours > 0 {
		cfg.JWTTTL = time.Duration(ttlHours) * time.Hour
	} else {
		cfg.JWTTTL = 24 * time.Hour
	}

	switch cfg.DataBackend {
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return Config{}, errors.New("SQLITE_DB_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown DATA_BACKEND %q (want sqlite or postgres)", cfg.DataBackend)
	}

	return cfg, nil
}

// UsesDefaultJWTSecret reports whether the insecure fallback secret is active.
func (c Config) UsesDefaultJWTSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
