package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSessionMaxAge matches the 30 day lifetime of a signed session token
const DefaultSessionMaxAge = 30 * 24 * time.Hour

// MaxSessionMaxAge caps AUTH_SESSION_MAX_AGE at ten years
const MaxSessionMaxAge = 10 * 365 * 24 * time.Hour

// DefaultProtectedRoutes protects the dashboard tree and the profile page
var DefaultProtectedRoutes = []string{"/dashboard", "/dashboard/**", "/profile"}

// Config holds all configuration for the application
type Config struct {
	// HTTP server configuration
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	// Authentication configuration
	Auth AuthConfig

	// Google OAuth configuration
	Google GoogleConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string

	// CredentialStoreURL points at an existing Postgres database holding user
	// records. When set, credential lookups are served from it instead of the
	// local database.
	CredentialStoreURL string
}

// AuthConfig holds session and route protection configuration
type AuthConfig struct {
	Secret          string // Empty = use the secret persisted in the database
	BaseURL         string
	SessionMaxAge   time.Duration
	SecureCookies   bool
	ProtectedRoutes []string
}

// GoogleConfig holds the OAuth client registered with Google
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether Google sign-in is configured
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	dbURL := getEnv("DATABASE_URL", "gatehouse.sqlite")

	baseURL := strings.TrimSuffix(getEnv("AUTH_URL", "http://localhost:8080"), "/")

	maxAge := DefaultSessionMaxAge
	if raw := os.Getenv("AUTH_SESSION_MAX_AGE"); raw != "" {
		parsed, err := parseMaxAge(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_SESSION_MAX_AGE: %w", err)
		}
		maxAge = parsed
	}

	// Secure cookies default to on when the public URL is https
	secureCookies := strings.HasPrefix(baseURL, "https://")
	if raw := os.Getenv("AUTH_SECURE_COOKIES"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_SECURE_COOKIES: %w", err)
		}
		secureCookies = parsed
	}

	protected := DefaultProtectedRoutes
	if raw := os.Getenv("PROTECTED_ROUTES"); raw != "" {
		protected = splitList(raw)
	}

	origins := splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: origins,
		},
		Database: DatabaseConfig{
			URL:                dbURL,
			CredentialStoreURL: os.Getenv("CREDENTIAL_STORE_URL"),
		},
		Auth: AuthConfig{
			Secret:          os.Getenv("AUTH_SECRET"),
			BaseURL:         baseURL,
			SessionMaxAge:   maxAge,
			SecureCookies:   secureCookies,
			ProtectedRoutes: protected,
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// parseMaxAge accepts either a Go duration ("720h") or a number of seconds
func parseMaxAge(raw string) (time.Duration, error) {
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		if err == nil && seconds <= 0 {
			return 0, fmt.Errorf("must be positive, got %d", seconds)
		}
		if err != nil || seconds > int64(MaxSessionMaxAge/time.Second) {
			return 0, fmt.Errorf("must be at most %d seconds, got %s", int64(MaxSessionMaxAge/time.Second), raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	if d > MaxSessionMaxAge {
		return 0, fmt.Errorf("must be at most %s, got %s", MaxSessionMaxAge, d)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
