package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ListenAddr string
	Backend    BackendConfig
	Auth       AuthConfig
	Database   DatabaseConfig
	Cache      CacheConfig
}

// BackendConfig locates the remote supply-chain API.
type BackendConfig struct {
	BaseURL string // REST base URL, e.g. "https://api.example.com"
	WSURL   string // WebSocket endpoint, e.g. "wss://api.example.com/ws/notifications"
	Token   string // bearer credential for upstream calls
}

// AuthConfig contains dashboard authentication settings.
type AuthConfig struct {
	JWTSecret string // HS256 secret for dashboard bearer tokens
	QRKey     string // HMAC key for package QR payloads
}

// DatabaseConfig contains local snapshot store settings.
type DatabaseConfig struct {
	Path string // SQLite file path; empty disables the snapshot store
}

// CacheConfig tunes the query cache.
type CacheConfig struct {
	TTL time.Duration
}

// Load loads configuration from environment variables, honoring a local
// .env file when present. JWT_SECRET and BACKEND_URL are required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_URL environment variable is not set")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but fills development-safe fallbacks for the
// required settings. WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:9000"
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		Backend: BackendConfig{
			BaseURL: os.Getenv("BACKEND_URL"),
			WSURL:   getEnv("BACKEND_WS_URL", ""),
			Token:   os.Getenv("BACKEND_TOKEN"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			QRKey:     getEnv("QR_KEY", "dev-qr-key"),
		},
		Database: DatabaseConfig{
			Path: os.Getenv("DB_PATH"),
		},
		Cache: CacheConfig{
			TTL: time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,
		},
	}
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Listen: %s, Backend: %s, WS: %s, DB: %s, Auth: *** (masked) ***}",
		c.ListenAddr, c.Backend.BaseURL, c.Backend.WSURL, c.Database.Path)
}
