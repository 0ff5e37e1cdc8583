package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for persisted client-side state
const (
	StorageSQLite  = "sqlite"
	StorageKeyring = "keyring"
	StorageMemory  = "memory"
)

// Auth attachment policies
const (
	AuthPolicyBestEffort = "best-effort"
	AuthPolicyStrict     = "strict"
)

// Config holds all configuration for the application
type Config struct {
	// Gateway Configuration
	Gateway GatewayConfig

	// Storage Configuration
	Storage StorageConfig

	// Logging Configuration
	Logging LoggingConfig

	// DevGateway Configuration
	DevGateway DevGatewayConfig
}

// GatewayConfig holds the backend gateway configuration
type GatewayConfig struct {
	URL        string
	Timeout    time.Duration
	AuthPolicy string // best-effort, strict
}

// StorageConfig holds client-side persistence configuration
type StorageConfig struct {
	Backend string // sqlite, keyring, memory
	Path    string // SQLite file path
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// DevGatewayConfig holds configuration for the local development gateway
type DevGatewayConfig struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	AccessTTL   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	timeout, err := durationEnv("COURSEHUB_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	authPolicy := strings.ToLower(getEnv("COURSEHUB_AUTH_POLICY", AuthPolicyBestEffort))
	if authPolicy != AuthPolicyBestEffort && authPolicy != AuthPolicyStrict {
		return nil, fmt.Errorf("invalid COURSEHUB_AUTH_POLICY '%s', must be one of: %s, %s", authPolicy, AuthPolicyBestEffort, AuthPolicyStrict)
	}

	backend := strings.ToLower(getEnv("COURSEHUB_STORAGE", StorageSQLite))
	switch backend {
	case StorageSQLite, StorageKeyring, StorageMemory:
	default:
		return nil, fmt.Errorf("invalid COURSEHUB_STORAGE '%s', must be one of: sqlite, keyring, memory", backend)
	}

	storagePath := os.Getenv("COURSEHUB_STORAGE_PATH")
	if storagePath == "" {
		storagePath, err = DefaultStoragePath()
		if err != nil {
			return nil, err
		}
	}

	accessTTL, err := durationEnv("DEVGATEWAY_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		Gateway: GatewayConfig{
			URL:        strings.TrimRight(getEnv("COURSEHUB_GATEWAY_URL", "http://localhost:8080"), "/"),
			Timeout:    timeout,
			AuthPolicy: authPolicy,
		},
		Storage: StorageConfig{
			Backend: backend,
			Path:    storagePath,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		DevGateway: DevGatewayConfig{
			Addr:        getEnv("DEVGATEWAY_ADDR", ":8080"),
			DatabaseURL: getEnv("DEVGATEWAY_DATABASE_URL", "file::memory:?cache=shared"),
			JWTSecret:   os.Getenv("DEVGATEWAY_JWT_SECRET"),
			AccessTTL:   accessTTL,
		},
	}, nil
}

// DefaultStoragePath returns ~/.config/coursehub/state.sqlite
func DefaultStoragePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "coursehub", "state.sqlite"), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", key, raw, err)
	}
	return d, nil
}
