// Package storage persists small client-side values (session, feature
// stores) under fixed keys.
package storage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/config"
)

// Fixed storage keys
const (
	KeySession       = "session"
	KeyProgress      = "progress"
	KeyNotifications = "notifications"
	KeyReports       = "reports"
)

// ErrNotFound is returned when a key has never been written
var ErrNotFound = errors.New("storage: key not found")

// Storage defines the persistence operations used by the stores.
// This allows us to swap the backend (SQLite, OS keyring, memory) per environment.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Open builds the backend selected in the configuration
func Open(cfg config.StorageConfig, logger zerolog.Logger) (Storage, error) {
	switch cfg.Backend {
	case config.StorageSQLite:
		return OpenSQLite(cfg.Path, logger)
	case config.StorageKeyring:
		return NewKeyring(keyringService), nil
	case config.StorageMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend '%s'", cfg.Backend)
	}
}
