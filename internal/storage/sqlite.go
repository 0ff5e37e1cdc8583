package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// entry is a single persisted key/value pair
type entry struct {
	Key       string    `gorm:"column:storage_key;primaryKey;type:varchar(64)"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (entry) TableName() string {
	return "kv_entries"
}

// SQLite stores values in a local SQLite database file
type SQLite struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// OpenSQLite opens (and creates if needed) the SQLite file at path
func OpenSQLite(path string, zlog zerolog.Logger) (*SQLite, error) {
	if path != ":memory:" {
		// Create state directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// Single writer keeps SQLite free of SQLITE_BUSY between CLI goroutines
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA busy_timeout=5000").Error; err != nil {
		zlog.Warn().Err(err).Msg("Failed to apply busy_timeout pragma")
	}

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate storage database: %w", err)
	}

	zlog.Debug().Str("path", path).Msg("Opened client storage")

	return &SQLite{db: db, logger: zlog}, nil
}

func (s *SQLite) Get(key string) ([]byte, error) {
	var e entry
	if err := s.db.Where("storage_key = ?", key).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *SQLite) Set(key string, value []byte) error {
	e := entry{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(key string) error {
	if err := s.db.Where("storage_key = ?", key).Delete(&entry{}).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
