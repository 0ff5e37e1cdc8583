package stores

import (
	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/storage"
)

// Set bundles every feature store
type Set struct {
	Progress      *Progress
	Notifications *Notifications
	Reports       *Reports
}

// Open loads all feature stores from the same storage backend
func Open(st storage.Storage, logger zerolog.Logger) (*Set, error) {
	progress, err := NewProgress(st, logger)
	if err != nil {
		return nil, err
	}
	notifications, err := NewNotifications(st, logger)
	if err != nil {
		return nil, err
	}
	reports, err := NewReports(st, logger)
	if err != nil {
		return nil, err
	}
	return &Set{
		Progress:      progress,
		Notifications: notifications,
		Reports:       reports,
	}, nil
}
