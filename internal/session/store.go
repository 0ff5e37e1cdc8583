package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/storage"
	"github.com/coursehub-dev/coursehub/internal/versioned"
)

// Store holds the single authoritative copy of the session. Reads are
// synchronous snapshots; every applied write is persisted under storage.KeySession.
type Store struct {
	mu      sync.RWMutex
	current Session
	clock   versioned.Clock
	storage storage.Storage
	logger  zerolog.Logger
}

// NewStore creates a store and rehydrates it from the persisted copy
func NewStore(st storage.Storage, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		storage: st,
		logger:  logger,
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory session with the persisted copy
func (s *Store) Load() error {
	data, err := s.storage.Get(storage.KeySession)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	var persisted Session
	if err := json.Unmarshal(data, &persisted); err != nil {
		// A corrupt copy is treated as signed out
		s.logger.Warn().Err(err).Msg("Discarding unreadable persisted session")
		return s.storage.Delete(storage.KeySession)
	}

	s.clock.Write(func() {
		s.mu.Lock()
		s.current = persisted
		s.mu.Unlock()
	})
	return nil
}

// Current returns a snapshot of the session
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.clone()
}

// AccessToken returns the access token, or empty string when signed out
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.AccessToken
}

// RefreshToken returns the refresh token, or empty string when signed out
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.RefreshToken
}

// Begin issues a ticket for a write that completes later (after a network call)
func (s *Store) Begin() versioned.Ticket {
	return s.clock.Begin()
}

// Commit applies sess if no newer write has been applied since t was issued
func (s *Store) Commit(t versioned.Ticket, sess Session) (bool, error) {
	var persistErr error
	applied := s.clock.Commit(t, func() {
		persistErr = s.apply(sess.clone())
	})
	return applied, persistErr
}

// Set replaces the session
func (s *Store) Set(sess Session) error {
	_, err := s.Commit(s.Begin(), sess)
	return err
}

// CommitTokens swaps in refreshed tokens, keeping the user. t must be taken
// before the refresh request was sent. The write is dropped when a newer
// write (sign-out, sign-in) was applied in the meantime, or when the session
// no longer holds usedRefresh and a user.
func (s *Store) CommitTokens(t versioned.Ticket, usedRefresh, accessToken, refreshToken string) (bool, error) {
	var (
		persistErr error
		dropped    bool
	)
	applied := s.clock.Commit(t, func() {
		next := s.Current()
		if next.User == nil || next.RefreshToken == "" || next.RefreshToken != usedRefresh {
			dropped = true
			return
		}
		next.AccessToken = accessToken
		if refreshToken != "" {
			next.RefreshToken = refreshToken
		}
		persistErr = s.apply(next)
	})
	return applied && !dropped, persistErr
}

// Clear signs the user out
func (s *Store) Clear() error {
	return s.Set(Session{})
}

// Sync mirrors the external auth session: a session signs the user in,
// nil (signed out or no session) clears the store.
func (s *Store) Sync(ext *ExternalSession) error {
	_, err := s.CommitSync(s.Begin(), ext)
	return err
}

// CommitSync is Sync for a sign-in whose response arrives after t was issued
func (s *Store) CommitSync(t versioned.Ticket, ext *ExternalSession) (bool, error) {
	if ext == nil || ext.AccessToken == "" {
		return s.Commit(t, Session{})
	}
	return s.Commit(t, FromExternal(*ext))
}

// apply must be called from inside a clock commit
func (s *Store) apply(next Session) error {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	if !next.IsAuthenticated() && next.User == nil {
		if err := s.storage.Delete(storage.KeySession); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to delete persisted session")
			return err
		}
		return nil
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.storage.Set(storage.KeySession, data); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist session")
		return err
	}
	return nil
}
