// Package stores holds the persisted feature stores (progress,
// notifications, reports) written by the action layer.
package stores

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/storage"
	"github.com/coursehub-dev/coursehub/internal/versioned"
)

// persisted is a value of type T mirrored to storage under a fixed key.
// Writes go through a version clock so a late response cannot overwrite a
// newer state.
type persisted[T any] struct {
	mu      sync.RWMutex
	value   T
	clock   versioned.Clock
	key     string
	storage storage.Storage
	logger  zerolog.Logger
}

func newPersisted[T any](key string, initial T, st storage.Storage, logger zerolog.Logger) (*persisted[T], error) {
	p := &persisted[T]{
		value:   initial,
		key:     key,
		storage: st,
		logger:  logger.With().Str("store", key).Logger(),
	}

	data, err := st.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return p, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := json.Unmarshal(data, &p.value); err != nil {
		p.logger.Warn().Err(err).Msg("Discarding unreadable persisted store")
		p.value = initial
	}
	return p, nil
}

// read runs fn with the current value under a read lock
func (p *persisted[T]) read(fn func(T)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn(p.value)
}

func (p *persisted[T]) begin() versioned.Ticket {
	return p.clock.Begin()
}

// commit applies mutate if t is still the newest write, then persists
func (p *persisted[T]) commit(t versioned.Ticket, mutate func(*T)) (bool, error) {
	var persistErr error
	applied := p.clock.Commit(t, func() {
		p.mu.Lock()
		mutate(&p.value)
		data, err := json.Marshal(p.value)
		p.mu.Unlock()

		if err != nil {
			persistErr = fmt.Errorf("failed to marshal %s: %w", p.key, err)
			return
		}
		if err := p.storage.Set(p.key, data); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to persist store")
			persistErr = err
		}
	})
	return applied, persistErr
}

func (p *persisted[T]) write(mutate func(*T)) error {
	_, err := p.commit(p.begin(), mutate)
	return err
}
