// internal/store/memory.go
package store

import (
	"context"
	"encoding/json"
	"sync"

	"jtracker-hub/internal/models"
)

// MemoryStore keeps the document in process memory. Contents are lost on
// restart; install re-initializes them.
type MemoryStore struct {
	locks *keyLocks

	mu   sync.RWMutex
	data map[models.Key]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks: newKeyLocks(),
		data:  make(map[models.Key]json.RawMessage),
	}
}

func (m *MemoryStore) Get(_ context.Context, keys ...models.Key) (Values, error) {
	if err := validateKeys(keys); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		keys = models.AllKeys
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(Values, len(keys))
	for _, k := range keys {
		if raw, ok := m.data[k]; ok {
			out[k] = clone(raw)
		}
	}
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, values Values) error {
	if err := validateKeys(values.keys()); err != nil {
		return err
	}
	unlock := m.locks.lock(values.keys()...)
	defer unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, raw := range values {
		m.data[k] = clone(raw)
	}
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, key models.Key, fn UpdateFunc) error {
	if err := validateKeys([]models.Key{key}); err != nil {
		return err
	}
	unlock := m.locks.lock(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	old := clone(m.data[key])
	m.mu.RUnlock()

	next, err := fn(old)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}

	m.mu.Lock()
	m.data[key] = clone(next)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func clone(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
