// internal/store/store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/models"
)

// Values is a partial document: raw JSON per present key.
type Values map[models.Key]json.RawMessage

// UpdateFunc transforms the current raw value of a key into its next value.
// old is nil when the key has never been written; returning nil leaves the
// key untouched.
type UpdateFunc func(old json.RawMessage) (json.RawMessage, error)

// Store is the asynchronous key-value view over the persisted document.
//
// Update is atomic with respect to every other Update or Set touching the
// same key through the same Store: no write to that key can land between its
// read and its write.
type Store interface {
	// Get returns the requested keys that are present. With no keys it
	// returns every present key.
	Get(ctx context.Context, keys ...models.Key) (Values, error)
	// Set shallow-merges values into the document.
	Set(ctx context.Context, values Values) error
	Update(ctx context.Context, key models.Key, fn UpdateFunc) error
	Ping(ctx context.Context) error
	Close() error
}

// keyLocks hands out one mutex per document key. Multi-key writers take the
// locks in a fixed order.
type keyLocks struct {
	locks map[models.Key]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	kl := &keyLocks{locks: make(map[models.Key]*sync.Mutex, len(models.AllKeys))}
	for _, k := range models.AllKeys {
		kl.locks[k] = &sync.Mutex{}
	}
	return kl
}

func (kl *keyLocks) lock(keys ...models.Key) func() {
	sorted := append([]models.Key(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	held := make([]*sync.Mutex, 0, len(sorted))
	var prev models.Key
	for i, k := range sorted {
		if i > 0 && k == prev {
			continue
		}
		prev = k
		m := kl.locks[k]
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func validateKeys(keys []models.Key) error {
	for _, k := range keys {
		if !k.Valid() {
			return commonerrors.NewInvalidPayloadError("", fmt.Errorf("unknown document key %q", k))
		}
	}
	return nil
}

func (v Values) keys() []models.Key {
	out := make([]models.Key, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	return out
}

// ==========================
// Typed helpers
// ==========================

// GetAs reads one key and decodes it into T. ok is false when the key is
// absent.
func GetAs[T any](ctx context.Context, s Store, key models.Key) (value T, ok bool, err error) {
	values, err := s.Get(ctx, key)
	if err != nil {
		return value, false, err
	}
	raw, present := values[key]
	if !present {
		return value, false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, commonerrors.NewStoreReadFailedError(string(key), err)
	}
	return value, true, nil
}

// UpdateAs runs a typed read-modify-write over key. An absent key decodes as
// the zero value of T.
func UpdateAs[T any](ctx context.Context, s Store, key models.Key, fn func(T) (T, error)) error {
	return s.Update(ctx, key, func(old json.RawMessage) (json.RawMessage, error) {
		var current T
		if len(old) > 0 {
			if err := json.Unmarshal(old, &current); err != nil {
				return nil, commonerrors.NewStoreReadFailedError(string(key), err)
			}
		}
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return nil, commonerrors.NewStoreWriteFailedError(string(key), err)
		}
		return raw, nil
	})
}

// SetAs encodes value and writes it under key.
func SetAs[T any](ctx context.Context, s Store, key models.Key, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return commonerrors.NewStoreWriteFailedError(string(key), err)
	}
	return s.Set(ctx, Values{key: raw})
}

// ReadDocument returns the full document, defaults filling absent keys.
func ReadDocument(ctx context.Context, s Store) (models.Document, error) {
	values, err := s.Get(ctx)
	if err != nil {
		return models.Document{}, err
	}
	doc, err := models.DocumentFromFields(values)
	if err != nil {
		return models.Document{}, commonerrors.NewStoreReadFailedError("", err)
	}
	return doc, nil
}

// WriteDocument replaces every field of the document in one Set.
func WriteDocument(ctx context.Context, s Store, doc models.Document) error {
	fields, err := doc.Fields()
	if err != nil {
		return commonerrors.NewStoreWriteFailedError("", err)
	}
	return s.Set(ctx, Values(fields))
}
