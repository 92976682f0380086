// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/models"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "jtracker"

// RedisStore keeps each document field as a JSON string under
// "{<prefix>}:<key>". The braces make the prefix the cluster hash tag, so
// every key of one document maps to one slot and MGET, MULTI and WATCH work
// against Redis Cluster as well as a single node. Update holds the in-process key lock and additionally
// runs under WATCH so that writers in other processes force a re-read.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	maxRetries int
	locks      *keyLocks
	log        logger.Logger
}

func NewRedisStore(client redis.UniversalClient, prefix string, maxRetries int, log logger.Logger) *RedisStore {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{
		client:     client,
		prefix:     prefix,
		maxRetries: maxRetries,
		locks:      newKeyLocks(),
		log:        log.WithFields(map[string]interface{}{"component": "redis-store"}),
	}
}

func (r *RedisStore) redisKey(k models.Key) string {
	return fmt.Sprintf("{%s}:%s", r.prefix, k)
}

func (r *RedisStore) Get(ctx context.Context, keys ...models.Key) (Values, error) {
	if err := validateKeys(keys); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		keys = models.AllKeys
	}

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = r.redisKey(k)
	}

	results, err := r.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, commonerrors.NewStoreReadFailedError(string(keys[0]), err)
	}

	out := make(Values, len(keys))
	for i, res := range results {
		switch v := res.(type) {
		case nil:
		case string:
			out[keys[i]] = json.RawMessage(v)
		default:
			return nil, commonerrors.NewStoreReadFailedError(string(keys[i]), fmt.Errorf("unexpected reply type %T", res))
		}
	}
	return out, nil
}

func (r *RedisStore) Set(ctx context.Context, values Values) error {
	if err := validateKeys(values.keys()); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	unlock := r.locks.lock(values.keys()...)
	defer unlock()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, raw := range values {
			pipe.Set(ctx, r.redisKey(k), string(raw), 0)
		}
		return nil
	})
	if err != nil {
		return commonerrors.NewStoreWriteFailedError(string(values.keys()[0]), err)
	}
	return nil
}

func (r *RedisStore) Update(ctx context.Context, key models.Key, fn UpdateFunc) error {
	if err := validateKeys([]models.Key{key}); err != nil {
		return err
	}
	unlock := r.locks.lock(key)
	defer unlock()

	redisKey := r.redisKey(key)
	var fnErr error

	txf := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, redisKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return commonerrors.NewStoreReadFailedError(string(key), err)
		}
		if errors.Is(err, redis.Nil) {
			old = nil
		}

		next, err := fn(old)
		if err != nil {
			fnErr = err
			return err
		}
		if next == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, string(next), 0)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, redisKey)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			r.log.Debug("Optimistic update conflicted, retrying", map[string]interface{}{
				"key":     string(key),
				"attempt": attempt,
			})
			continue
		case fnErr != nil:
			return fnErr
		case commonerrors.HasCode(err, commonerrors.ErrCodeStoreReadFailed):
			return err
		default:
			return commonerrors.NewStoreWriteFailedError(string(key), err)
		}
	}

	return commonerrors.NewStoreConflictError(string(key), r.maxRetries)
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
