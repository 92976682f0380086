// internal/store/instrumented.go
package store

import (
	"context"

	"jtracker-hub/internal/common/config"
	"jtracker-hub/internal/common/database"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/common/metrics"
	"jtracker-hub/internal/models"
)

// Instrumented counts every store operation in hub_store_operations_total.
type Instrumented struct {
	Store
	backend string
}

func NewInstrumented(s Store, backend string) *Instrumented {
	return &Instrumented{Store: s, backend: backend}
}

func (i *Instrumented) record(op string, err error) {
	metrics.HubStoreOperations.WithLabelValues(i.backend, op, metrics.Outcome(err)).Inc()
}

func (i *Instrumented) Get(ctx context.Context, keys ...models.Key) (Values, error) {
	v, err := i.Store.Get(ctx, keys...)
	i.record("get", err)
	return v, err
}

func (i *Instrumented) Set(ctx context.Context, values Values) error {
	err := i.Store.Set(ctx, values)
	i.record("set", err)
	return err
}

func (i *Instrumented) Update(ctx context.Context, key models.Key, fn UpdateFunc) error {
	err := i.Store.Update(ctx, key, fn)
	i.record("update", err)
	return err
}

// New builds the configured backend wrapped with instrumentation.
func New(cfg *config.Config, log logger.Logger) Store {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		rc := database.NewRedis(cfg.Database.Redis)
		return NewInstrumented(NewRedisStore(rc.Client, cfg.Store.KeyPrefix, cfg.Store.MaxTxRetries, log), config.StoreBackendRedis)
	default:
		return NewInstrumented(NewMemoryStore(), config.StoreBackendMemory)
	}
}
