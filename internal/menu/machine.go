// internal/menu/machine.go
package menu

import (
	"context"
	"sync"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/common/metrics"
	"jtracker-hub/internal/models"
)

// Native is the browser's context menu API. It has no replace primitive.
type Native interface {
	RemoveAll(ctx context.Context) error
	Create(ctx context.Context, item Item) error
}

// Machine applies derived item sets to the native menu by removing every
// entry and recreating the full set. Rebuilds never interleave.
type Machine struct {
	native Native
	log    logger.Logger

	mu      sync.Mutex
	current []Item
}

func NewMachine(native Native, log logger.Logger) *Machine {
	return &Machine{
		native: native,
		log:    log.WithFields(map[string]interface{}{"component": "menu"}),
	}
}

// Sync rebuilds the native menu for app.
func (m *Machine) Sync(ctx context.Context, app *models.Application) error {
	return m.apply(ctx, StateOf(app), Derive(app))
}

// Reset rebuilds the native menu to the idle state.
func (m *Machine) Reset(ctx context.Context) error {
	return m.Sync(ctx, nil)
}

// Current returns the item set last written to the native menu.
func (m *Machine) Current() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item(nil), m.current...)
}

func (m *Machine) apply(ctx context.Context, state State, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.native.RemoveAll(ctx); err != nil {
		return commonerrors.NewMenuSyncFailedError(err)
	}
	m.current = nil

	for _, item := range items {
		if err := m.native.Create(ctx, item); err != nil {
			return commonerrors.NewMenuSyncFailedError(err).WithMetadata("item", string(item.ID))
		}
		m.current = append(m.current, item)
	}

	metrics.HubMenuRebuilds.WithLabelValues(string(state)).Inc()
	m.log.Debug("Context menu rebuilt", map[string]interface{}{
		"state": string(state),
		"items": IDs(items),
	})
	return nil
}
