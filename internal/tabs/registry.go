// internal/tabs/registry.go
package tabs

import (
	"context"
	"errors"

	"jtracker-hub/internal/models"
	"jtracker-hub/internal/store"
)

// ErrNotTracked is returned by Patch when the tab has no entry.
var ErrNotTracked = errors.New("tab not tracked")

// Registry maintains the currentTabs list. It owns no storage of its own;
// every mutation is a Store.Update on the currentTabs key.
type Registry struct {
	store store.Store
}

func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

func (r *Registry) update(ctx context.Context, fn func([]models.CurrentTab) []models.CurrentTab) error {
	return store.UpdateAs(ctx, r.store, models.KeyCurrentTabs, func(tabs []models.CurrentTab) ([]models.CurrentTab, error) {
		next := fn(tabs)
		if next == nil {
			next = []models.CurrentTab{}
		}
		return next, nil
	})
}

// Add appends a fresh entry for tabID. Adding a known id is a no-op.
func (r *Registry) Add(ctx context.Context, tabID int) error {
	return r.update(ctx, func(tabs []models.CurrentTab) []models.CurrentTab {
		for _, t := range tabs {
			if t.ID == tabID {
				return tabs
			}
		}
		return append(tabs, models.NewCurrentTab(tabID))
	})
}

// Remove drops the entry for tabID. Removing an unknown id is a no-op.
func (r *Registry) Remove(ctx context.Context, tabID int) error {
	return r.update(ctx, func(tabs []models.CurrentTab) []models.CurrentTab {
		kept := make([]models.CurrentTab, 0, len(tabs))
		for _, t := range tabs {
			if t.ID != tabID {
				kept = append(kept, t)
			}
		}
		return kept
	})
}

// Replace swaps the whole list for the given ids with both toggles off.
// Duplicate ids are collapsed, keeping the first occurrence.
func (r *Registry) Replace(ctx context.Context, tabIDs []int) error {
	return r.update(ctx, func([]models.CurrentTab) []models.CurrentTab {
		seen := make(map[int]struct{}, len(tabIDs))
		fresh := make([]models.CurrentTab, 0, len(tabIDs))
		for _, id := range tabIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			fresh = append(fresh, models.NewCurrentTab(id))
		}
		return fresh
	})
}

// SetToggleOn sets toggleIsOn for tabID. Unknown ids are left alone.
func (r *Registry) SetToggleOn(ctx context.Context, tabID int, on bool) error {
	return r.mutate(ctx, tabID, func(t *models.CurrentTab) { t.ToggleIsOn = on })
}

// SetToggleEnabled sets toggleIsEnabled for tabID. Unknown ids are left alone.
func (r *Registry) SetToggleEnabled(ctx context.Context, tabID int, enabled bool) error {
	return r.mutate(ctx, tabID, func(t *models.CurrentTab) { t.ToggleIsEnabled = enabled })
}

func (r *Registry) mutate(ctx context.Context, tabID int, fn func(*models.CurrentTab)) error {
	return r.update(ctx, func(tabs []models.CurrentTab) []models.CurrentTab {
		for i := range tabs {
			if tabs[i].ID == tabID {
				fn(&tabs[i])
			}
		}
		return tabs
	})
}

// Patch applies fn to the entry for tabID and returns the patched entry. The
// lookup and the write happen in one Store.Update; an unknown id yields
// ErrNotTracked and writes nothing.
func (r *Registry) Patch(ctx context.Context, tabID int, fn func(*models.CurrentTab)) (models.CurrentTab, error) {
	var patched models.CurrentTab
	err := store.UpdateAs(ctx, r.store, models.KeyCurrentTabs, func(tabs []models.CurrentTab) ([]models.CurrentTab, error) {
		for i := range tabs {
			if tabs[i].ID == tabID {
				fn(&tabs[i])
				patched = tabs[i]
				return tabs, nil
			}
		}
		return nil, ErrNotTracked
	})
	return patched, err
}

// List returns the current entries in stored order.
func (r *Registry) List(ctx context.Context) ([]models.CurrentTab, error) {
	tabs, _, err := store.GetAs[[]models.CurrentTab](ctx, r.store, models.KeyCurrentTabs)
	if err != nil {
		return nil, err
	}
	if tabs == nil {
		tabs = []models.CurrentTab{}
	}
	return tabs, nil
}

// Get returns the entry for tabID.
func (r *Registry) Get(ctx context.Context, tabID int) (models.CurrentTab, bool, error) {
	tabs, err := r.List(ctx)
	if err != nil {
		return models.CurrentTab{}, false, err
	}
	for _, t := range tabs {
		if t.ID == tabID {
			return t, true, nil
		}
	}
	return models.CurrentTab{}, false, nil
}
