// internal/tabs/registry_test.go
package tabs

import (
	"context"
	"sync"
	"testing"

	"jtracker-hub/internal/models"
	"jtracker-hub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*Registry, store.Store) {
	s := store.NewMemoryStore()
	require.NoError(t, store.WriteDocument(context.Background(), s, models.DefaultDocument()))
	return NewRegistry(s), s
}

func TestRegistry_AddThenRemoveLeavesNoEntry(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, 7))
	_, ok, err := r.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Remove(ctx, 7))
	_, ok, err = r.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_RemoveUnknownIsNoOp(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, r.Add(ctx, 1))

	require.NoError(t, r.Remove(ctx, 99))

	tabs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CurrentTab{{ID: 1}}, tabs)
}

func TestRegistry_AddKeepsIDsUnique(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, 3))
	require.NoError(t, r.SetToggleOn(ctx, 3, true))
	require.NoError(t, r.Add(ctx, 3))

	tabs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CurrentTab{{ID: 3, ToggleIsOn: true}}, tabs, "re-adding must not reset toggles")
}

func TestRegistry_ReplaceResetsToggles(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, r.Add(ctx, 1))
	require.NoError(t, r.SetToggleOn(ctx, 1, true))
	require.NoError(t, r.SetToggleEnabled(ctx, 1, true))

	require.NoError(t, r.Replace(ctx, []int{1, 2, 2, 4}))

	tabs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CurrentTab{{ID: 1}, {ID: 2}, {ID: 4}}, tabs)
}

func TestRegistry_TogglesOnlyTouchMatchingTab(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, r.Replace(ctx, []int{1, 2}))

	require.NoError(t, r.SetToggleOn(ctx, 2, true))
	require.NoError(t, r.SetToggleEnabled(ctx, 1, true))
	require.NoError(t, r.SetToggleOn(ctx, 42, true))

	tabs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CurrentTab{
		{ID: 1, ToggleIsEnabled: true},
		{ID: 2, ToggleIsOn: true},
	}, tabs)
}

func TestRegistry_ListOnEmptyStore(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore())

	tabs, err := r.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tabs)
	assert.Empty(t, tabs)
}

func TestRegistry_ConcurrentCreateRemove(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, r.Add(ctx, id))
			if id%2 == 0 {
				assert.NoError(t, r.Remove(ctx, id))
			}
		}(i)
	}
	wg.Wait()

	tabs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tabs, 15)
	for _, tab := range tabs {
		assert.Equal(t, 1, tab.ID%2)
	}
}

func TestRegistry_PatchReturnsPatchedEntry(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, r.Add(ctx, 3))

	tab, err := r.Patch(ctx, 3, func(t *models.CurrentTab) { t.ToggleIsEnabled = true })
	require.NoError(t, err)
	assert.Equal(t, models.CurrentTab{ID: 3, ToggleIsEnabled: true}, tab)

	stored, _, err := r.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, tab, stored)
}

func TestRegistry_PatchUnknownWritesNothing(t *testing.T) {
	r, s := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, r.Add(ctx, 1))
	before, err := s.Get(ctx, models.KeyCurrentTabs)
	require.NoError(t, err)

	called := false
	_, err = r.Patch(ctx, 2, func(*models.CurrentTab) { called = true })
	assert.ErrorIs(t, err, ErrNotTracked)
	assert.False(t, called)

	after, err := s.Get(ctx, models.KeyCurrentTabs)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRegistry_PatchRacingRemove(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, r.Add(ctx, i))

		var wg sync.WaitGroup
		var tab models.CurrentTab
		var patchErr error
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			tab, patchErr = r.Patch(ctx, id, func(t *models.CurrentTab) { t.ToggleIsOn = true })
		}(i)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, r.Remove(ctx, id))
		}(i)
		wg.Wait()

		// Either the patch saw the entry or it reports it gone; never a
		// zero-value tab.
		if patchErr != nil {
			assert.ErrorIs(t, patchErr, ErrNotTracked)
			continue
		}
		assert.Equal(t, models.CurrentTab{ID: i, ToggleIsOn: true}, tab)

		_, ok, err := r.Get(ctx, i)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}
