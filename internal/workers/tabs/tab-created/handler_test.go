package tabcreated

import (
	"context"
	"testing"

	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/store"
	"jtracker-hub/internal/tabs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_AppendsFreshEntries(t *testing.T) {
	ctx := context.Background()
	registry := tabs.NewRegistry(store.NewMemoryStore())
	handler := NewHandler(&Config{Enabled: true}, registry, logger.NewTestLogger(t))

	for _, id := range []int{4, 2, 4} {
		require.NoError(t, handler.Execute(ctx, &Input{TabID: id}))
	}

	list, err := registry.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CurrentTab{models.NewCurrentTab(4), models.NewCurrentTab(2)}, list)
}

func TestExecute_KeepsExistingToggles(t *testing.T) {
	ctx := context.Background()
	registry := tabs.NewRegistry(store.NewMemoryStore())
	require.NoError(t, registry.Add(ctx, 1))
	require.NoError(t, registry.SetToggleOn(ctx, 1, true))
	handler := NewHandler(&Config{Enabled: true}, registry, logger.NewNoOpLogger())

	require.NoError(t, handler.Execute(ctx, &Input{TabID: 2}))

	tab, ok, err := registry.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tab.ToggleIsOn)
}
