// internal/workers/lifecycle/install/handler.go
package install

import (
	"context"

	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/menu"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/router"
	"jtracker-hub/internal/store"
	"jtracker-hub/internal/tabs"
	"jtracker-hub/internal/workers"
)

const (
	TaskType = "install"
)

type Handler struct {
	store      store.Store
	tabs       *tabs.Registry
	enumerator workers.TabEnumerator
	menu       *menu.Machine
	tasks      *router.Queue
	logger     logger.Logger
}

func NewHandler(
	config *Config,
	s store.Store,
	registry *tabs.Registry,
	enumerator workers.TabEnumerator,
	machine *menu.Machine,
	tasks *router.Queue,
	log logger.Logger,
) *Handler {
	return &Handler{
		store:      s,
		tabs:       registry,
		enumerator: enumerator,
		menu:       machine,
		tasks:      tasks,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute queues the re-initialization of the document: the default shape
// first, then currentTabs replaced with a snapshot of the open tabs. The
// snapshot goes through Update so it only touches currentTabs. The menu is
// reset to idle immediately.
func (h *Handler) Execute(ctx context.Context, input *Input) (*router.Task, error) {
	task := h.tasks.Go(ctx, TaskType, func(ctx context.Context) error {
		if err := store.WriteDocument(ctx, h.store, models.DefaultDocument()); err != nil {
			return err
		}

		tabIDs, err := h.enumerator.QueryTabs(ctx)
		if err != nil {
			return err
		}
		if err := h.tabs.Replace(ctx, tabIDs); err != nil {
			return err
		}

		h.logger.Info("document initialized", map[string]interface{}{
			"reason": input.Reason,
			"tabs":   len(tabIDs),
		})
		return nil
	})

	if err := h.menu.Reset(ctx); err != nil {
		return task, err
	}
	return task, nil
}
