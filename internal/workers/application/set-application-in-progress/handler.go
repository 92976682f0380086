// internal/workers/application/set-application-in-progress/handler.go
package setapplicationinprogress

import (
	"context"
	"fmt"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/menu"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/router"
	"jtracker-hub/internal/store"
)

const (
	TaskType = "set-application-in-progress"
)

type Handler struct {
	store  store.Store
	menu   *menu.Machine
	tasks  *router.Queue
	logger logger.Logger
}

func NewHandler(config *Config, s store.Store, machine *menu.Machine, tasks *router.Queue, log logger.Logger) *Handler {
	return &Handler{
		store:  s,
		menu:   machine,
		tasks:  tasks,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Handle implements router.Handler.
func (h *Handler) Handle(ctx context.Context, msg models.Message, _ models.Sender) (*router.Task, error) {
	m, ok := msg.(models.SetApplicationInProgress)
	if !ok {
		return nil, commonerrors.NewInvalidPayloadError(string(models.EventSetApplicationInProgress),
			fmt.Errorf("unexpected message type %T", msg))
	}
	return h.Execute(ctx, &Input{Application: m.Application})
}

// Execute queues the draft write and rebuilds the context menu from it right
// away. The returned task completes with the write; writes of earlier events
// land first.
func (h *Handler) Execute(ctx context.Context, input *Input) (*router.Task, error) {
	draft := input.Application

	task := h.tasks.Go(ctx, TaskType, func(ctx context.Context) error {
		return store.UpdateAs(ctx, h.store, models.KeyApplicationInProgress,
			func(*models.Application) (*models.Application, error) {
				return draft, nil
			})
	})

	if err := h.menu.Sync(ctx, draft); err != nil {
		return task, err
	}

	h.logger.Debug("application in progress updated", map[string]interface{}{
		"started":   draft.Started(),
		"menuState": string(menu.StateOf(draft)),
	})
	return task, nil
}
