// internal/workers/application/complete-application/handler.go
package completeapplication

import (
	"context"
	"fmt"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/menu"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/router"
	"jtracker-hub/internal/store"
	"jtracker-hub/internal/tabs"
	"jtracker-hub/internal/workers"
)

const (
	TaskType = "complete-application"
)

type Handler struct {
	config    *Config
	store     store.Store
	tabs      *tabs.Registry
	menu      *menu.Machine
	messenger workers.TabMessenger
	archiver  workers.Archiver
	tasks     *router.Queue
	logger    logger.Logger
}

// NewHandler wires the flow. archiver may be nil.
func NewHandler(
	config *Config,
	s store.Store,
	registry *tabs.Registry,
	machine *menu.Machine,
	messenger workers.TabMessenger,
	archiver workers.Archiver,
	tasks *router.Queue,
	log logger.Logger,
) *Handler {
	return &Handler{
		config:    config,
		store:     s,
		tabs:      registry,
		menu:      machine,
		messenger: messenger,
		archiver:  archiver,
		tasks:     tasks,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Handle implements router.Handler.
func (h *Handler) Handle(ctx context.Context, msg models.Message, _ models.Sender) (*router.Task, error) {
	m, ok := msg.(models.CompleteApplication)
	if !ok {
		return nil, commonerrors.NewInvalidPayloadError(string(models.EventCompleteApplication),
			fmt.Errorf("unexpected message type %T", msg))
	}
	return h.Execute(ctx, &Input{NewApplication: m.NewApplication, TabID: m.TabID})
}

// Execute queues the commit and resets the context menu to idle without
// waiting for it. The commit appends the application and turns the owning
// tab's toggle off; once it lands the tab is told to reset its window and the
// application is archived.
func (h *Handler) Execute(ctx context.Context, input *Input) (*router.Task, error) {
	app := input.NewApplication.WithoutBlankQuestions()
	tabID := input.TabID

	committed := h.tasks.Go(ctx, TaskType, func(ctx context.Context) error {
		return h.commit(ctx, app, tabID)
	})
	task := committed.Then(ctx, TaskType+"/reset-window", func(ctx context.Context) error {
		if err := h.messenger.SendToTab(ctx, tabID, models.ResetWindow{}); err != nil {
			return commonerrors.NewTabSendFailedError(&tabID, err).
				WithMetadata("event", string(models.EventResetWindow))
		}
		h.archive(ctx, app)
		return nil
	})

	if err := h.menu.Reset(ctx); err != nil {
		return task, err
	}
	return task, nil
}

func (h *Handler) commit(ctx context.Context, app models.Application, tabID int) error {
	err := store.UpdateAs(ctx, h.store, models.KeyApplications, func(apps []models.Application) ([]models.Application, error) {
		return append(apps, app), nil
	})
	if err != nil {
		return err
	}
	if err := h.tabs.SetToggleOn(ctx, tabID, false); err != nil {
		return err
	}

	h.logger.Info("application completed", map[string]interface{}{
		"applicationId": app.ID,
		"company":       app.Company,
		"questions":     len(app.Application.Questions),
		"tabId":         tabID,
	})
	return nil
}

// archive never fails the flow; the store already holds the application.
func (h *Handler) archive(ctx context.Context, app models.Application) {
	if h.archiver == nil {
		return
	}
	if h.config.ArchiveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.ArchiveTimeout)
		defer cancel()
	}
	if err := h.archiver.Archive(ctx, app); err != nil {
		h.logger.Warn("archive failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}
}
