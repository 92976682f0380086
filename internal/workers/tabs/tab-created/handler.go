// internal/workers/tabs/tab-created/handler.go
package tabcreated

import (
	"context"

	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/tabs"
)

const (
	TaskType = "tab-created"
)

type Handler struct {
	tabs   *tabs.Registry
	logger logger.Logger
}

func NewHandler(config *Config, registry *tabs.Registry, log logger.Logger) *Handler {
	return &Handler{
		tabs:   registry,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute starts tracking a newly opened tab with both toggles off.
func (h *Handler) Execute(ctx context.Context, input *Input) error {
	if err := h.tabs.Add(ctx, input.TabID); err != nil {
		return err
	}
	h.logger.Debug("tab tracked", map[string]interface{}{"tabId": input.TabID})
	return nil
}
