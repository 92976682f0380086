// internal/workers/tabs/tab-removed/handler.go
package tabremoved

import (
	"context"

	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/tabs"
)

const (
	TaskType = "tab-removed"
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

// Execute forgets a closed tab. Unknown ids are ignored.
func (h *Handler) Execute(ctx context.Context, input *Input) error {
	if err := h.tabs.Remove(ctx, input.TabID); err != nil {
		return err
	}
	h.logger.Debug("tab forgotten", map[string]interface{}{"tabId": input.TabID})
	return nil
}
