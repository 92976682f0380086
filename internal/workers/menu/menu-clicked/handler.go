// internal/workers/menu/menu-clicked/handler.go
package menuclicked

import (
	"context"
	"errors"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/menu"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/tabs"
	"jtracker-hub/internal/workers"
)

const (
	TaskType = "menu-clicked"
)

var ErrMissingTab = errors.New("menu click carries no tab id")

type Handler struct {
	tabs      *tabs.Registry
	messenger workers.TabMessenger
	logger    logger.Logger
}

func NewHandler(config *Config, registry *tabs.Registry, messenger workers.TabMessenger, log logger.Logger) *Handler {
	return &Handler{
		tabs:      registry,
		messenger: messenger,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute marks the clicked tab as toggled on, then forwards the action
// matching the clicked item to that tab followed by an openWindow.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.TabID == nil {
		return nil, commonerrors.NewTabSendFailedError(nil, ErrMissingTab).
			WithMetadata("menuItemId", input.MenuItemID)
	}
	tabID := *input.TabID
	output := &Output{TabID: tabID, Sent: []models.EventType{}}

	if err := h.tabs.SetToggleOn(ctx, tabID, true); err != nil {
		return nil, err
	}

	var action models.Message
	var page int
	switch menu.ItemID(input.MenuItemID) {
	case menu.ItemStartApplication:
		action = models.StartApplication{URL: input.TabURL, Title: input.SelectionText}
		page = 0
	case menu.ItemAddQuestion:
		action = models.AddQuestion{SelectionText: input.SelectionText}
		page = 1
	case menu.ItemAddAnswer:
		action = models.AddAnswer{SelectionText: input.SelectionText}
		page = 1
	default:
		h.logger.Debug("unrecognized menu item", map[string]interface{}{
			"menuItemId": input.MenuItemID,
			"tabId":      tabID,
		})
		return output, nil
	}

	for _, msg := range []models.Message{action, models.OpenWindow{Page: page}} {
		if err := h.messenger.SendToTab(ctx, tabID, msg); err != nil {
			return output, commonerrors.NewTabSendFailedError(&tabID, err).
				WithMetadata("event", string(msg.Event()))
		}
		output.Sent = append(output.Sent, msg.Event())
	}

	h.logger.Info("menu action forwarded", map[string]interface{}{
		"menuItemId": input.MenuItemID,
		"tabId":      tabID,
	})
	return output, nil
}
