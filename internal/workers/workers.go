// Package workers holds the collaborator contracts shared by the hub's event
// handlers. Each flow lives in its own subpackage.
package workers

import (
	"context"

	"jtracker-hub/internal/models"
)

// TabMessenger delivers a one-shot message to the content script of a tab.
type TabMessenger interface {
	SendToTab(ctx context.Context, tabID int, msg models.Message) error
}

// TabEnumerator lists the ids of all currently open tabs.
type TabEnumerator interface {
	QueryTabs(ctx context.Context) ([]int, error)
}

// Archiver mirrors a completed application outside the state store.
type Archiver interface {
	Archive(ctx context.Context, app models.Application) error
}
