// internal/workers/menu/menu-clicked/models.go
package menuclicked

import "jtracker-hub/internal/models"

type Input struct {
	MenuItemID    string `json:"menuItemId"`
	TabID         *int   `json:"tabId"`
	TabURL        string `json:"tabUrl"`
	SelectionText string `json:"selectionText"`
}

type Output struct {
	TabID int                `json:"tabId"`
	Sent  []models.EventType `json:"sent"`
}
