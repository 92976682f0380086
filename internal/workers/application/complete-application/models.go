// internal/workers/application/complete-application/models.go
package completeapplication

import "jtracker-hub/internal/models"

type Input struct {
	NewApplication models.Application `json:"newApplication"`
	TabID          int                `json:"tabId"`
}
