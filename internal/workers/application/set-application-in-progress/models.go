// internal/workers/application/set-application-in-progress/models.go
package setapplicationinprogress

import "jtracker-hub/internal/models"

// Input is the draft being edited; nil clears it.
type Input struct {
	Application *models.Application `json:"application"`
}
