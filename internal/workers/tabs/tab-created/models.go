// internal/workers/tabs/tab-created/models.go
package tabcreated

type Input struct {
	TabID int `json:"tabId"`
}
