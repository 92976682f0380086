// internal/workers/tabs/tab-removed/models.go
package tabremoved

type Input struct {
	TabID int `json:"tabId"`
}
