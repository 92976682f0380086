// internal/workers/lifecycle/install/models.go
package install

// Input carries the install reason reported by the browser ("install",
// "update", ...). It does not change the flow.
type Input struct {
	Reason string `json:"reason,omitempty"`
}
