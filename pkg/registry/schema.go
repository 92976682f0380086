// pkg/registry/schema.go
package registry

type EventRegistry struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"lastUpdated"`
	Events      []Event `json:"events"`
}

type Event struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Direction   string                 `json:"direction"` // hub->tab | tab->hub
	Transport   string                 `json:"transport"` // message | port
	Handled     bool                   `json:"handled"`
	DataSchema  map[string]interface{} `json:"dataSchema"`
	ReplySchema map[string]interface{} `json:"replySchema,omitempty"`
	ErrorCodes  []string               `json:"errorCodes,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
}
