// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed events.json
var embeddedEvents []byte

// LoadRegistry reads an event registry from path.
func LoadRegistry(path string) (*EventRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default returns the registry compiled into the binary.
func Default() (*EventRegistry, error) {
	return Parse(embeddedEvents)
}

// Load returns the registry at path, or the embedded one when path is empty.
func Load(path string) (*EventRegistry, error) {
	if path == "" {
		return Default()
	}
	return LoadRegistry(path)
}

func Parse(data []byte) (*EventRegistry, error) {
	var reg EventRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse event registry: %w", err)
	}
	return &reg, nil
}

// Find returns the event named name.
func (r *EventRegistry) Find(name string) (Event, bool) {
	for _, e := range r.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}

// DataSchemas maps event name to its data JSON schema.
func (r *EventRegistry) DataSchemas() map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{}, len(r.Events))
	for _, e := range r.Events {
		if e.DataSchema != nil {
			out[e.Name] = e.DataSchema
		}
	}
	return out
}
