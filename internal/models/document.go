// internal/models/document.go
package models

import (
	"encoding/json"
	"fmt"
)

// Key names a top-level field of the persisted document.
type Key string

const (
	KeyApplications          Key = "applications"
	KeyViewingApplicationID  Key = "viewingApplicationId"
	KeyURLs                  Key = "urls"
	KeyApplicationInProgress Key = "applicationInProgress"
	KeyCurrentTabs           Key = "currentTabs"
)

// AllKeys lists every document field in declaration order.
var AllKeys = []Key{
	KeyApplications,
	KeyViewingApplicationID,
	KeyURLs,
	KeyApplicationInProgress,
	KeyCurrentTabs,
}

func (k Key) Valid() bool {
	for _, known := range AllKeys {
		if k == known {
			return true
		}
	}
	return false
}

// CurrentTab is the per-tab toggle state kept for every open browser tab.
type CurrentTab struct {
	ID              int  `json:"id"`
	ToggleIsEnabled bool `json:"toggleIsEnabled"`
	ToggleIsOn      bool `json:"toggleIsOn"`
}

// NewCurrentTab returns the entry for a freshly seen tab, both toggles off.
func NewCurrentTab(id int) CurrentTab {
	return CurrentTab{ID: id}
}

// Document is the single persisted state document.
type Document struct {
	Applications          []Application `json:"applications"`
	ViewingApplicationID  *string       `json:"viewingApplicationId"`
	URLs                  []string      `json:"urls"`
	ApplicationInProgress *Application  `json:"applicationInProgress"`
	CurrentTabs           []CurrentTab  `json:"currentTabs"`
}

// DefaultDocument is the shape written on install: empty collections and
// null scalars.
func DefaultDocument() Document {
	return Document{
		Applications: []Application{},
		URLs:         []string{},
		CurrentTabs:  []CurrentTab{},
	}
}

// Fields splits the document into one raw JSON value per key.
func (d Document) Fields() (map[Key]json.RawMessage, error) {
	values := map[Key]interface{}{
		KeyApplications:          nonNil(d.Applications),
		KeyViewingApplicationID:  d.ViewingApplicationID,
		KeyURLs:                  nonNil(d.URLs),
		KeyApplicationInProgress: d.ApplicationInProgress,
		KeyCurrentTabs:           nonNil(d.CurrentTabs),
	}

	out := make(map[Key]json.RawMessage, len(values))
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}
		out[key] = raw
	}
	return out, nil
}

// DocumentFromFields assembles a document from raw per-key values. Missing
// keys keep their default value.
func DocumentFromFields(fields map[Key]json.RawMessage) (Document, error) {
	doc := DefaultDocument()
	targets := map[Key]interface{}{
		KeyApplications:          &doc.Applications,
		KeyViewingApplicationID:  &doc.ViewingApplicationID,
		KeyURLs:                  &doc.URLs,
		KeyApplicationInProgress: &doc.ApplicationInProgress,
		KeyCurrentTabs:           &doc.CurrentTabs,
	}

	for key, raw := range fields {
		target, ok := targets[key]
		if !ok {
			return Document{}, fmt.Errorf("unknown document key %q", key)
		}
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return Document{}, fmt.Errorf("unmarshal %s: %w", key, err)
		}
	}

	if doc.Applications == nil {
		doc.Applications = []Application{}
	}
	if doc.URLs == nil {
		doc.URLs = []string{}
	}
	if doc.CurrentTabs == nil {
		doc.CurrentTabs = []CurrentTab{}
	}
	return doc, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
