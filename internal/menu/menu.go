// internal/menu/menu.go
package menu

import (
	"jtracker-hub/internal/models"
)

// ItemID is the fixed identifier of a context menu entry.
type ItemID string

const (
	ItemStartApplication ItemID = "start-application"
	ItemAddQuestion      ItemID = "add-question"
	ItemAddAnswer        ItemID = "add-answer"
)

// Context restricts when the browser shows an item.
type Context string

const ContextSelection Context = "selection"

type Item struct {
	ID       ItemID    `json:"id"`
	Title    string    `json:"title"`
	Contexts []Context `json:"contexts"`
}

// State names a menu configuration.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
)

var titles = map[ItemID]string{
	ItemStartApplication: "Start Application",
	ItemAddQuestion:      "Add Question",
	ItemAddAnswer:        "Add Answer",
}

// NewItem returns the selection-scoped item for id.
func NewItem(id ItemID) Item {
	return Item{ID: id, Title: titles[id], Contexts: []Context{ContextSelection}}
}

// Known reports whether id is one of the items the hub ever creates.
func (id ItemID) Known() bool {
	_, ok := titles[id]
	return ok
}

// StateOf classifies the application in progress.
func StateOf(app *models.Application) State {
	if app.Started() {
		return StateCollecting
	}
	return StateIdle
}

// Derive returns the ordered item set for the application in progress.
//
// Idle shows only start-application. Collecting shows add-question, plus
// add-answer when the first incomplete question already has its question
// text. Only that first incomplete entry is inspected.
func Derive(app *models.Application) []Item {
	if StateOf(app) == StateIdle {
		return []Item{NewItem(ItemStartApplication)}
	}

	items := []Item{NewItem(ItemAddQuestion)}
	if q, ok := app.FirstIncompleteQuestion(); ok && q.Question != "" {
		items = append(items, NewItem(ItemAddAnswer))
	}
	return items
}

// IDs projects items to their ids, for logging and assertions.
func IDs(items []Item) []ItemID {
	out := make([]ItemID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
