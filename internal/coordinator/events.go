// internal/coordinator/events.go
package coordinator

import (
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/router"
	menuclicked "jtracker-hub/internal/workers/menu/menu-clicked"
)

// Event is one browser callback queued on the coordinator loop.
type Event interface {
	Name() string
}

type Installed struct {
	Reason string
}

type TabCreated struct {
	TabID int
}

type TabRemoved struct {
	TabID int
}

type MenuClicked struct {
	MenuItemID    string
	TabID         *int
	TabURL        string
	SelectionText string
}

// Message is a one-shot envelope from a content script or the popup.
type Message struct {
	Envelope models.Envelope
	Sender   models.Sender
}

type Connect struct {
	Port router.Port
}

type PortMessage struct {
	PortID   string
	Envelope models.Envelope
}

type Disconnect struct {
	PortID string
}

func (Installed) Name() string     { return "installed" }
func (TabCreated) Name() string    { return "tabCreated" }
func (TabRemoved) Name() string    { return "tabRemoved" }
func (MenuClicked) Name() string   { return "menuClicked" }
func (m Message) Name() string     { return string(m.Envelope.Event) }
func (Connect) Name() string       { return "connect" }
func (p PortMessage) Name() string { return "port." + string(p.Envelope.Event) }
func (Disconnect) Name() string    { return "disconnect" }

func (m MenuClicked) input() *menuclicked.Input {
	return &menuclicked.Input{
		MenuItemID:    m.MenuItemID,
		TabID:         m.TabID,
		TabURL:        m.TabURL,
		SelectionText: m.SelectionText,
	}
}
