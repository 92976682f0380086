// internal/bridge/frame.go
package bridge

import (
	"jtracker-hub/internal/menu"
	"jtracker-hub/internal/models"
)

// Kind tags a bridge frame.
type Kind string

// Shim to hub.
const (
	KindInstalled       Kind = "installed"
	KindTabCreated      Kind = "tabCreated"
	KindTabRemoved      Kind = "tabRemoved"
	KindMenuClicked     Kind = "menuClicked"
	KindMessage         Kind = "message"
	KindConnect         Kind = "connect"
	KindPortMessage     Kind = "portMessage"
	KindDisconnect      Kind = "disconnect"
	KindTabsQueryResult Kind = "tabsQueryResult"
)

// Hub to shim.
const (
	KindSendToTab     Kind = "sendToTab"
	KindPortPost      Kind = "portPost"
	KindMenuRemoveAll Kind = "menuRemoveAll"
	KindMenuCreate    Kind = "menuCreate"
	KindTabsQuery     Kind = "tabsQuery"
)

// Frame is one JSON text message on the bridge socket. Which fields are set
// depends on Kind.
type Frame struct {
	Kind Kind `json:"kind"`

	TabID         *int   `json:"tabId,omitempty"`
	TabURL        string `json:"tabUrl,omitempty"`
	MenuItemID    string `json:"menuItemId,omitempty"`
	SelectionText string `json:"selectionText,omitempty"`
	Reason        string `json:"reason,omitempty"`

	Sender  *models.Sender   `json:"sender,omitempty"`
	Message *models.Envelope `json:"message,omitempty"`
	PortID  string           `json:"portId,omitempty"`

	RequestID string `json:"requestId,omitempty"`
	TabIDs    []int  `json:"tabIds,omitempty"`

	Item *menu.Item `json:"item,omitempty"`
}
