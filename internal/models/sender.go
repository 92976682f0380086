// internal/models/sender.go
package models

// Sender describes the context a message or port originates from. TabID is
// nil for contexts without a tab such as the popup.
type Sender struct {
	TabID *int   `json:"tabId,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Tab returns the sender's tab id and whether one is present.
func (s Sender) Tab() (int, bool) {
	if s.TabID == nil {
		return 0, false
	}
	return *s.TabID, true
}

// TabSender is a convenience constructor for a sender bound to a tab.
func TabSender(tabID int, url string) Sender {
	return Sender{TabID: &tabID, URL: url}
}
