// internal/models/message.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	commonerrors "jtracker-hub/internal/common/errors"
)

// EventType is the discriminating tag of a message envelope.
type EventType string

const (
	EventStartApplication         EventType = "startApplication"
	EventAddQuestion              EventType = "addQuestion"
	EventAddAnswer                EventType = "addAnswer"
	EventSetApplicationInProgress EventType = "setApplicationInProgress"
	EventCompleteApplication      EventType = "completeApplication"
	EventShouldEnableToggle       EventType = "shouldEnableToggle"
	EventToggleWindow             EventType = "toggleWindow"
	EventOpenWindow               EventType = "openWindow"
	EventResetWindow              EventType = "resetWindow"
	EventGetTabID                 EventType = "getTabId"
	EventUpdateTab                EventType = "updateTab"
)

// Direction says which side of the hub produces an event.
type Direction string

const (
	DirectionToTab Direction = "hub->tab"
	DirectionToHub Direction = "tab->hub"
)

// Transport says whether an event travels as a one-shot message or over a
// persistent port.
type Transport string

const (
	TransportMessage Transport = "message"
	TransportPort    Transport = "port"
)

type eventInfo struct {
	direction Direction
	transport Transport
}

var events = map[EventType]eventInfo{
	EventStartApplication:         {DirectionToTab, TransportMessage},
	EventAddQuestion:              {DirectionToTab, TransportMessage},
	EventAddAnswer:                {DirectionToTab, TransportMessage},
	EventSetApplicationInProgress: {DirectionToHub, TransportMessage},
	EventCompleteApplication:      {DirectionToHub, TransportMessage},
	EventShouldEnableToggle:       {DirectionToHub, TransportMessage},
	EventToggleWindow:             {DirectionToHub, TransportMessage},
	EventOpenWindow:               {DirectionToTab, TransportMessage},
	EventResetWindow:              {DirectionToTab, TransportMessage},
	EventGetTabID:                 {DirectionToHub, TransportPort},
	EventUpdateTab:                {DirectionToHub, TransportMessage},
}

// AllEvents lists the closed set of event tags.
var AllEvents = []EventType{
	EventStartApplication,
	EventAddQuestion,
	EventAddAnswer,
	EventSetApplicationInProgress,
	EventCompleteApplication,
	EventShouldEnableToggle,
	EventToggleWindow,
	EventOpenWindow,
	EventResetWindow,
	EventGetTabID,
	EventUpdateTab,
}

func (e EventType) Known() bool {
	_, ok := events[e]
	return ok
}

func (e EventType) Direction() Direction {
	return events[e].direction
}

func (e EventType) Transport() Transport {
	return events[e].transport
}

// InboundMessageEvents returns the tags the hub consumes as one-shot messages.
func InboundMessageEvents() []EventType {
	var out []EventType
	for _, e := range AllEvents {
		if e.Direction() == DirectionToHub && e.Transport() == TransportMessage {
			out = append(out, e)
		}
	}
	return out
}

// Message is the closed sum type of envelope payloads. Only types in this
// package implement it.
type Message interface {
	Event() EventType
	data() interface{}
}

type StartApplication struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type AddQuestion struct {
	SelectionText string
}

type AddAnswer struct {
	SelectionText string
}

// SetApplicationInProgress carries the current draft, nil when cleared.
type SetApplicationInProgress struct {
	Application *Application
}

type CompleteApplication struct {
	NewApplication Application `json:"newApplication"`
	TabID          int         `json:"tabId"`
}

type ShouldEnableToggle struct {
	TabID int
}

type ToggleWindow struct {
	On bool
}

type OpenWindow struct {
	Page int `json:"page"`
}

type ResetWindow struct{}

// GetTabID is both the port request (TabID nil) and its reply.
type GetTabID struct {
	TabID *int
}

type UpdateTab struct {
	TabID int
}

func (StartApplication) Event() EventType         { return EventStartApplication }
func (AddQuestion) Event() EventType              { return EventAddQuestion }
func (AddAnswer) Event() EventType                { return EventAddAnswer }
func (SetApplicationInProgress) Event() EventType { return EventSetApplicationInProgress }
func (CompleteApplication) Event() EventType      { return EventCompleteApplication }
func (ShouldEnableToggle) Event() EventType       { return EventShouldEnableToggle }
func (ToggleWindow) Event() EventType             { return EventToggleWindow }
func (OpenWindow) Event() EventType               { return EventOpenWindow }
func (ResetWindow) Event() EventType              { return EventResetWindow }
func (GetTabID) Event() EventType                 { return EventGetTabID }
func (UpdateTab) Event() EventType                { return EventUpdateTab }

func (m StartApplication) data() interface{}         { return m }
func (m AddQuestion) data() interface{}              { return m.SelectionText }
func (m AddAnswer) data() interface{}                { return m.SelectionText }
func (m SetApplicationInProgress) data() interface{} { return m.Application }
func (m CompleteApplication) data() interface{}      { return m }
func (m ShouldEnableToggle) data() interface{}       { return m.TabID }
func (m ToggleWindow) data() interface{}             { return m.On }
func (m OpenWindow) data() interface{}               { return m }
func (m ResetWindow) data() interface{}              { return nil }
func (m GetTabID) data() interface{}                 { return m.TabID }
func (m UpdateTab) data() interface{}                { return m.TabID }

// Envelope is the wire form `{event, data}` shared by every transport.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode wraps a typed message into its envelope.
func Encode(m Message) (Envelope, error) {
	raw, err := json.Marshal(m.data())
	if err != nil {
		return Envelope{}, commonerrors.NewInvalidPayloadError(string(m.Event()), err)
	}
	return Envelope{Event: m.Event(), Data: raw}, nil
}

// Marshal encodes m straight to envelope JSON.
func Marshal(m Message) ([]byte, error) {
	env, err := Encode(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode converts an envelope into its typed message. Unknown tags yield an
// UNKNOWN_EVENT error and shape mismatches an INVALID_PAYLOAD error.
func Decode(env Envelope) (Message, error) {
	if !env.Event.Known() {
		return nil, commonerrors.NewUnknownEventError(string(env.Event))
	}

	data := env.Data
	if len(bytes.TrimSpace(data)) == 0 {
		data = json.RawMessage("null")
	}

	var (
		msg Message
		err error
	)
	switch env.Event {
	case EventStartApplication:
		var m StartApplication
		err = unmarshalObject(data, &m)
		msg = m
	case EventAddQuestion:
		var m AddQuestion
		err = json.Unmarshal(data, &m.SelectionText)
		msg = m
	case EventAddAnswer:
		var m AddAnswer
		err = json.Unmarshal(data, &m.SelectionText)
		msg = m
	case EventSetApplicationInProgress:
		var m SetApplicationInProgress
		err = json.Unmarshal(data, &m.Application)
		msg = m
	case EventCompleteApplication:
		var m CompleteApplication
		err = unmarshalObject(data, &m)
		msg = m
	case EventShouldEnableToggle:
		var m ShouldEnableToggle
		err = json.Unmarshal(data, &m.TabID)
		msg = m
	case EventToggleWindow:
		var m ToggleWindow
		err = json.Unmarshal(data, &m.On)
		msg = m
	case EventOpenWindow:
		var m OpenWindow
		err = unmarshalObject(data, &m)
		msg = m
	case EventResetWindow:
		msg = ResetWindow{}
	case EventGetTabID:
		var m GetTabID
		err = json.Unmarshal(data, &m.TabID)
		msg = m
	case EventUpdateTab:
		var m UpdateTab
		err = json.Unmarshal(data, &m.TabID)
		msg = m
	default:
		return nil, commonerrors.NewHandlerNotRegisteredError(string(env.Event))
	}

	if err != nil {
		return nil, commonerrors.NewInvalidPayloadError(string(env.Event), err)
	}
	return msg, nil
}

// Unmarshal decodes envelope JSON straight to a typed message.
func Unmarshal(raw []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, commonerrors.NewInvalidPayloadError("", err)
	}
	return Decode(env)
}

func unmarshalObject(data json.RawMessage, target interface{}) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("expected object, got null")
	}
	return json.Unmarshal(data, target)
}
