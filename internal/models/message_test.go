// internal/models/message_test.go
package models

import (
	"encoding/json"
	"testing"

	commonerrors "jtracker-hub/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_AllEvents(t *testing.T) {
	tabID := 42
	app := &Application{ID: "a1", Company: "Acme", Stage: StageApplied}

	tests := []struct {
		name string
		raw  string
		want Message
	}{
		{"startApplication", `{"event":"startApplication","data":{"url":"https://jobs.example","title":"SRE"}}`, StartApplication{URL: "https://jobs.example", Title: "SRE"}},
		{"addQuestion", `{"event":"addQuestion","data":"Why us?"}`, AddQuestion{SelectionText: "Why us?"}},
		{"addAnswer", `{"event":"addAnswer","data":"Because"}`, AddAnswer{SelectionText: "Because"}},
		{"setApplicationInProgress null", `{"event":"setApplicationInProgress","data":null}`, SetApplicationInProgress{}},
		{"setApplicationInProgress draft", `{"event":"setApplicationInProgress","data":{"id":"a1","company":"Acme","stage":"ap"}}`, SetApplicationInProgress{Application: app}},
		{"shouldEnableToggle", `{"event":"shouldEnableToggle","data":42}`, ShouldEnableToggle{TabID: 42}},
		{"toggleWindow", `{"event":"toggleWindow","data":true}`, ToggleWindow{On: true}},
		{"openWindow", `{"event":"openWindow","data":{"page":1}}`, OpenWindow{Page: 1}},
		{"resetWindow", `{"event":"resetWindow","data":null}`, ResetWindow{}},
		{"resetWindow without data", `{"event":"resetWindow"}`, ResetWindow{}},
		{"getTabId request", `{"event":"getTabId","data":null}`, GetTabID{}},
		{"getTabId reply", `{"event":"getTabId","data":42}`, GetTabID{TabID: &tabID}},
		{"updateTab", `{"event":"updateTab","data":7}`, UpdateTab{TabID: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Unmarshal([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestDecode_CompleteApplication(t *testing.T) {
	raw := `{"event":"completeApplication","data":{"tabId":3,"newApplication":{"id":"a1","company":"Acme","link":"","stage":"ap","application":{"date":1700000000000,"questions":[{"id":"q1","question":"Q1","answer":""}],"notes":""},"interviews":[]}}}`

	msg, err := Unmarshal([]byte(raw))
	require.NoError(t, err)

	complete, ok := msg.(CompleteApplication)
	require.True(t, ok)
	assert.Equal(t, 3, complete.TabID)
	assert.Equal(t, int64(1700000000000), complete.NewApplication.Application.Date)
	require.Len(t, complete.NewApplication.Application.Questions, 1)
	assert.Equal(t, "Q1", complete.NewApplication.Application.Questions[0].Question)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code commonerrors.ErrorCode
	}{
		{"unknown tag", `{"event":"launchRockets","data":null}`, commonerrors.ErrCodeUnknownEvent},
		{"empty tag", `{"data":1}`, commonerrors.ErrCodeUnknownEvent},
		{"wrong data type", `{"event":"toggleWindow","data":"yes"}`, commonerrors.ErrCodeInvalidPayload},
		{"null object payload", `{"event":"completeApplication","data":null}`, commonerrors.ErrCodeInvalidPayload},
		{"not json", `{"event":`, commonerrors.ErrCodeInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, commonerrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestEncode_WireShapes(t *testing.T) {
	tabID := 9

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"startApplication", StartApplication{URL: "u", Title: "t"}, `{"event":"startApplication","data":{"url":"u","title":"t"}}`},
		{"addQuestion", AddQuestion{SelectionText: "q"}, `{"event":"addQuestion","data":"q"}`},
		{"openWindow", OpenWindow{Page: 0}, `{"event":"openWindow","data":{"page":0}}`},
		{"resetWindow", ResetWindow{}, `{"event":"resetWindow","data":null}`},
		{"getTabId reply", GetTabID{TabID: &tabID}, `{"event":"getTabId","data":9}`},
		{"cleared draft", SetApplicationInProgress{}, `{"event":"setApplicationInProgress","data":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Marshal(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestEventMetadata(t *testing.T) {
	assert.Len(t, AllEvents, 11)
	for _, e := range AllEvents {
		assert.True(t, e.Known(), e)
	}

	assert.ElementsMatch(t, []EventType{
		EventSetApplicationInProgress,
		EventCompleteApplication,
		EventShouldEnableToggle,
		EventToggleWindow,
		EventUpdateTab,
	}, InboundMessageEvents())

	assert.Equal(t, TransportPort, EventGetTabID.Transport())
	assert.Equal(t, DirectionToTab, EventResetWindow.Direction())
}

func TestDocument_FieldsRoundTrip(t *testing.T) {
	viewing := "a1"
	doc := Document{
		Applications:         []Application{{ID: "a1", Company: "Acme"}},
		ViewingApplicationID: &viewing,
		URLs:                 []string{"https://jobs.example"},
		CurrentTabs:          []CurrentTab{{ID: 1, ToggleIsOn: true}},
	}

	fields, err := doc.Fields()
	require.NoError(t, err)
	assert.Len(t, fields, len(AllKeys))
	assert.JSONEq(t, `null`, string(fields[KeyApplicationInProgress]))

	back, err := DocumentFromFields(fields)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestDefaultDocument_Shape(t *testing.T) {
	raw, err := json.Marshal(DefaultDocument())
	require.NoError(t, err)
	assert.JSONEq(t, `{"applications":[],"viewingApplicationId":null,"urls":[],"applicationInProgress":null,"currentTabs":[]}`, string(raw))
}

func TestApplication_WithoutBlankQuestions(t *testing.T) {
	app := Application{
		ID: "a1",
		Application: ApplicationStage{Questions: []Question{
			{ID: "1", Question: "Q1", Answer: ""},
			{ID: "2", Question: "", Answer: "A2"},
		}},
	}

	cleaned := app.WithoutBlankQuestions()

	assert.Equal(t, []Question{{ID: "1", Question: "Q1", Answer: ""}}, cleaned.Application.Questions)
	assert.Len(t, app.Application.Questions, 2, "original must not be mutated")
	assert.NotNil(t, cleaned.Interviews)
}

func TestApplication_FirstIncompleteQuestion(t *testing.T) {
	var nilApp *Application
	_, ok := nilApp.FirstIncompleteQuestion()
	assert.False(t, ok)

	app := &Application{Application: ApplicationStage{Questions: []Question{
		{Question: "done", Answer: "yes"},
		{Question: "", Answer: ""},
		{Question: "open", Answer: ""},
	}}}
	q, ok := app.FirstIncompleteQuestion()
	require.True(t, ok)
	assert.Equal(t, "", q.Question)
}
