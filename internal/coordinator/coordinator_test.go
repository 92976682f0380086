package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"jtracker-hub/internal/common/config"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/menu"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type sent struct {
	TabID int
	Msg   models.Message
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeMessenger) SendToTab(_ context.Context, tabID int, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{TabID: tabID, Msg: msg})
	return nil
}

func (f *fakeMessenger) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

type fakeEnumerator struct {
	ids []int
}

func (f fakeEnumerator) QueryTabs(context.Context) ([]int, error) {
	return f.ids, nil
}

type fakePort struct {
	id      string
	sender  models.Sender
	replies chan models.Message
}

func newFakePort(id string, sender models.Sender) *fakePort {
	return &fakePort{id: id, sender: sender, replies: make(chan models.Message, 8)}
}

func (p *fakePort) ID() string            { return p.id }
func (p *fakePort) Sender() models.Sender { return p.sender }
func (p *fakePort) Post(_ context.Context, msg models.Message) error {
	p.replies <- msg
	return nil
}

type gatedStore struct {
	store.Store
	gate chan struct{}
}

func (g *gatedStore) Update(ctx context.Context, key models.Key, fn store.UpdateFunc) error {
	<-g.gate
	return g.Store.Update(ctx, key, fn)
}

// slowStore holds back every write except a JSON null, so a later null write
// would overtake an earlier one if the two ran concurrently.
type slowStore struct {
	store.Store
	delay time.Duration
}

func (s *slowStore) Set(ctx context.Context, values store.Values) error {
	time.Sleep(s.delay)
	return s.Store.Set(ctx, values)
}

func (s *slowStore) Update(ctx context.Context, key models.Key, fn store.UpdateFunc) error {
	return s.Store.Update(ctx, key, func(old json.RawMessage) (json.RawMessage, error) {
		next, err := fn(old)
		if err == nil && string(next) != "null" {
			time.Sleep(s.delay)
		}
		return next, err
	})
}

// ==========================
// Test Helpers
// ==========================

type harness struct {
	coord     *Coordinator
	store     store.Store
	native    *menu.Recorder
	messenger *fakeMessenger
	stop      func()
}

func testConfig() *config.Config {
	return &config.Config{Hub: config.HubConfig{QueueSize: 32}}
}

func start(t *testing.T, cfg *config.Config, s store.Store, tabIDs ...int) *harness {
	t.Helper()
	h := &harness{
		store:     s,
		native:    menu.NewRecorder(),
		messenger: &fakeMessenger{},
	}
	coord, err := New(cfg, Deps{
		Store:      s,
		Native:     h.native,
		Messenger:  h.messenger,
		Enumerator: fakeEnumerator{ids: tabIDs},
	}, logger.NewTestLogger(t))
	require.NoError(t, err)
	h.coord = coord

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- coord.Run(ctx) }()

	var once sync.Once
	h.stop = func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	t.Cleanup(h.stop)
	return h
}

var barrierSeq int

// barrier returns once every previously submitted event has been handled.
func (h *harness) barrier(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	barrierSeq++
	port := newFakePort(fmt.Sprintf("barrier-%d", barrierSeq), models.Sender{})
	require.NoError(t, h.coord.OnConnect(ctx, port))
	require.NoError(t, h.coord.OnPortMessage(ctx, port.id, models.Envelope{Event: models.EventGetTabID}))
	select {
	case <-port.replies:
	case <-time.After(2 * time.Second):
		t.Fatal("event loop did not reach the barrier")
	}
	require.NoError(t, h.coord.OnDisconnect(ctx, port.id))
}

func (h *harness) drain(t *testing.T) {
	t.Helper()
	h.barrier(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.coord.Drain(ctx))
}

func message(t *testing.T, event models.EventType, data interface{}) models.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return models.Envelope{Event: event, Data: raw}
}

func menuIDs(h *harness) []menu.ItemID {
	return menu.IDs(h.native.Items())
}

// ==========================
// End-to-end Flow
// ==========================

func TestCoordinator_ApplicationLifecycle(t *testing.T) {
	ctx := context.Background()
	h := start(t, testConfig(), store.NewMemoryStore(), 1, 2)

	// Install seeds the document and the tab snapshot.
	require.NoError(t, h.coord.OnInstalled(ctx, "install"))
	h.drain(t)
	assert.Equal(t, []menu.ItemID{menu.ItemStartApplication}, menuIDs(h))
	list, err := h.coord.Tabs().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CurrentTab{models.NewCurrentTab(1), models.NewCurrentTab(2)}, list)

	// Tabs come and go.
	require.NoError(t, h.coord.OnTabCreated(ctx, 3))
	require.NoError(t, h.coord.OnTabRemoved(ctx, 1))
	h.drain(t)
	list, err = h.coord.Tabs().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CurrentTab{models.NewCurrentTab(2), models.NewCurrentTab(3)}, list)

	// Start from a selection on tab 2.
	tab2 := 2
	require.NoError(t, h.coord.OnMenuClicked(ctx, MenuClicked{
		MenuItemID:    string(menu.ItemStartApplication),
		TabID:         &tab2,
		TabURL:        "https://jobs.example/7",
		SelectionText: "Backend Engineer",
	}))
	h.drain(t)
	assert.Equal(t, []sent{
		{2, models.StartApplication{URL: "https://jobs.example/7", Title: "Backend Engineer"}},
		{2, models.OpenWindow{Page: 0}},
	}, h.messenger.all())
	tab, _, err := h.coord.Tabs().Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, tab.ToggleIsOn)

	// The content script reports the draft; an open question enables add-answer.
	draft := models.Application{
		ID:      "app-7",
		Company: "Acme",
		Link:    "https://jobs.example/7",
		Stage:   models.StageApplied,
		Application: models.ApplicationStage{Questions: []models.Question{
			{ID: "q1", Question: "Why Acme?"},
		}},
		Interviews: []models.Interview{},
	}
	require.NoError(t, h.coord.OnMessage(ctx, message(t, models.EventSetApplicationInProgress, draft), models.TabSender(2, "")))
	h.drain(t)
	assert.Equal(t, []menu.ItemID{menu.ItemAddQuestion, menu.ItemAddAnswer}, menuIDs(h))

	stored, _, err := store.GetAs[*models.Application](ctx, h.store, models.KeyApplicationInProgress)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Company)

	// Completion appends, resets the tab and the menu.
	draft.Application.Questions = append(draft.Application.Questions, models.Question{ID: "q2"})
	require.NoError(t, h.coord.OnMessage(ctx, message(t, models.EventCompleteApplication, models.CompleteApplication{
		NewApplication: draft,
		TabID:          2,
	}), models.TabSender(2, "")))
	h.drain(t)

	assert.Equal(t, []menu.ItemID{menu.ItemStartApplication}, menuIDs(h))
	apps, _, err := store.GetAs[[]models.Application](ctx, h.store, models.KeyApplications)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Len(t, apps[0].Application.Questions, 1)
	tab, _, err = h.coord.Tabs().Get(ctx, 2)
	require.NoError(t, err)
	assert.False(t, tab.ToggleIsOn)

	msgs := h.messenger.all()
	assert.Equal(t, sent{2, models.ResetWindow{}}, msgs[len(msgs)-1])
	assert.Equal(t, 0, h.coord.Pending())
}

// ==========================
// Ports
// ==========================

func TestCoordinator_GetTabIDUsesPortSender(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, store.SetAs(ctx, s, models.KeyCurrentTabs, []models.CurrentTab{models.NewCurrentTab(1)}))
	h := start(t, testConfig(), s)

	port := newFakePort("content-55", models.TabSender(55, "https://jobs.example"))
	require.NoError(t, h.coord.OnConnect(ctx, port))
	require.NoError(t, h.coord.OnPortMessage(ctx, port.id, models.Envelope{Event: models.EventGetTabID}))

	select {
	case reply := <-port.replies:
		got, ok := reply.(models.GetTabID)
		require.True(t, ok)
		require.NotNil(t, got.TabID)
		assert.Equal(t, 55, *got.TabID)
	case <-time.After(2 * time.Second):
		t.Fatal("no getTabId reply")
	}
}

// ==========================
// Robustness
// ==========================

func TestCoordinator_BadEnvelopesDoNotStopTheLoop(t *testing.T) {
	ctx := context.Background()
	h := start(t, testConfig(), store.NewMemoryStore())

	require.NoError(t, h.coord.OnMessage(ctx, models.Envelope{Event: "selfDestruct"}, models.Sender{}))
	require.NoError(t, h.coord.OnMessage(ctx, models.Envelope{Event: models.EventCompleteApplication, Data: json.RawMessage(`"nope"`)}, models.Sender{}))
	require.NoError(t, h.coord.OnMessage(ctx, models.Envelope{Event: models.EventOpenWindow, Data: json.RawMessage(`{"page":1}`)}, models.Sender{}))
	require.NoError(t, h.coord.OnMessage(ctx, message(t, models.EventToggleWindow, true), models.TabSender(1, "")))
	require.NoError(t, h.coord.OnPortMessage(ctx, "ghost", models.Envelope{Event: models.EventGetTabID}))
	require.NoError(t, h.coord.OnMenuClicked(ctx, MenuClicked{MenuItemID: string(menu.ItemAddQuestion)}))

	require.NoError(t, h.coord.OnTabCreated(ctx, 4))
	h.drain(t)

	list, err := h.coord.Tabs().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CurrentTab{models.NewCurrentTab(4)}, list)
	assert.Empty(t, h.messenger.all())
}

func TestCoordinator_DisabledHandlerIsDeclared(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Handlers = map[string]config.HandlerConfig{
		"complete-application": {Enabled: false},
		"tab-created":          {Enabled: false},
	}
	h := start(t, cfg, store.NewMemoryStore())

	require.NoError(t, h.coord.OnTabCreated(ctx, 9))
	require.NoError(t, h.coord.OnMessage(ctx, message(t, models.EventCompleteApplication, models.CompleteApplication{TabID: 9}), models.Sender{}))
	h.drain(t)

	values, err := h.store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Empty(t, h.messenger.all())
}

// ==========================
// Write Ordering
// ==========================

func TestCoordinator_DraftThenNullStoresNull(t *testing.T) {
	ctx := context.Background()
	h := start(t, testConfig(), &slowStore{Store: store.NewMemoryStore(), delay: 50 * time.Millisecond})

	draft := models.Application{ID: "app-1", Company: "Acme", Interviews: []models.Interview{}}
	require.NoError(t, h.coord.OnMessage(ctx, message(t, models.EventSetApplicationInProgress, draft), models.TabSender(1, "")))
	require.NoError(t, h.coord.OnMessage(ctx, models.Envelope{Event: models.EventSetApplicationInProgress, Data: json.RawMessage(`null`)}, models.TabSender(1, "")))
	h.drain(t)

	stored, ok, err := store.GetAs[*models.Application](ctx, h.store, models.KeyApplicationInProgress)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, stored)
	assert.Equal(t, []menu.ItemID{menu.ItemStartApplication}, menuIDs(h))
}

func TestCoordinator_InstallThenDraftKeepsDraft(t *testing.T) {
	ctx := context.Background()
	h := start(t, testConfig(), &slowStore{Store: store.NewMemoryStore(), delay: 50 * time.Millisecond}, 1)

	require.NoError(t, h.coord.OnInstalled(ctx, "install"))
	draft := models.Application{ID: "app-2", Company: "Globex", Interviews: []models.Interview{}}
	require.NoError(t, h.coord.OnMessage(ctx, message(t, models.EventSetApplicationInProgress, draft), models.TabSender(1, "")))
	h.drain(t)

	stored, _, err := store.GetAs[*models.Application](ctx, h.store, models.KeyApplicationInProgress)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Globex", stored.Company)
}

func TestCoordinator_InstallThenTabCreatedKeepsTab(t *testing.T) {
	ctx := context.Background()
	h := start(t, testConfig(), &slowStore{Store: store.NewMemoryStore(), delay: 50 * time.Millisecond}, 1)

	require.NoError(t, h.coord.OnInstalled(ctx, "install"))
	require.NoError(t, h.coord.OnTabCreated(ctx, 2))
	h.drain(t)

	list, err := h.coord.Tabs().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CurrentTab{models.NewCurrentTab(1), models.NewCurrentTab(2)}, list)
}

// ==========================
// Side-effect Policy
// ==========================

func TestCoordinator_SideEffectsDoNotBlockTheLoop(t *testing.T) {
	ctx := context.Background()
	gated := &gatedStore{Store: store.NewMemoryStore(), gate: make(chan struct{})}
	h := start(t, testConfig(), gated)

	require.NoError(t, h.coord.OnMessage(ctx, message(t, models.EventCompleteApplication, models.CompleteApplication{
		NewApplication: models.Application{ID: "a"},
		TabID:          3,
	}), models.TabSender(3, "")))
	h.barrier(t)

	// The menu reset happened and the loop moved on while the commit waits.
	assert.Equal(t, []menu.ItemID{menu.ItemStartApplication}, menuIDs(h))
	assert.Equal(t, 1, h.coord.Pending())
	assert.Empty(t, h.messenger.all())

	close(gated.gate)
	h.drain(t)
	assert.Equal(t, []sent{{3, models.ResetWindow{}}}, h.messenger.all())
}

func TestCoordinator_AwaitSideEffects(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Hub.AwaitSideEffects = true
	gated := &gatedStore{Store: store.NewMemoryStore(), gate: make(chan struct{})}
	h := start(t, cfg, gated)

	require.NoError(t, h.coord.OnMessage(ctx, message(t, models.EventCompleteApplication, models.CompleteApplication{
		NewApplication: models.Application{ID: "a"},
		TabID:          3,
	}), models.TabSender(3, "")))

	port := newFakePort("next-event", models.TabSender(3, ""))
	require.NoError(t, h.coord.OnConnect(ctx, port))
	require.NoError(t, h.coord.OnPortMessage(ctx, port.id, models.Envelope{Event: models.EventGetTabID}))

	select {
	case <-port.replies:
		t.Fatal("loop processed the next event before the commit finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(gated.gate)
	select {
	case <-port.replies:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not resume after the commit")
	}
	assert.Equal(t, []sent{{3, models.ResetWindow{}}}, h.messenger.all())
}

// ==========================
// Lifecycle
// ==========================

func TestCoordinator_SubmitAfterStop(t *testing.T) {
	h := start(t, testConfig(), store.NewMemoryStore())
	h.stop()
	assert.ErrorIs(t, h.coord.OnTabCreated(context.Background(), 1), ErrStopped)
	assert.Error(t, h.coord.Run(context.Background()), "a coordinator runs once")
}

func TestCoordinator_DrainTimesOut(t *testing.T) {
	ctx := context.Background()
	gated := &gatedStore{Store: store.NewMemoryStore(), gate: make(chan struct{})}
	h := start(t, testConfig(), gated)

	require.NoError(t, h.coord.OnMessage(ctx, message(t, models.EventCompleteApplication, models.CompleteApplication{TabID: 1}), models.Sender{}))
	h.barrier(t)
	h.stop()

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := h.coord.Drain(short)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 tasks still pending")

	close(gated.gate)
	long, cancelLong := context.WithTimeout(ctx, 2*time.Second)
	defer cancelLong()
	require.NoError(t, h.coord.Drain(long))
}
