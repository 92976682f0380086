// internal/coordinator/coordinator.go
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"jtracker-hub/internal/common/config"
	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/common/metrics"
	"jtracker-hub/internal/common/observability"
	"jtracker-hub/internal/common/validation"
	"jtracker-hub/internal/menu"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/router"
	"jtracker-hub/internal/store"
	"jtracker-hub/internal/tabs"
	"jtracker-hub/internal/workers"
	completeapplication "jtracker-hub/internal/workers/application/complete-application"
	setapplicationinprogress "jtracker-hub/internal/workers/application/set-application-in-progress"
	"jtracker-hub/internal/workers/lifecycle/install"
	menuclicked "jtracker-hub/internal/workers/menu/menu-clicked"
	tabcreated "jtracker-hub/internal/workers/tabs/tab-created"
	tabremoved "jtracker-hub/internal/workers/tabs/tab-removed"
)

// ErrStopped is returned by Submit once the loop has exited.
var ErrStopped = errors.New("coordinator stopped")

const sourceBrowser = "browser"

// Deps are the collaborators the coordinator composes its flows from.
// Archiver, Validator and Observability are optional.
type Deps struct {
	Store         store.Store
	Native        menu.Native
	Messenger     workers.TabMessenger
	Enumerator    workers.TabEnumerator
	Archiver      workers.Archiver
	Validator     *validation.Validator
	Observability *observability.Observability
}

// Coordinator serializes browser events onto a single loop. Each event is
// handled to completion before the next is taken; the asynchronous tasks a
// handler returns keep running while later events are processed, unless
// AwaitSideEffects is set. Every task that writes the store goes through one
// queue, so writes land in the order their events arrived.
type Coordinator struct {
	store    store.Store
	tabs     *tabs.Registry
	menu     *menu.Machine
	router   *router.Router
	tasks    *router.Queue
	errors   *commonerrors.ErrorHandler
	log      logger.Logger
	awaitAll bool

	install     *install.Handler
	tabCreated  *tabcreated.Handler
	tabRemoved  *tabremoved.Handler
	menuClicked *menuclicked.Handler

	queue   chan Event
	stopped chan struct{}
	running atomic.Bool

	pending      sync.WaitGroup
	pendingCount atomic.Int64
}

// New wires every flow and validates the dispatch table.
func New(cfg *config.Config, deps Deps, log logger.Logger) (*Coordinator, error) {
	log = log.WithFields(map[string]interface{}{"component": "coordinator"})

	registry := tabs.NewRegistry(deps.Store)
	machine := menu.NewMachine(deps.Native, log)

	var opts []router.Option
	if deps.Validator != nil {
		opts = append(opts, router.WithValidator(deps.Validator))
	}
	if deps.Observability != nil {
		opts = append(opts, router.WithObservability(deps.Observability))
	}
	r := router.New(log, opts...)

	tasks := router.NewQueue()

	queueSize := cfg.Hub.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}

	c := &Coordinator{
		store:    deps.Store,
		tabs:     registry,
		menu:     machine,
		router:   r,
		tasks:    tasks,
		errors:   commonerrors.NewErrorHandler(log, metrics.Recorder{}),
		log:      log,
		awaitAll: cfg.Hub.AwaitSideEffects,
		queue:    make(chan Event, queueSize),
		stopped:  make(chan struct{}),
	}

	if conf := install.LoadConfig(cfg); conf.Enabled {
		c.install = install.NewHandler(conf, deps.Store, registry, deps.Enumerator, machine, tasks, log)
	}
	if conf := tabcreated.LoadConfig(cfg); conf.Enabled {
		c.tabCreated = tabcreated.NewHandler(conf, registry, log)
	}
	if conf := tabremoved.LoadConfig(cfg); conf.Enabled {
		c.tabRemoved = tabremoved.NewHandler(conf, registry, log)
	}
	if conf := menuclicked.LoadConfig(cfg); conf.Enabled {
		c.menuClicked = menuclicked.NewHandler(conf, registry, deps.Messenger, log)
	}

	if conf := setapplicationinprogress.LoadConfig(cfg); conf.Enabled {
		h := setapplicationinprogress.NewHandler(conf, deps.Store, machine, tasks, log)
		if err := r.Register(models.EventSetApplicationInProgress, h); err != nil {
			return nil, err
		}
	} else {
		r.Declare(models.EventSetApplicationInProgress, "disabled by configuration")
	}
	if conf := completeapplication.LoadConfig(cfg); conf.Enabled {
		h := completeapplication.NewHandler(conf, deps.Store, registry, machine, deps.Messenger, deps.Archiver, tasks, log)
		if err := r.Register(models.EventCompleteApplication, h); err != nil {
			return nil, err
		}
	} else {
		r.Declare(models.EventCompleteApplication, "disabled by configuration")
	}

	// The popup and content scripts own these toggles through the shared
	// document; the hub only acknowledges them.
	r.Declare(models.EventShouldEnableToggle, "toggle state is written by the popup")
	r.Declare(models.EventToggleWindow, "window visibility is local to the content script")
	r.Declare(models.EventUpdateTab, "tab updates are written by the popup")

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispatch table: %w", err)
	}
	return c, nil
}

func (c *Coordinator) Store() store.Store     { return c.store }
func (c *Coordinator) Tabs() *tabs.Registry   { return c.tabs }
func (c *Coordinator) Menu() *menu.Machine    { return c.menu }
func (c *Coordinator) Router() *router.Router { return c.router }

// Pending returns the number of side-effect tasks still in flight.
func (c *Coordinator) Pending() int {
	return int(c.pendingCount.Load())
}

// Submit queues ev for processing. It blocks while the queue is full.
func (c *Coordinator) Submit(ctx context.Context, ev Event) error {
	select {
	case <-c.stopped:
		return ErrStopped
	default:
	}
	select {
	case c.queue <- ev:
		return nil
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) OnInstalled(ctx context.Context, reason string) error {
	return c.Submit(ctx, Installed{Reason: reason})
}

func (c *Coordinator) OnTabCreated(ctx context.Context, tabID int) error {
	return c.Submit(ctx, TabCreated{TabID: tabID})
}

func (c *Coordinator) OnTabRemoved(ctx context.Context, tabID int) error {
	return c.Submit(ctx, TabRemoved{TabID: tabID})
}

func (c *Coordinator) OnMenuClicked(ctx context.Context, click MenuClicked) error {
	return c.Submit(ctx, click)
}

func (c *Coordinator) OnMessage(ctx context.Context, env models.Envelope, sender models.Sender) error {
	return c.Submit(ctx, Message{Envelope: env, Sender: sender})
}

func (c *Coordinator) OnConnect(ctx context.Context, port router.Port) error {
	return c.Submit(ctx, Connect{Port: port})
}

func (c *Coordinator) OnPortMessage(ctx context.Context, portID string, env models.Envelope) error {
	return c.Submit(ctx, PortMessage{PortID: portID, Envelope: env})
}

func (c *Coordinator) OnDisconnect(ctx context.Context, portID string) error {
	return c.Submit(ctx, Disconnect{PortID: portID})
}

// Run processes queued events in arrival order until ctx is cancelled.
// Handlers and their tasks see a context that outlives ctx so that Drain
// can let in-flight side effects finish.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("coordinator already running")
	}
	defer close(c.stopped)

	base := context.WithoutCancel(ctx)
	c.log.Info("Coordinator started", map[string]interface{}{
		"queueSize":        cap(c.queue),
		"awaitSideEffects": c.awaitAll,
	})

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Coordinator stopping", map[string]interface{}{
				"queued":  len(c.queue),
				"pending": c.Pending(),
			})
			return nil
		case ev := <-c.queue:
			c.process(base, ev)
		}
	}
}

// Drain waits for every side-effect task tracked so far, or for ctx to end.
// It is meant to be called once Run has returned.
func (c *Coordinator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain: %d tasks still pending: %w", c.Pending(), ctx.Err())
	}
}

func (c *Coordinator) process(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			c.errors.HandleEventError(ev.Name(), commonerrors.NewInternalError(fmt.Errorf("panic: %v", r)))
		}
	}()

	task, err := c.handle(ctx, ev)
	if err != nil {
		c.errors.HandleEventError(ev.Name(), err)
	}
	c.track(ctx, ev.Name(), task)
}

func (c *Coordinator) handle(ctx context.Context, ev Event) (*router.Task, error) {
	switch e := ev.(type) {
	case Message:
		return c.router.Dispatch(ctx, e.Envelope, e.Sender)
	case PortMessage:
		return nil, c.router.PortMessage(ctx, e.PortID, e.Envelope)
	}

	start := time.Now()
	defer func() {
		metrics.HubEventDuration.WithLabelValues(ev.Name()).Observe(time.Since(start).Seconds())
		metrics.HubEventsProcessed.WithLabelValues(ev.Name(), sourceBrowser).Inc()
	}()

	switch e := ev.(type) {
	case Installed:
		if c.install == nil {
			return nil, c.skip(ev)
		}
		return c.install.Execute(ctx, &install.Input{Reason: e.Reason})
	// Tab and click flows write currentTabs; they queue behind earlier writes
	// such as the install snapshot.
	case TabCreated:
		if c.tabCreated == nil {
			return nil, c.skip(ev)
		}
		return c.tasks.Go(ctx, tabcreated.TaskType, func(ctx context.Context) error {
			return c.tabCreated.Execute(ctx, &tabcreated.Input{TabID: e.TabID})
		}), nil
	case TabRemoved:
		if c.tabRemoved == nil {
			return nil, c.skip(ev)
		}
		return c.tasks.Go(ctx, tabremoved.TaskType, func(ctx context.Context) error {
			return c.tabRemoved.Execute(ctx, &tabremoved.Input{TabID: e.TabID})
		}), nil
	case MenuClicked:
		if c.menuClicked == nil {
			return nil, c.skip(ev)
		}
		input := e.input()
		return c.tasks.Go(ctx, menuclicked.TaskType, func(ctx context.Context) error {
			_, err := c.menuClicked.Execute(ctx, input)
			return err
		}), nil
	case Connect:
		c.router.Ports().Connect(e.Port)
		return nil, nil
	case Disconnect:
		c.router.Ports().Disconnect(e.PortID)
		return nil, nil
	default:
		return nil, commonerrors.NewInternalError(fmt.Errorf("unsupported event type %T", ev))
	}
}

func (c *Coordinator) skip(ev Event) error {
	c.log.Debug("Handler disabled, event skipped", map[string]interface{}{"event": ev.Name()})
	return nil
}

// track accounts for task until it finishes and reports its failure. With
// awaitAll the loop blocks here until the task is done.
func (c *Coordinator) track(ctx context.Context, event string, task *router.Task) {
	if task == nil {
		return
	}

	c.pending.Add(1)
	c.pendingCount.Add(1)
	metrics.HubPendingTasks.Inc()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		<-task.Done()
		if err := task.Err(); err != nil {
			c.errors.HandleEventError(event, err)
		}
		metrics.HubPendingTasks.Dec()
		c.pendingCount.Add(-1)
		c.pending.Done()
	}()

	if c.awaitAll {
		select {
		case <-finished:
		case <-ctx.Done():
		}
	}
}
