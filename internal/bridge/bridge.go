// internal/bridge/bridge.go
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"jtracker-hub/internal/common/config"
	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/common/metrics"
	"jtracker-hub/internal/coordinator"
	"jtracker-hub/internal/menu"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/router"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub receives the browser callbacks forwarded by the shim.
type Hub interface {
	OnInstalled(ctx context.Context, reason string) error
	OnTabCreated(ctx context.Context, tabID int) error
	OnTabRemoved(ctx context.Context, tabID int) error
	OnMenuClicked(ctx context.Context, click coordinator.MenuClicked) error
	OnMessage(ctx context.Context, env models.Envelope, sender models.Sender) error
	OnConnect(ctx context.Context, port router.Port) error
	OnPortMessage(ctx context.Context, portID string, env models.Envelope) error
	OnDisconnect(ctx context.Context, portID string) error
}

// Bridge is the WebSocket link to the extension shim. Inbound frames become
// Hub calls; outbound it implements the tab messenger, the native menu and
// the tab enumerator. At most one shim is connected; a new connection
// replaces the old one.
type Bridge struct {
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	queryTimeout time.Duration
	log          logger.Logger

	mu   sync.Mutex
	hub  Hub
	conn *shimConn

	queriesMu sync.Mutex
	queries   map[string]chan []int
}

type shimConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	portsMu sync.Mutex
	ports   map[string]struct{}
}

func New(cfg *config.Config, log logger.Logger) *Bridge {
	b := &Bridge{
		writeTimeout: config.GetDuration(cfg.Hub.BridgeWriteTimeout),
		queryTimeout: config.GetDuration(cfg.Hub.TabsQueryTimeout),
		log:          log.WithFields(map[string]interface{}{"component": "bridge"}),
		queries:      make(map[string]chan []int),
	}
	allowed := make(map[string]struct{}, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
	return b
}

// Attach sets the receiver of inbound frames.
func (b *Bridge) Attach(h Hub) {
	b.mu.Lock()
	b.hub = h
	b.mu.Unlock()
}

// Connected reports whether a shim is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// ServeHTTP upgrades the request and serves the shim until it disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("Bridge upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	c := &shimConn{ws: ws, ports: make(map[string]struct{})}
	b.mu.Lock()
	previous := b.conn
	b.conn = c
	b.mu.Unlock()
	if previous != nil {
		b.log.Info("Replacing bridge connection", nil)
		_ = previous.ws.Close()
	}
	metrics.HubBridgeConnected.Set(1)
	b.log.Info("Bridge connected", map[string]interface{}{"remote": r.RemoteAddr})

	b.readLoop(r.Context(), c)

	b.mu.Lock()
	if b.conn == c {
		b.conn = nil
		metrics.HubBridgeConnected.Set(0)
	}
	b.mu.Unlock()
	_ = ws.Close()
	b.dropPorts(c)
	b.log.Info("Bridge disconnected", map[string]interface{}{"remote": r.RemoteAddr})
}

// Close drops the current shim connection, if any.
func (b *Bridge) Close() error {
	b.mu.Lock()
	c := b.conn
	b.mu.Unlock()
	if c == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub shutting down"),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.ws.Close()
}

func (b *Bridge) readLoop(ctx context.Context, c *shimConn) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, net.ErrClosed) {
				b.log.Debug("Bridge read ended", map[string]interface{}{"error": err.Error()})
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			b.log.Warn("Malformed bridge frame", map[string]interface{}{"error": err.Error()})
			continue
		}
		if err := b.dispatch(ctx, c, f); err != nil {
			b.log.Warn("Bridge frame rejected", map[string]interface{}{
				"kind":  string(f.Kind),
				"error": err.Error(),
			})
		}
	}
}

func (b *Bridge) dispatch(ctx context.Context, c *shimConn, f Frame) error {
	if f.Kind == KindTabsQueryResult {
		b.resolveQuery(f.RequestID, f.TabIDs)
		return nil
	}

	b.mu.Lock()
	hub := b.hub
	b.mu.Unlock()
	if hub == nil {
		return errors.New("no hub attached")
	}

	switch f.Kind {
	case KindInstalled:
		return hub.OnInstalled(ctx, f.Reason)
	case KindTabCreated:
		if f.TabID == nil {
			return errMissing("tabId")
		}
		return hub.OnTabCreated(ctx, *f.TabID)
	case KindTabRemoved:
		if f.TabID == nil {
			return errMissing("tabId")
		}
		return hub.OnTabRemoved(ctx, *f.TabID)
	case KindMenuClicked:
		return hub.OnMenuClicked(ctx, coordinator.MenuClicked{
			MenuItemID:    f.MenuItemID,
			TabID:         f.TabID,
			TabURL:        f.TabURL,
			SelectionText: f.SelectionText,
		})
	case KindMessage:
		if f.Message == nil {
			return errMissing("message")
		}
		var sender models.Sender
		if f.Sender != nil {
			sender = *f.Sender
		}
		return hub.OnMessage(ctx, *f.Message, sender)
	case KindConnect:
		if f.PortID == "" {
			return errMissing("portId")
		}
		var sender models.Sender
		if f.Sender != nil {
			sender = *f.Sender
		}
		c.portsMu.Lock()
		c.ports[f.PortID] = struct{}{}
		c.portsMu.Unlock()
		return hub.OnConnect(ctx, &shimPort{bridge: b, id: f.PortID, sender: sender})
	case KindPortMessage:
		if f.PortID == "" || f.Message == nil {
			return errMissing("portId/message")
		}
		return hub.OnPortMessage(ctx, f.PortID, *f.Message)
	case KindDisconnect:
		if f.PortID == "" {
			return errMissing("portId")
		}
		c.portsMu.Lock()
		delete(c.ports, f.PortID)
		c.portsMu.Unlock()
		return hub.OnDisconnect(ctx, f.PortID)
	default:
		return fmt.Errorf("unknown frame kind %q", f.Kind)
	}
}

// dropPorts disconnects every port opened over c; they died with it.
func (b *Bridge) dropPorts(c *shimConn) {
	b.mu.Lock()
	hub := b.hub
	b.mu.Unlock()
	if hub == nil {
		return
	}

	c.portsMu.Lock()
	ids := make([]string, 0, len(c.ports))
	for id := range c.ports {
		ids = append(ids, id)
	}
	c.ports = make(map[string]struct{})
	c.portsMu.Unlock()

	for _, id := range ids {
		if err := hub.OnDisconnect(context.Background(), id); err != nil {
			b.log.Debug("Port cleanup skipped", map[string]interface{}{"portId": id, "error": err.Error()})
		}
	}
}

func errMissing(field string) error {
	return fmt.Errorf("frame is missing %s", field)
}

// send writes f to the current shim.
func (b *Bridge) send(ctx context.Context, f Frame) error {
	b.mu.Lock()
	c := b.conn
	b.mu.Unlock()
	if c == nil {
		return commonerrors.NewBridgeUnavailableError()
	}

	deadline := time.Now().Add(b.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if b.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(deadline)
	}
	return c.ws.WriteJSON(f)
}

// SendToTab forwards msg to the content script of tabID.
func (b *Bridge) SendToTab(ctx context.Context, tabID int, msg models.Message) error {
	env, err := models.Encode(msg)
	if err != nil {
		return err
	}
	if err := b.send(ctx, Frame{Kind: KindSendToTab, TabID: &tabID, Message: &env}); err != nil {
		return commonerrors.NewTabSendFailedError(&tabID, err)
	}
	return nil
}

func (b *Bridge) RemoveAll(ctx context.Context) error {
	return b.send(ctx, Frame{Kind: KindMenuRemoveAll})
}

func (b *Bridge) Create(ctx context.Context, item menu.Item) error {
	return b.send(ctx, Frame{Kind: KindMenuCreate, Item: &item})
}

// QueryTabs asks the shim for the ids of all open tabs and waits for the
// matching tabsQueryResult.
func (b *Bridge) QueryTabs(ctx context.Context) ([]int, error) {
	requestID := uuid.NewString()
	result := make(chan []int, 1)

	b.queriesMu.Lock()
	b.queries[requestID] = result
	b.queriesMu.Unlock()
	defer func() {
		b.queriesMu.Lock()
		delete(b.queries, requestID)
		b.queriesMu.Unlock()
	}()

	if err := b.send(ctx, Frame{Kind: KindTabsQuery, RequestID: requestID}); err != nil {
		return nil, err
	}

	timer := time.NewTimer(b.queryTimeout)
	defer timer.Stop()

	select {
	case ids := <-result:
		return ids, nil
	case <-timer.C:
		return nil, commonerrors.NewTabsQueryTimeoutError(requestID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Bridge) resolveQuery(requestID string, ids []int) {
	b.queriesMu.Lock()
	result, ok := b.queries[requestID]
	b.queriesMu.Unlock()
	if !ok {
		b.log.Debug("Late or unknown tabs query result", map[string]interface{}{"requestId": requestID})
		return
	}
	if ids == nil {
		ids = []int{}
	}
	select {
	case result <- ids:
	default:
	}
}

// shimPort is a runtime port opened by a content script, relayed by the shim.
type shimPort struct {
	bridge *Bridge
	id     string
	sender models.Sender
}

func (p *shimPort) ID() string            { return p.id }
func (p *shimPort) Sender() models.Sender { return p.sender }

func (p *shimPort) Post(ctx context.Context, msg models.Message) error {
	env, err := models.Encode(msg)
	if err != nil {
		return err
	}
	return p.bridge.send(ctx, Frame{Kind: KindPortPost, PortID: p.id, Message: &env})
}
