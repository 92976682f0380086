// internal/router/ports.go
package router

import (
	"context"
	"sync"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/common/metrics"
	"jtracker-hub/internal/models"
)

// Port is one end of a persistent connection opened by a content script.
type Port interface {
	ID() string
	// Sender is fixed at connect time.
	Sender() models.Sender
	Post(ctx context.Context, msg models.Message) error
}

// Ports tracks connected ports by id.
type Ports struct {
	mu    sync.RWMutex
	ports map[string]Port
	log   logger.Logger
}

func NewPorts(log logger.Logger) *Ports {
	return &Ports{ports: make(map[string]Port), log: log}
}

// Connect registers port, replacing any earlier port with the same id.
func (p *Ports) Connect(port Port) {
	p.mu.Lock()
	p.ports[port.ID()] = port
	p.mu.Unlock()

	fields := map[string]interface{}{"portId": port.ID()}
	if tabID, ok := port.Sender().Tab(); ok {
		fields["tabId"] = tabID
	}
	p.log.Debug("Port connected", fields)
}

func (p *Ports) Disconnect(id string) {
	p.mu.Lock()
	delete(p.ports, id)
	p.mu.Unlock()
	p.log.Debug("Port disconnected", map[string]interface{}{"portId": id})
}

func (p *Ports) Get(id string) (Port, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	port, ok := p.ports[id]
	return port, ok
}

func (p *Ports) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ports)
}

// PortMessage handles an envelope received on a connected port. getTabId is
// answered on the same port with the tab id from the port's sender; every
// other event is ignored.
func (r *Router) PortMessage(ctx context.Context, portID string, env models.Envelope) error {
	port, ok := r.ports.Get(portID)
	if !ok {
		return commonerrors.NewPortNotConnectedError(portID)
	}

	fields := map[string]interface{}{"portId": portID, "event": string(env.Event)}
	if !env.Event.Known() {
		metrics.HubUnknownEvents.Inc()
		r.log.Warn("Dropping port message with unknown event", fields)
		return commonerrors.NewUnknownEventError(string(env.Event))
	}

	msg, err := models.Decode(env)
	if err != nil {
		return err
	}

	switch msg.(type) {
	case models.GetTabID:
		sender := port.Sender()
		metrics.HubEventsProcessed.WithLabelValues(string(env.Event), "port").Inc()
		if err := port.Post(ctx, models.GetTabID{TabID: sender.TabID}); err != nil {
			return commonerrors.NewTabSendFailedError(sender.TabID, err).WithMetadata("portId", portID)
		}
		return nil
	default:
		r.log.Debug("Ignoring port message", fields)
		return nil
	}
}
