// internal/router/router.go
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	commonerrors "jtracker-hub/internal/common/errors"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/common/metrics"
	"jtracker-hub/internal/common/observability"
	"jtracker-hub/internal/common/validation"
	"jtracker-hub/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Handler processes one decoded one-shot message. It returns the pending
// asynchronous part of its work, or nil when everything happened inline.
type Handler interface {
	Handle(ctx context.Context, msg models.Message, sender models.Sender) (*Task, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg models.Message, sender models.Sender) (*Task, error)

func (f HandlerFunc) Handle(ctx context.Context, msg models.Message, sender models.Sender) (*Task, error) {
	return f(ctx, msg, sender)
}

// Router owns the closed dispatch table for one-shot messages and the port
// registry for persistent connections.
type Router struct {
	handlers  map[models.EventType]Handler
	declared  map[models.EventType]string
	validator *validation.Validator
	obs       *observability.Observability
	ports     *Ports
	log       logger.Logger
}

type Option func(*Router)

// WithValidator checks every inbound payload against its JSON schema before
// decoding.
func WithValidator(v *validation.Validator) Option {
	return func(r *Router) { r.validator = v }
}

func WithObservability(o *observability.Observability) Option {
	return func(r *Router) { r.obs = o }
}

func New(log logger.Logger, opts ...Option) *Router {
	log = log.WithFields(map[string]interface{}{"component": "router"})
	r := &Router{
		handlers: make(map[models.EventType]Handler),
		declared: make(map[models.EventType]string),
		ports:    NewPorts(log),
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds h to event. Only hub-bound one-shot events can be handled,
// and each at most once.
func (r *Router) Register(event models.EventType, h Handler) error {
	if !event.Known() {
		return commonerrors.NewUnknownEventError(string(event))
	}
	if event.Direction() != models.DirectionToHub || event.Transport() != models.TransportMessage {
		return fmt.Errorf("event %s is not an inbound one-shot message", event)
	}
	if _, dup := r.handlers[event]; dup {
		return fmt.Errorf("handler for %s already registered", event)
	}
	r.handlers[event] = h
	return nil
}

// Declare records that event is accepted but intentionally has no handler.
func (r *Router) Declare(event models.EventType, reason string) {
	r.declared[event] = reason
}

// Validate fails unless every inbound one-shot event is either handled or
// declared, and none is both.
func (r *Router) Validate() error {
	var problems []error
	for _, event := range models.InboundMessageEvents() {
		_, handled := r.handlers[event]
		_, declared := r.declared[event]
		switch {
		case !handled && !declared:
			problems = append(problems, fmt.Errorf("event %s has no handler and is not declared", event))
		case handled && declared:
			problems = append(problems, fmt.Errorf("event %s is both handled and declared unhandled", event))
		}
	}
	for event := range r.declared {
		if !event.Known() {
			problems = append(problems, fmt.Errorf("declared event %s is not part of the message set", event))
		}
	}
	return errors.Join(problems...)
}

// Handled lists the events with a registered handler, sorted.
func (r *Router) Handled() []models.EventType {
	out := make([]models.EventType, 0, len(r.handlers))
	for e := range r.handlers {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Router) Ports() *Ports {
	return r.ports
}

// Dispatch routes a one-shot envelope. Declared-unhandled events return a nil
// task and nil error; unknown or misdirected events are logged, counted and
// returned as errors.
func (r *Router) Dispatch(ctx context.Context, env models.Envelope, sender models.Sender) (*Task, error) {
	event := env.Event
	fields := map[string]interface{}{"event": string(event)}
	if tabID, ok := sender.Tab(); ok {
		fields["tabId"] = tabID
	}

	if !event.Known() {
		metrics.HubUnknownEvents.Inc()
		r.log.Warn("Dropping message with unknown event", fields)
		return nil, commonerrors.NewUnknownEventError(string(event))
	}

	h, ok := r.handlers[event]
	if !ok {
		if reason, declared := r.declared[event]; declared {
			fields["reason"] = reason
			r.log.Debug("Event declared without handler", fields)
			metrics.HubEventsProcessed.WithLabelValues(string(event), "ignored").Inc()
			return nil, nil
		}
		r.log.Warn("No handler for event", fields)
		return nil, commonerrors.NewHandlerNotRegisteredError(string(event))
	}

	if err := r.validate(env); err != nil {
		return nil, err
	}

	msg, err := models.Decode(env)
	if err != nil {
		return nil, err
	}

	ctx, span := r.obs.StartSpan(ctx, "hub.message."+string(event), attribute.String("event", string(event)))
	defer span.End()

	start := time.Now()
	task, err := h.Handle(ctx, msg, sender)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.HubEventDuration.WithLabelValues(string(event)).Observe(elapsed.Seconds())
	metrics.HubEventsProcessed.WithLabelValues(string(event), "message").Inc()
	r.obs.RecordEvent(ctx, string(event), status, elapsed)

	return task, err
}

func (r *Router) validate(env models.Envelope) error {
	if r.validator == nil {
		return nil
	}
	result, err := r.validator.Validate(string(env.Event), env.Data)
	if err != nil {
		return commonerrors.NewInvalidPayloadError(string(env.Event), err)
	}
	if !result.Valid {
		return commonerrors.NewInvalidPayloadError(string(env.Event), result).
			WithMetadata("violations", result.Errors)
	}
	return nil
}
