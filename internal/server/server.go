// Package server exposes the hub over HTTP: health and readiness probes,
// Prometheus metrics, the extension bridge socket and a small REST surface
// for the popup.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jtracker-hub/internal/common/config"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/store"
	"jtracker-hub/internal/tabs"
)

// MessageSink accepts one-shot messages for the coordinator loop.
type MessageSink interface {
	OnMessage(ctx context.Context, env models.Envelope, sender models.Sender) error
}

// Bridge is the WebSocket endpoint of the extension shim.
type Bridge interface {
	http.Handler
	Connected() bool
}

// Deps are the components the routes are served from.
type Deps struct {
	Store  store.Store
	Tabs   *tabs.Registry
	Hub    MessageSink
	Bridge Bridge
	Log    logger.Logger
}

// Option configures the router.
type Option func(*routerConfig)

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
}

// WithMiddlewares adds middleware in front of every route.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// NewRouter builds the chi router for deps.
func NewRouter(deps Deps, opts ...Option) *chi.Mux {
	cfg := &routerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &handlers{
		store:  deps.Store,
		tabs:   deps.Tabs,
		hub:    deps.Hub,
		bridge: deps.Bridge,
		log:    deps.Log.WithFields(map[string]interface{}{"component": "http"}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Handle("/metrics", promhttp.Handler())
	if deps.Bridge != nil {
		r.Handle("/bridge", deps.Bridge)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/messages", h.postMessage)
		r.Get("/state", h.getState)
		r.Patch("/tabs/{tabId}", h.patchTab)
	})

	return r
}

// LoggingMiddleware logs every request at debug level.
func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Debug("HTTP request", map[string]interface{}{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    ww.Status(),
				"duration":  time.Since(start).String(),
				"requestId": middleware.GetReqID(r.Context()),
			})
		})
	}
}

// Server owns the HTTP listener.
type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
	log             logger.Logger
}

func New(cfg *config.Config, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:        cfg.Server.Address,
			Handler:     handler,
			ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		},
		shutdownTimeout: config.GetDuration(cfg.Server.ShutdownTimeout),
		log:             log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.log.Info("HTTP server listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded
// by the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	s.log.Info("HTTP server shutting down", nil)
	return s.http.Shutdown(ctx)
}
