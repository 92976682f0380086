// cmd/hub/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jtracker-hub/internal/archive"
	"jtracker-hub/internal/bridge"
	"jtracker-hub/internal/common/config"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/common/observability"
	"jtracker-hub/internal/common/validation"
	"jtracker-hub/internal/coordinator"
	"jtracker-hub/internal/server"
	"jtracker-hub/internal/store"
	"jtracker-hub/internal/workers"
	"jtracker-hub/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff,
// giving up early once ctx is done.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s aborted: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting hub...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if err := run(cfg, zapLog, log); err != nil {
		zapLog.Fatal("hub stopped with error", zap.Error(err))
	}
	zapLog.Info("Hub stopped gracefully")
}

func run(cfg *config.Config, zapLog *zap.Logger, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}

	// --- State store ---
	st := store.New(cfg, log)
	defer st.Close()
	err = retryWithBackoff(ctx, func() error {
		return st.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "State store connection")
	if err != nil {
		return err
	}
	zapLog.Info("State store ready", zap.String("backend", cfg.Store.Backend))

	// --- Payload validation ---
	var validator *validation.Validator
	if cfg.Hub.ValidatePayloads {
		reg, err := registry.Load(cfg.Hub.EventRegistryPath)
		if err != nil {
			return fmt.Errorf("load event registry: %w", err)
		}
		validator, err = validation.NewValidator(reg.DataSchemas())
		if err != nil {
			return fmt.Errorf("compile event schemas: %w", err)
		}
		zapLog.Info("Payload validation enabled", zap.Strings("events", validator.Names()))
	}

	// --- Archive sinks ---
	sinks, closeArchive, err := archive.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer closeArchive()
	var archiver workers.Archiver
	if sinks.Len() > 0 {
		archiver = sinks
	}

	// --- Bridge, coordinator, server ---
	br := bridge.New(cfg, log)
	coord, err := coordinator.New(cfg, coordinator.Deps{
		Store:         st,
		Native:        br,
		Messenger:     br,
		Enumerator:    br,
		Archiver:      archiver,
		Validator:     validator,
		Observability: obs,
	}, log)
	if err != nil {
		return err
	}
	br.Attach(coord)
	zapLog.Info("Handlers registered", zap.Any("events", coord.Router().Handled()))

	router := server.NewRouter(server.Deps{
		Store:  st,
		Tabs:   coord.Tabs(),
		Hub:    coord,
		Bridge: br,
		Log:    log,
	}, server.WithMiddlewares(server.LoggingMiddleware(log)))
	srv := server.New(cfg, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return coord.Run(gctx)
	})
	g.Go(func() error {
		return srv.ListenAndServe()
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping hub...")
		if err := srv.Shutdown(context.Background()); err != nil {
			zapLog.Error("Error shutting down HTTP server", zap.Error(err))
		}
		if err := br.Close(); err != nil {
			zapLog.Debug("Bridge close", zap.Error(err))
		}
		return nil
	})

	runErr := g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Hub.DrainTimeout))
	defer cancel()
	if err := coord.Drain(drainCtx); err != nil {
		zapLog.Warn("Pending side effects abandoned", zap.Error(err))
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}
	return runErr
}
