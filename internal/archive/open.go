// internal/archive/open.go
package archive

import (
	"context"
	"errors"
	"fmt"

	awsclient "jtracker-hub/internal/common/aws"
	"jtracker-hub/internal/common/config"
	"jtracker-hub/internal/common/database"
	"jtracker-hub/internal/common/logger"
)

// Open builds the sinks enabled in cfg. It returns a nil Multi when none
// are enabled. The returned close function releases every connection.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Multi, func() error, error) {
	noop := func() error { return nil }
	if !cfg.Archive.AnyEnabled() {
		log.Info("Archive disabled", nil)
		return nil, noop, nil
	}

	var (
		sinks   []Sink
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	if cfg.Archive.Postgres.Enabled {
		pg, err := database.OpenPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			_ = closeAll()
			return nil, noop, err
		}
		closers = append(closers, pg.Close)
		sink := NewPostgresSink(pg.DB, cfg.Archive.Postgres.Table)
		if err := sink.EnsureSchema(ctx); err != nil {
			_ = closeAll()
			return nil, noop, err
		}
		sinks = append(sinks, sink)
	}

	if cfg.Archive.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			_ = closeAll()
			return nil, noop, err
		}
		if err := es.Ping(ctx); err != nil {
			log.Warn("Elasticsearch not reachable, archiving anyway", map[string]interface{}{"error": err.Error()})
		}
		sinks = append(sinks, NewElasticsearchSink(es.Client, cfg.Archive.Elasticsearch.Index))
	}

	if cfg.Archive.SNS.Enabled {
		client, err := awsclient.NewSNSClient(ctx, cfg.Archive.SNS.Region, cfg.Archive.SNS.TopicARN)
		if err != nil {
			_ = closeAll()
			return nil, noop, fmt.Errorf("sns client: %w", err)
		}
		sinks = append(sinks, NewSNSSink(client))
	}

	if cfg.Archive.Email.Enabled {
		client, err := awsclient.NewSESClient(ctx, cfg.Archive.Email.Region)
		if err != nil {
			_ = closeAll()
			return nil, noop, fmt.Errorf("ses client: %w", err)
		}
		sinks = append(sinks, NewEmailSink(client, cfg.Archive.Email.From, cfg.Archive.Email.To))
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	log.Info("Archive sinks ready", map[string]interface{}{"sinks": names})

	return NewMulti(log, sinks...), closeAll, nil
}
