// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jtracker-hub/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient holds the pool the archive sink writes through.
type PostgresClient struct {
	DB *sql.DB
}

// OpenPostgres opens the pool and verifies it within the configured connect
// timeout. The pool is closed again if the server is unreachable.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	c := newPostgresClient(db, cfg)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.GetDuration(cfg.ConnectTimeout))
		defer cancel()
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func newPostgresClient(db *sql.DB, cfg config.PostgresConfig) *PostgresClient {
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PostgresClient{DB: db}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
