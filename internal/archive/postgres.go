// internal/archive/postgres.go
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"jtracker-hub/internal/models"

	"github.com/lib/pq"
)

const defaultTable = "archived_applications"

// PostgresSink keeps one row per application id with the full document as
// JSONB. Re-archiving the same id is a no-op.
type PostgresSink struct {
	db    *sql.DB
	table string
}

func NewPostgresSink(db *sql.DB, table string) *PostgresSink {
	if table == "" {
		table = defaultTable
	}
	return &PostgresSink{db: db, table: table}
}

func (s *PostgresSink) Name() string { return "postgres" }

// EnsureSchema creates the archive table if it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		link TEXT NOT NULL,
		stage TEXT NOT NULL,
		document JSONB NOT NULL,
		archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, pq.QuoteIdentifier(s.table))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	return nil
}

func (s *PostgresSink) Archive(ctx context.Context, app models.Application) error {
	doc, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, company, link, stage, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`, pq.QuoteIdentifier(s.table))

	if _, err := s.db.ExecContext(ctx, query, app.ID, app.Company, app.Link, string(app.Stage), doc); err != nil {
		return fmt.Errorf("insert application %s: %w", app.ID, err)
	}
	return nil
}
