// Package postgres persists decoded products for ad hoc querying and
// replay auditing. The sink topic remains the system of record; this
// store is a derived view.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"

	"github.com/floodline/hazard-etl/internal/domain"
)

// Store writes decoded products into the hazard_products table.
// It implements pipeline.ProductSink.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// schema is applied at connect time. IF NOT EXISTS keeps startup idempotent
// across instances racing to create the table.
const schema = `
CREATE TABLE IF NOT EXISTS hazard_products (
	id         TEXT PRIMARY KEY,
	ingest_id  TEXT NOT NULL,
	office     TEXT NOT NULL DEFAULT '',
	awips      TEXT NOT NULL DEFAULT '',
	issued_at  TIMESTAMPTZ,
	decoded_at TIMESTAMPTZ NOT NULL,
	test       BOOLEAN NOT NULL DEFAULT FALSE,
	payload    JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS hazard_products_issued_at_idx ON hazard_products (issued_at);
CREATE INDEX IF NOT EXISTS hazard_products_office_idx ON hazard_products (office);
`

// Connect opens the product store, verifies the connection, and applies the
// schema.
func Connect(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Name() string { return "postgres" }

// Persist upserts each product keyed by its deterministic ID. Replayed
// bulletins decode to the same ID, so ON CONFLICT DO NOTHING makes the
// write idempotent without coordination.
func (s *Store) Persist(ctx context.Context, products []*domain.Product) error {
	const query = `
		INSERT INTO hazard_products (id, ingest_id, office, awips, issued_at, decoded_at, test, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin product upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, p := range products {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal product %s: %w", p.ID, err)
		}

		var issuedAt any
		if !p.IssuedAt.IsZero() {
			issuedAt = p.IssuedAt
		}
		if _, err := tx.ExecContext(ctx, query,
			p.ID, p.IngestID, p.WMO.Office, p.AWIPS.Category+p.AWIPS.Office,
			issuedAt, p.DecodedAt, p.Test, payload,
		); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit product upsert: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
