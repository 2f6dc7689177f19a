// Package store persists assembled product records in SQLite. It is a thin
// repository over database/sql; callers own transaction-free, single-record
// operations only.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when the requested product does not exist.
var ErrNotFound = errors.New("product not found")

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id                   TEXT PRIMARY KEY,
	certificate_number   TEXT,
	classification       TEXT,
	brand_name           TEXT,
	generic_name         TEXT,
	dosage_form          TEXT,
	manufacturer_country TEXT,
	strength             TEXT,
	manufacturer         TEXT,
	self_administered    INTEGER,
	description          TEXT,
	precaution           TEXT,
	display_name         TEXT,
	pack_size            TEXT,
	image_url            TEXT,
	expiry_date          TEXT,
	batch_number         TEXT,
	created_at           TIMESTAMP NOT NULL,
	updated_at           TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_brand_name ON products(brand_name);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);
`

// Store is a SQLite-backed product repository. The underlying pool is safe
// for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("database ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
