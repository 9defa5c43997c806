package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var schemas = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS articles (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(500) NOT NULL,
			content TEXT NOT NULL,
			original_url TEXT,
			is_ai_updated BOOLEAN NOT NULL DEFAULT FALSE,
			ai_content TEXT,
			citations TEXT NOT NULL DEFAULT '[]',
			scraped_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_pending ON articles (is_ai_updated, created_at DESC) WHERE deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_articles_original_url ON articles (original_url) WHERE deleted_at IS NULL`,
	},
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title VARCHAR(500) NOT NULL,
			content TEXT NOT NULL,
			original_url TEXT,
			is_ai_updated BOOLEAN NOT NULL DEFAULT 0,
			ai_content TEXT,
			citations TEXT NOT NULL DEFAULT '[]',
			scraped_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			deleted_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_pending ON articles (is_ai_updated, created_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_articles_original_url ON articles (original_url) WHERE deleted_at IS NULL`,
	},
}

// Open connects to the configured database. Supported drivers are postgres and
// sqlite3.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "sqlite" {
		driver = "sqlite3"
	}
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates the articles table and its indexes when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts, ok := schemas[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
