package db

import (
	"context"
	"fmt"
)

// Supported database/sql driver names
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS games (
	id           BIGSERIAL PRIMARY KEY,
	publisher_id TEXT,
	publisher_id_numeric BOOLEAN,
	name         TEXT,
	platform     TEXT,
	store_id     TEXT,
	bundle_id    TEXT,
	app_version  TEXT,
	is_published BOOLEAN,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS games (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	publisher_id TEXT,
	publisher_id_numeric BOOLEAN,
	name         TEXT,
	platform     TEXT,
	store_id     TEXT,
	bundle_id    TEXT,
	app_version  TEXT,
	is_published BOOLEAN,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

func schemaFor(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return postgresSchema, nil
	case DriverSQLite:
		return sqliteSchema, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// migrate creates the games table if it does not exist and adds columns
// introduced after the table was first created
func (s *GamesStore) migrate(ctx context.Context) error {
	schema, err := schemaFor(s.driver)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create games table: %w", err)
	}
	return s.ensureColumn(ctx, "publisher_id_numeric", "BOOLEAN")
}

// ensureColumn adds column to games when an older table lacks it
func (s *GamesStore) ensureColumn(ctx context.Context, column, typ string) error {
	// a zero-row select fails only when the column is missing
	rows, err := s.db.QueryContext(ctx, "SELECT "+column+" FROM games LIMIT 0")
	if err == nil {
		return rows.Close()
	}

	if _, err := s.db.ExecContext(ctx, "ALTER TABLE games ADD COLUMN "+column+" "+typ); err != nil {
		return fmt.Errorf("add column %s: %w", column, err)
	}
	return nil
}
