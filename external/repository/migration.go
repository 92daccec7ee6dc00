package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS meeting_sessions (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		revision BIGINT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meeting_sessions_active ON meeting_sessions (updated_at) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS meeting_minutes (
		session_id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		text TEXT NOT NULL,
		webhook_payload JSONB,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// SQLite stores timestamps as unix milliseconds and the document as text.
var sqliteMigrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS meeting_sessions (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		revision INTEGER NOT NULL,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		ended_at INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meeting_sessions_active ON meeting_sessions (updated_at) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS meeting_minutes (
		session_id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		text TEXT NOT NULL,
		webhook_payload TEXT,
		created_at INTEGER NOT NULL
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func RunSQLiteMigration(ctx context.Context, db *sql.DB) error {
	for _, s := range sqliteMigrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
