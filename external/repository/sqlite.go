package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/repository"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
// ":memory:" gives a private in-process database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := RunSQLiteMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// sqliteDSN appends the connection pragmas, joining onto any query the path
// already carries.
func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + sqlitePragmas
	}
	return path + "?" + sqlitePragmas
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, s *meeting.Session) error {
	rec, err := repository.NewSessionRecord(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meeting_sessions (id, status, revision, data, created_at, updated_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			revision = excluded.revision,
			data = excluded.data,
			updated_at = excluded.updated_at,
			ended_at = excluded.ended_at
		 WHERE meeting_sessions.revision <= excluded.revision`,
		rec.ID, string(rec.Status), rec.Revision, string(rec.Data), toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt), nullableMillis(rec.EndedAt))
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) LoadSession(ctx context.Context, id string) (*meeting.Session, error) {
	var rec repository.SessionRecord
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT id, data FROM meeting_sessions WHERE id = ?`, id).Scan(&rec.ID, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	rec.Data = []byte(data)
	return rec.Decode()
}

func (r *SQLiteRepository) ListActiveSessions(ctx context.Context) ([]*meeting.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, data FROM meeting_sessions WHERE status = ? ORDER BY updated_at ASC`,
		string(meeting.StatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*meeting.Session
	for rows.Next() {
		var rec repository.SessionRecord
		var data string
		if err := rows.Scan(&rec.ID, &data); err != nil {
			return nil, err
		}
		rec.Data = []byte(data)
		s, err := rec.Decode()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SQLiteRepository) SaveMinutes(ctx context.Context, rec repository.MinutesRecord) error {
	var payload any
	if len(rec.WebhookPayloadJSON) > 0 {
		payload = string(rec.WebhookPayloadJSON)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meeting_minutes (session_id, filename, text, webhook_payload, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO UPDATE SET
			filename = excluded.filename,
			text = excluded.text,
			webhook_payload = excluded.webhook_payload,
			created_at = excluded.created_at`,
		rec.SessionID, rec.Filename, rec.Text, payload, toMillis(rec.CreatedAt))
	return err
}

func (r *SQLiteRepository) GetMinutes(ctx context.Context, sessionID string) (*repository.MinutesRecord, error) {
	var rec repository.MinutesRecord
	var payload sql.NullString
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, filename, text, webhook_payload, created_at FROM meeting_minutes WHERE session_id = ?`,
		sessionID).Scan(&rec.SessionID, &rec.Filename, &rec.Text, &payload, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if payload.Valid {
		rec.WebhookPayloadJSON = []byte(payload.String)
	}
	rec.CreatedAt = fromMillis(createdAt)
	return &rec, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullableMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMillis(*t)
}
