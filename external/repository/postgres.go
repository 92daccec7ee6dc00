package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) SaveSession(ctx context.Context, s *meeting.Session) error {
	rec, err := repository.NewSessionRecord(s)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO meeting_sessions (id, status, revision, data, created_at, updated_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			revision = EXCLUDED.revision,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at,
			ended_at = EXCLUDED.ended_at
		 WHERE meeting_sessions.revision <= EXCLUDED.revision`,
		rec.ID, string(rec.Status), rec.Revision, rec.Data, rec.CreatedAt, rec.UpdatedAt, rec.EndedAt)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (r *PostgresRepository) LoadSession(ctx context.Context, id string) (*meeting.Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, data FROM meeting_sessions WHERE id = $1`, id)
	var rec repository.SessionRecord
	if err := row.Scan(&rec.ID, &rec.Data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec.Decode()
}

func (r *PostgresRepository) ListActiveSessions(ctx context.Context) ([]*meeting.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, data FROM meeting_sessions WHERE status = $1 ORDER BY updated_at ASC`,
		string(meeting.StatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*meeting.Session
	for rows.Next() {
		var rec repository.SessionRecord
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, err
		}
		s, err := rec.Decode()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) SaveMinutes(ctx context.Context, rec repository.MinutesRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO meeting_minutes (session_id, filename, text, webhook_payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id) DO UPDATE SET
			filename = EXCLUDED.filename,
			text = EXCLUDED.text,
			webhook_payload = EXCLUDED.webhook_payload,
			created_at = EXCLUDED.created_at`,
		rec.SessionID, rec.Filename, rec.Text, nullableJSON(rec.WebhookPayloadJSON), rec.CreatedAt)
	return err
}

func (r *PostgresRepository) GetMinutes(ctx context.Context, sessionID string) (*repository.MinutesRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT session_id, filename, text, webhook_payload, created_at FROM meeting_minutes WHERE session_id = $1`,
		sessionID)
	var rec repository.MinutesRecord
	if err := row.Scan(&rec.SessionID, &rec.Filename, &rec.Text, &rec.WebhookPayloadJSON, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
