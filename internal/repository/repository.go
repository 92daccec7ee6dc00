package repository

import (
	"context"
	"errors"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
)

var ErrNotFound = errors.New("repository: not found")

type SessionRepository interface {
	// SaveSession upserts s. A save carrying an older revision than the stored
	// one is ignored.
	SaveSession(ctx context.Context, s *meeting.Session) error
	LoadSession(ctx context.Context, id string) (*meeting.Session, error)
	ListActiveSessions(ctx context.Context) ([]*meeting.Session, error)
}

type MinutesRepository interface {
	SaveMinutes(ctx context.Context, rec MinutesRecord) error
	GetMinutes(ctx context.Context, sessionID string) (*MinutesRecord, error)
}

type Repository interface {
	SessionRepository
	MinutesRepository
}
