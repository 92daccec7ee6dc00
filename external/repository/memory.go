package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/repository"
)

// MemoryRepository keeps sessions for the lifetime of the process. It is used
// when no DATABASE_URL is configured.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*meeting.Session
	minutes  map[string]repository.MinutesRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]*meeting.Session),
		minutes:  make(map[string]repository.MinutesRecord),
	}
}

func (r *MemoryRepository) SaveSession(_ context.Context, s *meeting.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.ID]; ok && cur.Revision > s.Revision {
		return nil
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *MemoryRepository) LoadSession(_ context.Context, id string) (*meeting.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryRepository) ListActiveSessions(_ context.Context) ([]*meeting.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*meeting.Session
	for _, s := range r.sessions {
		if !s.Ended() {
			list = append(list, s.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt < list[j].UpdatedAt })
	return list, nil
}

func (r *MemoryRepository) SaveMinutes(_ context.Context, rec repository.MinutesRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.WebhookPayloadJSON = append([]byte(nil), rec.WebhookPayloadJSON...)
	r.minutes[rec.SessionID] = rec
	return nil
}

func (r *MemoryRepository) GetMinutes(_ context.Context, sessionID string) (*repository.MinutesRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.minutes[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}
