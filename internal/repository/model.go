package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
)

// SessionRecord is the storage form of a session: indexed columns plus the
// full aggregate as a JSON document.
type SessionRecord struct {
	ID        string
	Status    meeting.Status
	Revision  int64
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
	EndedAt   *time.Time
}

// MinutesRecord keeps the rendered minutes of an ended session.
type MinutesRecord struct {
	SessionID          string
	Filename           string
	Text               string
	WebhookPayloadJSON []byte
	CreatedAt          time.Time
}

func NewSessionRecord(s *meeting.Session) (SessionRecord, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	rec := SessionRecord{
		ID:        s.ID,
		Status:    s.Status,
		Revision:  s.Revision,
		Data:      data,
		CreatedAt: time.UnixMilli(s.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(s.UpdatedAt).UTC(),
	}
	if s.EndedAt != nil {
		ended := time.UnixMilli(*s.EndedAt).UTC()
		rec.EndedAt = &ended
	}
	return rec, nil
}

func (r SessionRecord) Decode() (*meeting.Session, error) {
	var s meeting.Session
	if err := json.Unmarshal(r.Data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", r.ID, err)
	}
	if s.Attendance == nil {
		s.Attendance = map[string]meeting.Attendee{}
	}
	if s.Vote.VotesByUserID == nil {
		s.Vote.VotesByUserID = map[string]string{}
	}
	return &s, nil
}
