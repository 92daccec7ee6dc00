package meeting

import (
	"maps"
	"time"
)

// New creates an active session whose meeting clock starts at now.
func New(id string, host HostPolicy, now time.Time) *Session {
	at := msOf(now)
	return &Session{
		ID:         id,
		Host:       host,
		Status:     StatusActive,
		Revision:   1,
		CreatedAt:  at,
		UpdatedAt:  at,
		Agenda:     []AgendaItem{},
		Vote:       Vote{Options: []VoteOption{}, VotesByUserID: map[string]string{}, ClosedResults: []VoteResult{}},
		Attendance: map[string]Attendee{},
		MeetingTimer: MeetingTimer{
			Running:     true,
			StartedAtMs: int64Ptr(at),
		},
	}
}

func (s *Session) Ended() bool {
	return s.Status == StatusEnded
}

// Bump records a successful mutation. Read-only paths never call it.
func (s *Session) Bump(now time.Time) {
	s.Revision++
	s.UpdatedAt = msOf(now)
}

// End freezes the session: the active item is completed, the countdown is
// stopped at its current remaining time, an open vote is closed into history
// and the meeting clock stops. The minutes text is filled in by the caller.
func (s *Session) End(now time.Time) error {
	if s.Ended() {
		return ErrSessionEnded
	}
	at := msOf(now)
	if item := s.ActiveItem(); item != nil {
		completeItem(item, at)
	}
	remaining := s.Timer.RemainingSec(now)
	s.Timer.Running = false
	s.Timer.EndsAtMs = nil
	s.Timer.PausedRemainingSec = nil
	s.Timer.DurationSec = remaining
	if s.Vote.Open {
		s.CloseVote(now)
	}
	s.MeetingTimer.Running = false
	s.MeetingTimer.StoppedAtMs = int64Ptr(at)
	s.Status = StatusEnded
	s.EndedAt = int64Ptr(at)
	return nil
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	c := *s
	c.EndedAt = clonePtr(s.EndedAt)
	c.Agenda = make([]AgendaItem, len(s.Agenda))
	for i, item := range s.Agenda {
		item.StartedAt = clonePtr(item.StartedAt)
		item.ActivatedAt = clonePtr(item.ActivatedAt)
		item.CompletedAt = clonePtr(item.CompletedAt)
		c.Agenda[i] = item
	}
	c.Timer.EndsAtMs = clonePtr(s.Timer.EndsAtMs)
	c.Timer.PausedRemainingSec = clonePtr(s.Timer.PausedRemainingSec)
	c.Vote.Options = append([]VoteOption{}, s.Vote.Options...)
	c.Vote.VotesByUserID = maps.Clone(s.Vote.VotesByUserID)
	if c.Vote.VotesByUserID == nil {
		c.Vote.VotesByUserID = map[string]string{}
	}
	c.Vote.ClosedResults = make([]VoteResult, len(s.Vote.ClosedResults))
	for i, r := range s.Vote.ClosedResults {
		r.Options = append([]VoteOption{}, r.Options...)
		r.Tally = append([]TallyEntry{}, r.Tally...)
		c.Vote.ClosedResults[i] = r
	}
	c.Attendance = make(map[string]Attendee, len(s.Attendance))
	for id, a := range s.Attendance {
		a.LeftAt = clonePtr(a.LeftAt)
		c.Attendance[id] = a
	}
	c.MeetingTimer.StartedAtMs = clonePtr(s.MeetingTimer.StartedAtMs)
	c.MeetingTimer.StoppedAtMs = clonePtr(s.MeetingTimer.StoppedAtMs)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
