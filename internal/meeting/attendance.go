package meeting

import (
	"strings"
	"time"
)

// Touch records contact from a participant. Entries are created on first
// contact and never removed; a returning participant has LeftAt cleared.
// It reports whether the entry was created.
func (s *Session) Touch(participantID, displayName string, now time.Time) bool {
	if participantID == "" {
		return false
	}
	if s.Attendance == nil {
		s.Attendance = map[string]Attendee{}
	}
	at := msOf(now)
	displayName = strings.TrimSpace(displayName)
	a, ok := s.Attendance[participantID]
	if !ok {
		if displayName == "" {
			displayName = participantID
		}
		s.Attendance[participantID] = Attendee{DisplayName: displayName, JoinedAt: at, LastSeenAt: at}
		return true
	}
	if displayName != "" {
		a.DisplayName = displayName
	}
	a.LastSeenAt = at
	a.LeftAt = nil
	s.Attendance[participantID] = a
	return false
}

func (s *Session) MarkLeft(participantID string, now time.Time) {
	a, ok := s.Attendance[participantID]
	if !ok {
		return
	}
	at := msOf(now)
	a.LastSeenAt = at
	a.LeftAt = int64Ptr(at)
	s.Attendance[participantID] = a
}

// Heartbeat refreshes LastSeenAt for a participant already in attendance.
// It never creates an entry.
func (s *Session) Heartbeat(participantID string, now time.Time) bool {
	a, ok := s.Attendance[participantID]
	if !ok {
		return false
	}
	a.LastSeenAt = msOf(now)
	s.Attendance[participantID] = a
	return true
}
