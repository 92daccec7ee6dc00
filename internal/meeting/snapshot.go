package meeting

import "time"

type TimerView struct {
	Timer
	Remaining int `json:"remainingSec"`
}

type VoteView struct {
	Vote
	Tally      []TallyEntry `json:"tally"`
	TotalVotes int          `json:"totalVotes"`
}

type MeetingTimerView struct {
	MeetingTimer
	Elapsed int64 `json:"elapsedSec"`
}

// Snapshot is a client-safe, fully materialized copy of a session. It never
// carries the host key.
type Snapshot struct {
	ID                  string              `json:"id"`
	Status              Status              `json:"status"`
	Revision            int64               `json:"revision"`
	CreatedAt           int64               `json:"createdAt"`
	UpdatedAt           int64               `json:"updatedAt"`
	EndedAt             *int64              `json:"endedAt,omitempty"`
	Host                HostView            `json:"host"`
	CurrentAgendaItemID string              `json:"currentAgendaItemId"`
	ActiveAgendaID      string              `json:"activeAgendaId"`
	Agenda              []AgendaItem        `json:"agenda"`
	Timer               TimerView           `json:"timer"`
	Vote                VoteView            `json:"vote"`
	Attendance          map[string]Attendee `json:"attendance"`
	MeetingTimer        MeetingTimerView    `json:"meetingTimer"`
	Minutes             string              `json:"minutes,omitempty"`
}

// Snapshot materializes derived fields as of now.
func (s *Session) Snapshot(now time.Time) Snapshot {
	c := s.Clone()
	active := ""
	if item := c.ActiveItem(); item != nil {
		active = item.ID
	}
	tally, total := c.Vote.Counts()
	return Snapshot{
		ID:                  c.ID,
		Status:              c.Status,
		Revision:            c.Revision,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
		EndedAt:             c.EndedAt,
		Host:                c.Host.View(),
		CurrentAgendaItemID: c.CurrentAgendaItemID,
		ActiveAgendaID:      active,
		Agenda:              c.Agenda,
		Timer:               TimerView{Timer: c.Timer, Remaining: c.Timer.RemainingSec(now)},
		Vote:                VoteView{Vote: c.Vote, Tally: tally, TotalVotes: total},
		Attendance:          c.Attendance,
		MeetingTimer:        MeetingTimerView{MeetingTimer: c.MeetingTimer, Elapsed: c.MeetingTimer.ElapsedSec(now)},
		Minutes:             c.Minutes,
	}
}

func (m MeetingTimer) ElapsedSec(now time.Time) int64 {
	if m.StartedAtMs == nil {
		return 0
	}
	end := msOf(now)
	if !m.Running && m.StoppedAtMs != nil {
		end = *m.StoppedAtMs
	}
	if end <= *m.StartedAtMs {
		return 0
	}
	return (end - *m.StartedAtMs) / 1000
}
