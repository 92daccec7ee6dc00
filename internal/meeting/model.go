package meeting

import "time"

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemActive    ItemStatus = "active"
	ItemCompleted ItemStatus = "completed"
)

// AgendaItem timestamps are unix milliseconds; TimeSpent is in seconds.
type AgendaItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	DurationSec int        `json:"durationSec"`
	Notes       string     `json:"notes"`
	Type        string     `json:"type,omitempty"`
	Description string     `json:"description,omitempty"`
	Link        string     `json:"link,omitempty"`
	Category    string     `json:"category,omitempty"`
	OnBallot    bool       `json:"onBallot,omitempty"`
	Status      ItemStatus `json:"status"`
	StartedAt   *int64     `json:"startedAt"`
	ActivatedAt *int64     `json:"activatedAt,omitempty"`
	CompletedAt *int64     `json:"completedAt"`
	TimeSpent   int64      `json:"timeSpent"`
}

// Timer is the per-item countdown. Exactly one of three states holds:
// running (EndsAtMs set), paused (PausedRemainingSec set) or stopped (neither).
// While running, EndsAtMs is the only source of truth.
type Timer struct {
	Running            bool   `json:"running"`
	EndsAtMs           *int64 `json:"endsAtMs"`
	PausedRemainingSec *int   `json:"pausedRemainingSec"`
	DurationSec        int    `json:"durationSec"`
	BaseDurationSec    int    `json:"baseDurationSec"`
}

type VoteOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type TallyEntry struct {
	OptionID string `json:"optionId"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
}

// VoteResult is appended to Vote.ClosedResults on close and never modified afterwards.
type VoteResult struct {
	Question       string       `json:"question"`
	Options        []VoteOption `json:"options"`
	Tally          []TallyEntry `json:"tally"`
	TotalVotes     int          `json:"totalVotes"`
	Ts             int64        `json:"ts"`
	LinkedAgendaID string       `json:"linkedAgendaId,omitempty"`
}

type Vote struct {
	Open           bool              `json:"open"`
	Question       string            `json:"question"`
	Options        []VoteOption      `json:"options"`
	VotesByUserID  map[string]string `json:"votesByUserId"`
	LinkedAgendaID string            `json:"linkedAgendaId,omitempty"`
	ClosedResults  []VoteResult      `json:"closedResults"`
}

type Attendee struct {
	DisplayName string `json:"displayName"`
	JoinedAt    int64  `json:"joinedAt"`
	LastSeenAt  int64  `json:"lastSeenAt"`
	LeftAt      *int64 `json:"leftAt"`
}

// MeetingTimer tracks elapsed meeting time independently of the item countdown.
type MeetingTimer struct {
	Running     bool   `json:"running"`
	StartedAtMs *int64 `json:"startedAtMs"`
	StoppedAtMs *int64 `json:"stoppedAtMs,omitempty"`
}

// Session is the root aggregate of one meeting.
type Session struct {
	ID                  string              `json:"id"`
	Host                HostPolicy          `json:"host"`
	Status              Status              `json:"status"`
	Revision            int64               `json:"revision"`
	CreatedAt           int64               `json:"createdAt"`
	UpdatedAt           int64               `json:"updatedAt"`
	EndedAt             *int64              `json:"endedAt,omitempty"`
	CurrentAgendaItemID string              `json:"currentAgendaItemId"`
	Agenda              []AgendaItem        `json:"agenda"`
	Timer               Timer               `json:"timer"`
	Vote                Vote                `json:"vote"`
	Attendance          map[string]Attendee `json:"attendance"`
	MeetingTimer        MeetingTimer        `json:"meetingTimer"`
	Minutes             string              `json:"minutes,omitempty"`
}

func msOf(t time.Time) int64 {
	return t.UnixMilli()
}

func int64Ptr(v int64) *int64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
