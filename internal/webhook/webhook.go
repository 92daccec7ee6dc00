package webhook

import "context"

const MinutesWebhookSchemaVersion = "1"

type MinutesWebhookAttendee struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	JoinedAt      string `json:"joined_at"`
	LeftAt        string `json:"left_at,omitempty"`
}

type MinutesWebhookAgendaItem struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	PlannedSeconds   int    `json:"planned_seconds"`
	TimeSpentSeconds int64  `json:"time_spent_seconds"`
	Notes            string `json:"notes,omitempty"`
}

type MinutesWebhookVote struct {
	Question       string         `json:"question"`
	Tally          map[string]int `json:"tally"`
	TotalVotes     int            `json:"total_votes"`
	Winners        []string       `json:"winners"`
	LinkedAgendaID string         `json:"linked_agenda_id,omitempty"`
	ClosedAt       string         `json:"closed_at"`
}

type MinutesWebhookPayload struct {
	SchemaVersion   string                     `json:"schema_version"`
	SessionID       string                     `json:"session_id"`
	StartAt         string                     `json:"start_at"`
	EndAt           string                     `json:"end_at"`
	Timezone        string                     `json:"timezone"`
	DurationSeconds int64                      `json:"duration_seconds"`
	Attendees       []MinutesWebhookAttendee   `json:"attendees"`
	Agenda          []MinutesWebhookAgendaItem `json:"agenda"`
	Votes           []MinutesWebhookVote       `json:"votes"`
	Minutes         string                     `json:"minutes"`
}

type Sender interface {
	SendMinutes(ctx context.Context, payload MinutesWebhookPayload) error
}
