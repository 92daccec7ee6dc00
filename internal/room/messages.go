package room

import (
	"encoding/json"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
)

const (
	TypeHello          = "HELLO"
	TypeTimePing       = "TIME_PING"
	TypeAgendaAdd      = "AGENDA_ADD"
	TypeAgendaUpdate   = "AGENDA_UPDATE"
	TypeAgendaDelete   = "AGENDA_DELETE"
	TypeAgendaActive   = "AGENDA_SET_ACTIVE"
	TypeAgendaNext     = "AGENDA_NEXT"
	TypeAgendaPrev     = "AGENDA_PREV"
	TypeAgendaReorder  = "AGENDA_REORDER"
	TypeTimerStart     = "TIMER_START"
	TypeTimerPause     = "TIMER_PAUSE"
	TypeTimerResume    = "TIMER_RESUME"
	TypeTimerReset     = "TIMER_RESET"
	TypeTimerExtend    = "TIMER_EXTEND"
	TypeVoteOpen       = "VOTE_OPEN"
	TypeVoteCast       = "VOTE_CAST"
	TypeVoteClose      = "VOTE_CLOSE"
	TypeHelloAck       = "HELLO_ACK"
	TypeTimePong       = "TIME_PONG"
	TypeState          = "STATE"
	TypeError          = "ERROR"
)

var (
	errHelloRequired   = &meeting.Error{Kind: meeting.KindValidation, Code: "hello_required"}
	errMissingClientID = &meeting.Error{Kind: meeting.KindValidation, Code: "missing_client_id"}
	errMissingRoomID   = &meeting.Error{Kind: meeting.KindValidation, Code: "missing_room_id"}
	errInvalidJSON     = &meeting.Error{Kind: meeting.KindValidation, Code: "invalid_json"}
	errUnknownType     = &meeting.Error{Kind: meeting.KindValidation, Code: "unknown_type"}
	errRateLimited     = &meeting.Error{Kind: meeting.KindConflict, Code: "rate_limited"}
)

// ClientMessage is the union of every client-to-server message. The agenda
// item kind travels as itemType since type names the message.
type ClientMessage struct {
	Type           string   `json:"type"`
	RoomID         string   `json:"roomId,omitempty"`
	ClientID       string   `json:"clientId,omitempty"`
	HostKey        string   `json:"hostKey,omitempty"`
	UserID         string   `json:"userId,omitempty"`
	DisplayName    string   `json:"displayName,omitempty"`
	ClientSentAt   int64    `json:"clientSentAt,omitempty"`
	AgendaID       string   `json:"agendaId,omitempty"`
	OrderedIDs     []string `json:"orderedIds,omitempty"`
	Seconds        int      `json:"seconds,omitempty"`
	Question       string   `json:"question,omitempty"`
	Options        []string `json:"options,omitempty"`
	OptionID       string   `json:"optionId,omitempty"`
	LinkedAgendaID string   `json:"linkedAgendaId,omitempty"`

	Title       *string `json:"title,omitempty"`
	DurationSec *int    `json:"durationSec,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	ItemType    *string `json:"itemType,omitempty"`
	Description *string `json:"description,omitempty"`
	Link        *string `json:"link,omitempty"`
	Category    *string `json:"category,omitempty"`
	OnBallot    *bool   `json:"onBallot,omitempty"`
}

func (m ClientMessage) itemPatch() meeting.ItemPatch {
	return meeting.ItemPatch{
		Title:       m.Title,
		DurationSec: m.DurationSec,
		Notes:       m.Notes,
		Type:        m.ItemType,
		Description: m.Description,
		Link:        m.Link,
		Category:    m.Category,
		OnBallot:    m.OnBallot,
	}
}

func (m ClientMessage) itemInput() meeting.ItemInput {
	var in meeting.ItemInput
	deref(&in.Title, m.Title)
	deref(&in.DurationSec, m.DurationSec)
	deref(&in.Notes, m.Notes)
	deref(&in.Type, m.ItemType)
	deref(&in.Description, m.Description)
	deref(&in.Link, m.Link)
	deref(&in.Category, m.Category)
	deref(&in.OnBallot, m.OnBallot)
	return in
}

func deref[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

type HelloAck struct {
	Type      string `json:"type"`
	IsHost    bool   `json:"isHost"`
	RoomID    string `json:"roomId"`
	ClientID  string `json:"clientId"`
	ServerNow int64  `json:"serverNow"`
}

type TimePong struct {
	Type         string `json:"type"`
	ClientSentAt int64  `json:"clientSentAt"`
	ServerNow    int64  `json:"serverNow"`
}

type StateMessage struct {
	Type      string           `json:"type"`
	State     meeting.Snapshot `json:"state"`
	ServerNow int64            `json:"serverNow"`
}

type ErrorMessage struct {
	Type      string `json:"type"`
	Error     string `json:"error"`
	Attempted string `json:"attempted,omitempty"`
}

func decodeClientMessage(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, errInvalidJSON
	}
	return msg, nil
}

func encodeError(err error, attempted string) []byte {
	b, _ := json.Marshal(ErrorMessage{Type: TypeError, Error: meeting.CodeOf(err), Attempted: attempted})
	return b
}

var hostCommands = map[string]struct{}{
	TypeAgendaAdd:     {},
	TypeAgendaUpdate:  {},
	TypeAgendaDelete:  {},
	TypeAgendaActive:  {},
	TypeAgendaNext:    {},
	TypeAgendaPrev:    {},
	TypeAgendaReorder: {},
	TypeTimerStart:    {},
	TypeTimerPause:    {},
	TypeTimerResume:   {},
	TypeTimerReset:    {},
	TypeTimerExtend:   {},
	TypeVoteOpen:      {},
	TypeVoteClose:     {},
}

// applyHostCommand runs one host-only command against s.
func applyHostCommand(s *meeting.Session, msg ClientMessage, policy meeting.TimerPolicy, now time.Time) error {
	switch msg.Type {
	case TypeAgendaAdd:
		_, err := s.AddItem(msg.itemInput())
		return err
	case TypeAgendaUpdate:
		_, err := s.UpdateItem(msg.AgendaID, msg.itemPatch())
		return err
	case TypeAgendaDelete:
		return s.DeleteItem(msg.AgendaID)
	case TypeAgendaActive:
		if !s.SetActiveItem(msg.AgendaID, now) {
			return meeting.ErrItemNotFound
		}
		return nil
	case TypeAgendaNext:
		return s.NextItem(now)
	case TypeAgendaPrev:
		return s.PrevItem(now)
	case TypeAgendaReorder:
		return s.ReorderItems(msg.OrderedIDs)
	case TypeTimerStart:
		return s.TimerStart(now)
	case TypeTimerPause:
		return s.TimerPause(now)
	case TypeTimerResume:
		return s.TimerResume(now)
	case TypeTimerReset:
		s.TimerReset()
		return nil
	case TypeTimerExtend:
		return s.ExtendTimer(msg.Seconds, policy, now)
	case TypeVoteOpen:
		return s.OpenVote(msg.Question, msg.Options, msg.LinkedAgendaID)
	case TypeVoteClose:
		if _, ok := s.CloseVote(now); !ok {
			return meeting.ErrVoteNotOpen
		}
		return nil
	default:
		return errUnknownType
	}
}
