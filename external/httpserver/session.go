package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/session"
	"github.com/go-chi/chi/v5"
)

const codeInvalidQuery = "invalid_query"

type userRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type agendaAddRequest struct {
	UserID string `json:"userId"`
	meeting.ItemInput
}

type agendaUpdateRequest struct {
	UserID string `json:"userId"`
	meeting.ItemPatch
}

type reorderRequest struct {
	UserID     string   `json:"userId"`
	OrderedIDs []string `json:"orderedIds"`
}

type extendRequest struct {
	UserID  string `json:"userId"`
	Seconds int    `json:"seconds"`
}

type voteOpenRequest struct {
	UserID         string   `json:"userId"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	LinkedAgendaID string   `json:"linkedAgendaId"`
}

type voteCastRequest struct {
	UserID   string `json:"userId"`
	OptionID string `json:"optionId"`
}

type minutesResponse struct {
	SessionID string    `json:"sessionId"`
	Filename  string    `json:"filename"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// decodeUser reads {userId} from the body, falling back to the userId query
// parameter for bodiless requests such as DELETE.
func decodeUser(w http.ResponseWriter, r *http.Request) (userRequest, bool) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	if req.UserID == "" {
		req.UserID = r.URL.Query().Get("userId")
	}
	return req, true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, res session.Result, err error) {
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	res, err := s.store.Start(req.UserID, req.Username)
	s.respond(w, r, res, err)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	res, err := s.store.Join(sessionID(r), req.UserID, req.Username)
	s.respond(w, r, res, err)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := session.StateQuery{UserID: q.Get("userId")}
	if raw := q.Get("sinceRevision"); raw != "" {
		rev, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidQuery)
			return
		}
		query.SinceRevision = &rev
	}
	if raw := q.Get("waitMs"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuery)
			return
		}
		query.Wait = time.Duration(ms) * time.Millisecond
	}
	res, err := s.store.State(r.Context(), sessionID(r), query)
	s.respond(w, r, res, err)
}

func (s *Server) handleMinutes(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Minutes(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, minutesResponse{
		SessionID: rec.SessionID,
		Filename:  rec.Filename,
		Text:      rec.Text,
		CreatedAt: rec.CreatedAt,
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	res, err := s.store.End(sessionID(r), req.UserID)
	s.respond(w, r, res, err)
}

func (s *Server) handleAgendaAdd(w http.ResponseWriter, r *http.Request) {
	var req agendaAddRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.store.AddItem(sessionID(r), req.UserID, req.ItemInput)
	s.respond(w, r, res, err)
}

func (s *Server) handleAgendaUpdate(w http.ResponseWriter, r *http.Request) {
	var req agendaUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.store.UpdateItem(sessionID(r), req.UserID, chi.URLParam(r, "agendaID"), req.ItemPatch)
	s.respond(w, r, res, err)
}

func (s *Server) handleAgendaDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	res, err := s.store.DeleteItem(sessionID(r), req.UserID, chi.URLParam(r, "agendaID"))
	s.respond(w, r, res, err)
}

func (s *Server) handleAgendaActive(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	res, err := s.store.SetActive(sessionID(r), req.UserID, chi.URLParam(r, "agendaID"))
	s.respond(w, r, res, err)
}

func (s *Server) handleAgendaReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.store.Reorder(sessionID(r), req.UserID, req.OrderedIDs)
	s.respond(w, r, res, err)
}

func (s *Server) handleAgendaNext(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	res, err := s.store.Next(sessionID(r), req.UserID)
	s.respond(w, r, res, err)
}

func (s *Server) handleAgendaPrev(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	res, err := s.store.Prev(sessionID(r), req.UserID)
	s.respond(w, r, res, err)
}

func (s *Server) handleTimer(op func(id, userID string) (session.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeUser(w, r)
		if !ok {
			return
		}
		res, err := op(sessionID(r), req.UserID)
		s.respond(w, r, res, err)
	}
}

func (s *Server) handleTimerExtend(w http.ResponseWriter, r *http.Request) {
	var req extendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.store.TimerExtend(sessionID(r), req.UserID, req.Seconds)
	s.respond(w, r, res, err)
}

func (s *Server) handleVoteOpen(w http.ResponseWriter, r *http.Request) {
	var req voteOpenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.store.VoteOpen(sessionID(r), req.UserID, req.Question, req.Options, req.LinkedAgendaID)
	s.respond(w, r, res, err)
}

func (s *Server) handleVoteCast(w http.ResponseWriter, r *http.Request) {
	var req voteCastRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.store.VoteCast(sessionID(r), req.UserID, req.OptionID)
	s.respond(w, r, res, err)
}

func (s *Server) handleVoteClose(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	res, err := s.store.VoteClose(sessionID(r), req.UserID)
	s.respond(w, r, res, err)
}
