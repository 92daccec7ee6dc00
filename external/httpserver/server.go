package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/identity"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/room"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const (
	readHeaderTimeout = 10 * time.Second
	maxBodyBytes      = 1 << 20
)

// Server wires the session store, the room hub and the identity provider to
// HTTP handlers.
type Server struct {
	store    *session.Store
	hub      *room.Hub
	identity identity.Provider
	upgrader websocket.Upgrader
}

// NewRouter builds the public HTTP surface.
func NewRouter(store *session.Store, hub *room.Hub, provider identity.Provider) *chi.Mux {
	srv := &Server{
		store:    store,
		hub:      hub,
		identity: provider,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Activities are served from Discord's proxy origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	r.Get("/health", srv.handleHealth)
	r.Get("/ws", srv.handleWebSocket)
	r.Post("/room/create", srv.handleRoomCreate)

	r.Route("/api", func(r chi.Router) {
		r.Post("/token", srv.handleToken)
		r.Get("/me", srv.handleMe)
	})

	r.Post("/session/start", srv.handleStart)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Post("/join", srv.handleJoin)
		r.Get("/state", srv.handleState)
		r.Get("/minutes", srv.handleMinutes)
		r.Post("/end", srv.handleEnd)

		r.Post("/agenda", srv.handleAgendaAdd)
		r.Put("/agenda/reorder", srv.handleAgendaReorder)
		r.Post("/agenda/next", srv.handleAgendaNext)
		r.Post("/agenda/prev", srv.handleAgendaPrev)
		r.Put("/agenda/{agendaID}", srv.handleAgendaUpdate)
		r.Delete("/agenda/{agendaID}", srv.handleAgendaDelete)
		r.Post("/agenda/{agendaID}/active", srv.handleAgendaActive)

		r.Post("/timer/start", srv.handleTimer(srv.store.TimerStart))
		r.Post("/timer/pause", srv.handleTimer(srv.store.TimerPause))
		r.Post("/timer/resume", srv.handleTimer(srv.store.TimerResume))
		r.Post("/timer/reset", srv.handleTimer(srv.store.TimerReset))
		r.Post("/timer/extend", srv.handleTimerExtend)

		r.Post("/vote/open", srv.handleVoteOpen)
		r.Post("/vote/cast", srv.handleVoteCast)
		r.Post("/vote/close", srv.handleVoteClose)
	})

	return r
}

// NewHTTPServer wraps handler in an http.Server listening on addr.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}
}

type healthResponse struct {
	Status       string                    `json:"status"`
	Sessions     int                       `json:"sessions"`
	Rooms        int                       `json:"rooms"`
	PendingSaves int                       `json:"pendingSaves"`
	Persistence  session.PersistenceHealth `json:"persistence"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := s.store.Health()
	status := "ok"
	if h.Persistence.ConsecutiveFailures > 0 {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       status,
		Sessions:     h.Sessions,
		Rooms:        s.hub.RoomCount(),
		PendingSaves: h.PendingSaves,
		Persistence:  h.Persistence,
	})
}
