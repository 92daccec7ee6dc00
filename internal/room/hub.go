package room

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const defaultVoteDebounce = 500 * time.Millisecond

var ErrHubClosed = errors.New("room: hub closed")

type Options struct {
	Allow       meeting.AllowList
	TimerPolicy meeting.TimerPolicy
	// VoteDebounce is the quiet window before coalesced vote casts are broadcast.
	VoteDebounce      time.Duration
	IdleTTL           time.Duration
	MessagesPerSecond float64
	MessageBurst      int
	Now               func() time.Time
}

// Hub owns every live room. Rooms are created on first HELLO (or ahead of
// time by Create) and discarded after staying empty for IdleTTL.
type Hub struct {
	opts Options

	mu     sync.Mutex
	rooms  map[string]*Room
	closed bool
	wg     sync.WaitGroup
}

func NewHub(opts Options) *Hub {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.VoteDebounce <= 0 {
		opts.VoteDebounce = defaultVoteDebounce
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 2 * time.Hour
	}
	if opts.TimerPolicy == (meeting.TimerPolicy{}) {
		opts.TimerPolicy = meeting.DefaultTimerPolicy
	}
	if opts.MessagesPerSecond <= 0 {
		opts.MessagesPerSecond = 20
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = 40
	}
	return &Hub{opts: opts, rooms: make(map[string]*Room)}
}

// Create opens a room in shared-secret mode and returns its id and host key.
func (h *Hub) Create() (string, string, error) {
	hostKey := rand.Text()
	roomID := uuid.NewString()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return "", "", ErrHubClosed
	}
	r := h.startLocked(roomID, meeting.SharedSecretHost(hostKey))
	h.armIdleLocked(r)
	slog.Info("room created", "room_id", roomID)
	return roomID, hostKey, nil
}

func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Close stops every room and waits for their actors to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, r := range h.rooms {
		if r.idle != nil {
			r.idle.Stop()
		}
		r.stop()
		delete(h.rooms, id)
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// Serve drives one connection: the first message must be HELLO, after which
// messages are rate limited and forwarded to the room actor until the
// connection fails or ctx is done.
func (h *Hub) Serve(ctx context.Context, roomID string, conn Conn) error {
	raw, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	hello, err := decodeClientMessage(raw)
	if err != nil || hello.Type != TypeHello {
		conn.Send(encodeError(errHelloRequired, hello.Type))
		return errHelloRequired
	}
	if roomID == "" {
		roomID = hello.RoomID
	}
	if roomID == "" {
		conn.Send(encodeError(errMissingRoomID, TypeHello))
		return errMissingRoomID
	}

	r, err := h.acquire(roomID)
	if err != nil {
		return err
	}
	defer h.release(r, conn)
	r.hello(conn, hello)

	limiter := rate.NewLimiter(rate.Limit(h.opts.MessagesPerSecond), h.opts.MessageBurst)
	for {
		raw, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if !limiter.Allow() {
			conn.Send(encodeError(errRateLimited, ""))
			continue
		}
		msg, err := decodeClientMessage(raw)
		if err != nil {
			conn.Send(encodeError(err, ""))
			continue
		}
		r.handle(conn, msg)
	}
}

func (h *Hub) acquire(roomID string) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	r, ok := h.rooms[roomID]
	if !ok {
		// Only an allow-listed identity may claim a room nobody created.
		r = h.startLocked(roomID, meeting.AllowListHost(""))
	}
	r.members++
	if r.idle != nil {
		r.idle.Stop()
		r.idle = nil
	}
	return r, nil
}

func (h *Hub) release(r *Room, p Peer) {
	r.leave(p)
	h.mu.Lock()
	defer h.mu.Unlock()
	r.members--
	if r.members == 0 && !h.closed {
		h.armIdleLocked(r)
	}
}

func (h *Hub) startLocked(roomID string, host meeting.HostPolicy) *Room {
	r := newRoom(roomID, host, h.opts)
	h.rooms[roomID] = r
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		r.run()
	}()
	return r
}

func (h *Hub) armIdleLocked(r *Room) {
	if r.idle != nil {
		r.idle.Stop()
	}
	r.idle = time.AfterFunc(h.opts.IdleTTL, func() { h.expire(r) })
}

func (h *Hub) expire(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.members > 0 || h.rooms[r.id] != r {
		return
	}
	delete(h.rooms, r.id)
	r.idle = nil
	r.stop()
	slog.Info("room expired", "room_id", r.id)
}
