package room

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
)

// Peer is one connected socket. Send must not block; it reports false when
// the peer cannot keep up, and the room then drops it.
type Peer interface {
	Send(data []byte) bool
	Close()
}

type member struct {
	clientID string
	cred     meeting.Credential
}

type event struct {
	kind    eventKind
	peer    Peer
	msg     ClientMessage
	voteSeq uint64
}

type eventKind int

const (
	eventHello eventKind = iota
	eventMessage
	eventLeave
	eventVoteFlush
)

// Room is a single-threaded actor owning one meeting session and its sockets.
// Every field below inbox is touched only by the run goroutine.
type Room struct {
	id    string
	opts  Options
	inbox chan event
	done  chan struct{}
	once  sync.Once

	// guarded by Hub.mu
	members int
	idle    *time.Timer

	session     *meeting.Session
	peers       map[Peer]*member
	voteSeq     uint64
	votePending bool
	voteTimer   *time.Timer
}

func newRoom(id string, host meeting.HostPolicy, opts Options) *Room {
	return &Room{
		id:      id,
		opts:    opts,
		inbox:   make(chan event, 64),
		done:    make(chan struct{}),
		session: meeting.New(id, host, opts.Now()),
		peers:   make(map[Peer]*member),
	}
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) hello(p Peer, msg ClientMessage) {
	r.send(event{kind: eventHello, peer: p, msg: msg})
}

func (r *Room) handle(p Peer, msg ClientMessage) {
	r.send(event{kind: eventMessage, peer: p, msg: msg})
}

func (r *Room) leave(p Peer) {
	r.send(event{kind: eventLeave, peer: p})
}

func (r *Room) send(ev event) {
	select {
	case r.inbox <- ev:
	case <-r.done:
	}
}

func (r *Room) stop() {
	r.once.Do(func() { close(r.done) })
}

func (r *Room) run() {
	defer r.shutdown()
	for {
		select {
		case <-r.done:
			return
		case ev := <-r.inbox:
			r.dispatch(ev)
		}
	}
}

func (r *Room) shutdown() {
	if r.voteTimer != nil {
		r.voteTimer.Stop()
	}
	for p := range r.peers {
		p.Close()
	}
	r.peers = nil
}

func (r *Room) dispatch(ev event) {
	switch ev.kind {
	case eventHello:
		r.onHello(ev.peer, ev.msg)
	case eventMessage:
		r.onMessage(ev.peer, ev.msg)
	case eventLeave:
		r.onLeave(ev.peer)
	case eventVoteFlush:
		if ev.voteSeq == r.voteSeq && r.votePending {
			r.broadcastState(r.opts.Now())
		}
	}
}

// onHello resolves host status with the latch in HostPolicy.Claim, records
// attendance and re-syncs every socket.
func (r *Room) onHello(p Peer, msg ClientMessage) {
	if msg.ClientID == "" {
		r.deliver(p, encodeError(errMissingClientID, TypeHello))
		return
	}
	now := r.opts.Now()
	cred := meeting.Credential{UserID: msg.UserID, HostKey: msg.HostKey}
	isHost := r.session.Host.Claim(cred, r.opts.Allow)
	r.session.Touch(msg.ClientID, msg.DisplayName, now)
	r.session.Bump(now)
	r.peers[p] = &member{clientID: msg.ClientID, cred: cred}
	slog.Debug("room hello", "room_id", r.id, "client_id", msg.ClientID, "is_host", isHost, "peers", len(r.peers))

	r.deliverJSON(p, HelloAck{
		Type:      TypeHelloAck,
		IsHost:    isHost,
		RoomID:    r.id,
		ClientID:  msg.ClientID,
		ServerNow: now.UnixMilli(),
	})
	r.broadcastState(now)
}

func (r *Room) onMessage(p Peer, msg ClientMessage) {
	m, ok := r.peers[p]
	if !ok {
		r.deliver(p, encodeError(errHelloRequired, msg.Type))
		return
	}
	now := r.opts.Now()
	switch msg.Type {
	case TypeHello:
		r.onHello(p, msg)
		return
	case TypeTimePing:
		r.deliverJSON(p, TimePong{Type: TypeTimePong, ClientSentAt: msg.ClientSentAt, ServerNow: now.UnixMilli()})
		return
	case TypeVoteCast:
		if err := r.session.CastVote(m.clientID, msg.OptionID); err != nil {
			r.deliver(p, encodeError(err, msg.Type))
			return
		}
		r.session.Bump(now)
		r.scheduleVoteBroadcast()
		return
	}

	if _, known := hostCommands[msg.Type]; !known {
		r.deliver(p, encodeError(errUnknownType, msg.Type))
		return
	}
	if err := r.session.Host.Authorize(m.cred, r.opts.Allow); err != nil {
		r.deliver(p, encodeError(err, msg.Type))
		return
	}
	next := r.session.Clone()
	if err := applyHostCommand(next, msg, r.opts.TimerPolicy, now); err != nil {
		r.deliver(p, encodeError(err, msg.Type))
		return
	}
	next.Bump(now)
	r.session = next
	r.broadcastState(now)
}

// onLeave stamps leftAt once the last socket of a client is gone. It neither
// bumps the revision nor broadcasts.
func (r *Room) onLeave(p Peer) {
	m, ok := r.peers[p]
	if !ok {
		return
	}
	delete(r.peers, p)
	slog.Debug("room leave", "room_id", r.id, "client_id", m.clientID, "peers", len(r.peers))
	for _, other := range r.peers {
		if other.clientID == m.clientID {
			return
		}
	}
	r.session.MarkLeft(m.clientID, r.opts.Now())
}

// scheduleVoteBroadcast debounces vote broadcasts: every cast restarts the
// window and only the last one in a quiet window fires.
func (r *Room) scheduleVoteBroadcast() {
	r.votePending = true
	r.voteSeq++
	seq := r.voteSeq
	if r.voteTimer != nil {
		r.voteTimer.Stop()
	}
	r.voteTimer = time.AfterFunc(r.opts.VoteDebounce, func() {
		r.send(event{kind: eventVoteFlush, voteSeq: seq})
	})
}

// broadcastState sends the full snapshot to every socket. It also satisfies
// any pending vote broadcast.
func (r *Room) broadcastState(now time.Time) {
	r.votePending = false
	if r.voteTimer != nil {
		r.voteTimer.Stop()
		r.voteTimer = nil
	}
	data, err := json.Marshal(StateMessage{Type: TypeState, State: r.session.Snapshot(now), ServerNow: now.UnixMilli()})
	if err != nil {
		slog.Error("failed to encode room state", "error", err, "room_id", r.id)
		return
	}
	for p := range r.peers {
		r.deliver(p, data)
	}
}

func (r *Room) deliverJSON(p Peer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode room message", "error", err, "room_id", r.id)
		return
	}
	r.deliver(p, data)
}

// deliver drops peers whose send buffer is full.
func (r *Room) deliver(p Peer, data []byte) {
	if p.Send(data) {
		return
	}
	slog.Warn("dropping slow peer", "room_id", r.id)
	r.onLeave(p)
	p.Close()
}
