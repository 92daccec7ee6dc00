package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/room"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	maxMessageBytes = 64 << 10
	sendBuffer      = 64
)

type roomCreateResponse struct {
	RoomID  string `json:"roomId"`
	HostKey string `json:"hostKey"`
}

func (s *Server) handleRoomCreate(w http.ResponseWriter, _ *http.Request) {
	roomID, hostKey, err := s.hub.Create()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "shutting_down")
		return
	}
	writeJSON(w, http.StatusOK, roomCreateResponse{RoomID: roomID, HostKey: hostKey})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn := newWSConn(ws)
	go conn.writePump()
	defer conn.Close()
	stop := context.AfterFunc(r.Context(), conn.Close)
	defer stop()

	roomID := r.URL.Query().Get("roomId")
	err = s.hub.Serve(r.Context(), roomID, conn)
	switch {
	case err == nil, errors.Is(err, errConnClosed):
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
	case errors.Is(err, room.ErrHubClosed):
		slog.Debug("websocket rejected during shutdown", "room_id", roomID)
	default:
		slog.Debug("websocket closed", "room_id", roomID, "error", err)
	}
}

var errConnClosed = errors.New("websocket: connection closed")

// wsConn adapts a gorilla connection to room.Conn. Writes go through a
// buffered queue drained by writePump, so Send never blocks the room actor.
type wsConn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSConn(ws *websocket.Conn) *wsConn {
	ws.SetReadLimit(maxMessageBytes)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &wsConn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues data and reports false when the queue is full or the
// connection is closing.
func (c *wsConn) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close asks writePump to flush queued messages and close the socket.
func (c *wsConn) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		select {
		case <-c.done:
			return nil, errConnClosed
		default:
		}
		return nil, err
	}
	return data, nil
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

// flush writes whatever is still queued, then a close frame.
func (c *wsConn) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}
		default:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *wsConn) write(data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}
