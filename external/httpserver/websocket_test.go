package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type wireMessage struct {
	Type      string          `json:"type"`
	IsHost    bool            `json:"isHost"`
	Error     string          `json:"error"`
	Attempted string          `json:"attempted"`
	State     json.RawMessage `json:"state"`
	ServerNow int64           `json:"serverNow"`
}

func dialRoom(t *testing.T, ts *testServer, roomID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?roomId=" + roomID
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg map[string]any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(msg))
}

// readUntil skips messages until one of the given type arrives.
func readUntil(t *testing.T, ws *websocket.Conn, typ string) wireMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg wireMessage
		require.NoError(t, ws.ReadJSON(&msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func createRoom(t *testing.T, ts *testServer) roomCreateResponse {
	t.Helper()
	status, raw := ts.do(t, http.MethodPost, "/room/create", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var created roomCreateResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotEmpty(t, created.RoomID)
	require.NotEmpty(t, created.HostKey)
	return created
}

func TestWebSocket_HostAndGuest(t *testing.T) {
	ts := newTestServer(t)
	created := createRoom(t, ts)

	host := dialRoom(t, ts, created.RoomID)
	send(t, host, map[string]any{"type": "HELLO", "clientId": "c-host", "hostKey": created.HostKey, "displayName": "Host"})
	ack := readUntil(t, host, "HELLO_ACK")
	require.True(t, ack.IsHost)
	readUntil(t, host, "STATE")

	guest := dialRoom(t, ts, created.RoomID)
	send(t, guest, map[string]any{"type": "HELLO", "clientId": "c-guest", "displayName": "Ann"})
	guestAck := readUntil(t, guest, "HELLO_ACK")
	require.False(t, guestAck.IsHost)
	readUntil(t, guest, "STATE")

	send(t, guest, map[string]any{"type": "TIMER_START"})
	rejected := readUntil(t, guest, "ERROR")
	require.Equal(t, "forbidden", rejected.Error)
	require.Equal(t, "TIMER_START", rejected.Attempted)

	send(t, host, map[string]any{"type": "AGENDA_ADD", "title": "Budget", "durationSec": 60})
	state := readUntil(t, guest, "STATE")
	require.NotContains(t, string(state.State), created.HostKey)
	require.Contains(t, string(state.State), "Budget")

	send(t, guest, map[string]any{"type": "TIME_PING", "clientSentAt": 42})
	pong := readUntil(t, guest, "TIME_PONG")
	require.NotZero(t, pong.ServerNow)

	require.Equal(t, 1, ts.hub.RoomCount())
}

func TestWebSocket_HelloRequired(t *testing.T) {
	ts := newTestServer(t)
	ws := dialRoom(t, ts, "room-1")

	send(t, ws, map[string]any{"type": "TIME_PING", "clientSentAt": 1})
	msg := readUntil(t, ws, "ERROR")
	require.Equal(t, "hello_required", msg.Error)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
}

func TestWebSocket_RoomCreateAfterClose(t *testing.T) {
	ts := newTestServer(t)
	ts.hub.Close()
	ts.expectError(t, http.MethodPost, "/room/create", nil, http.StatusServiceUnavailable, "shutting_down")
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRoomCreate_LogsOnce(t *testing.T) {
	var logs lockedBuffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ts := newTestServer(t)
	created := createRoom(t, ts)

	require.Equal(t, 1, strings.Count(logs.String(), `msg="room created"`))
	require.Contains(t, logs.String(), "room_id="+created.RoomID)
}
