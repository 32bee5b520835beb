package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	connrepo "github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	"github.com/sharetube/watchparty/internal/repository/ratelimit"
	ratelimitmem "github.com/sharetube/watchparty/internal/repository/ratelimit/inmemory"
	roomrepo "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/ytvideodata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 2 * time.Second

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type testServer struct {
	c   *controller
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
			fmt.Fprint(w, `{"title":"Never Gonna Give You Up","author_name":"Rick Astley","thumbnail_url":"https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(oembed.Close)

	roomService := room.NewService(
		roomrepo.NewRepo(logger),
		connrepo.NewRepo(logger),
		ratelimitmem.New(ratelimit.ChatRule, logger),
		ratelimitmem.New(ratelimit.QueueAddRule, logger),
		&room.Config{MembersLimit: 3, PlaylistLimit: 100, ChatLimit: 200},
		logger,
	)
	videoData := ytvideodata.New("", ytvideodata.WithBaseURLs("", oembed.URL, oembed.URL+"/page/"))

	c := NewController(roomService, videoData, &Config{}, logger)
	srv := httptest.NewServer(c.GetMux())
	t.Cleanup(srv.Close)

	return &testServer{c: c, srv: srv}
}

func (ts *testServer) createRoom(t *testing.T) string {
	t.Helper()

	resp, err := http.Post(ts.srv.URL+"/api/v1/rooms", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Data createRoomResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.RoomID, 10)

	return body.Data.RoomID
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, messageType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": messageType, "payload": payload}))
}

// readUntil skips events until one of messageType arrives.
func readUntil(t *testing.T, conn *websocket.Conn, messageType string) json.RawMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	for {
		var msg inbound
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", messageType)
		if msg.Type == messageType {
			return msg.Payload
		}
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (ts *testServer) join(t *testing.T, roomID, userID, username string) (*websocket.Conn, room.RoomSnapshot) {
	t.Helper()

	conn := ts.dial(t)
	send(t, conn, "room:join", map[string]any{
		"roomId":   roomID,
		"userId":   userID,
		"username": username,
		"isGuest":  true,
	})

	snapshot := decode[room.RoomSnapshot](t, readUntil(t, conn, "room:joined"))
	return conn, snapshot
}

func TestJoinOverWebSocket(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)

	alice, aliceSnapshot := ts.join(t, roomID, "A1", "Alice")
	assert.Equal(t, "A1", aliceSnapshot.HostUserID)
	msg := decode[room.Message](t, readUntil(t, alice, "chat:new-message"))
	assert.Equal(t, "Alice joined the party", msg.Content)

	bob, bobSnapshot := ts.join(t, roomID, "B1", "Bob")
	require.Len(t, bobSnapshot.Participants, 2)
	assert.Equal(t, "Alice", bobSnapshot.Participants[0].Username)
	assert.Equal(t, "Bob", bobSnapshot.Participants[1].Username)
	assert.Empty(t, bobSnapshot.Queue)
	require.NotEmpty(t, bobSnapshot.ChatHistory)
	assert.Equal(t, "Alice joined the party", bobSnapshot.ChatHistory[0].Content)
	assert.Equal(t, "system", bobSnapshot.ChatHistory[0].Type)

	joined := decode[map[string]any](t, readUntil(t, alice, "participant:joined"))
	assert.Equal(t, "B1", joined["userId"])
	assert.Equal(t, "Bob", joined["username"])
	assert.Equal(t, true, joined["isGuest"])
	assert.NotEmpty(t, joined["socketId"])

	msg = decode[room.Message](t, readUntil(t, bob, "chat:new-message"))
	assert.Equal(t, "Bob joined the party", msg.Content)

	resp, err := http.Get(ts.srv.URL + "/api/v1/rooms/" + roomID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data room.RoomSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Data.ParticipantCount)
}

func TestErrorsOverWebSocket(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)

	cases := []struct {
		name        string
		messageType string
		payload     any
		errorType   string
	}{
		{"event before join", "chat:message", map[string]any{"content": "hi"}, "invalid_input"},
		{"unknown event", "room:dance", nil, "invalid_input"},
		{"malformed payload", "room:join", "not an object", "invalid_input"},
		{"missing room", "room:join", map[string]any{"roomId": "abcdefghij", "userId": "Z1", "username": "Zed"}, "room_not_found"},
		{"bad username", "room:join", map[string]any{"roomId": roomID, "userId": "Z1", "username": "<b>"}, "invalid_username"},
		{"missing user id", "room:join", map[string]any{"roomId": roomID, "username": "Zed"}, "invalid_input"},
	}

	conn := ts.dial(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			send(t, conn, tc.messageType, tc.payload)
			payload := decode[ErrorPayload](t, readUntil(t, conn, "room:error"))
			assert.True(t, payload.Error)
			assert.Equal(t, tc.errorType, payload.Type)
		})
	}
}

func TestRoomFullOverWebSocket(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)

	ts.join(t, roomID, "A1", "Alice")
	ts.join(t, roomID, "B1", "Bob")
	ts.join(t, roomID, "C1", "Carol")

	conn := ts.dial(t)
	send(t, conn, "room:join", map[string]any{"roomId": roomID, "userId": "D1", "username": "Dave"})
	payload := decode[ErrorPayload](t, readUntil(t, conn, "room:error"))
	assert.Equal(t, "room_full", payload.Type)
	assert.False(t, payload.Retryable)
}

func TestChatOverWebSocket(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)
	alice, _ := ts.join(t, roomID, "A1", "Alice")
	readUntil(t, alice, "chat:new-message")

	send(t, alice, "chat:message", map[string]any{"roomId": roomID, "userId": "A1", "content": "check this out 1:32"})
	msg := decode[room.Message](t, readUntil(t, alice, "chat:new-message"))
	assert.Equal(t, "timestamp-link", msg.Type)
	require.NotNil(t, msg.VideoTimestamp)
	assert.Equal(t, 92, *msg.VideoTimestamp)

	send(t, alice, "chat:add-reaction", map[string]any{"messageId": msg.MessageID, "emoji": "🔥"})
	reaction := decode[map[string]any](t, readUntil(t, alice, "chat:reaction-added"))
	assert.Equal(t, msg.MessageID, reaction["messageId"])
	assert.Equal(t, "🔥", reaction["emoji"])
	assert.Equal(t, "A1", reaction["userId"])

	send(t, alice, "chat:message", map[string]any{"roomId": "zzzzzzzzzz", "content": "wrong room"})
	payload := decode[ErrorPayload](t, readUntil(t, alice, "room:error"))
	assert.Equal(t, "invalid_input", payload.Type)

	for i := 0; i < 4; i++ {
		send(t, alice, "chat:message", map[string]any{"content": fmt.Sprintf("msg %d", i)})
	}
	send(t, alice, "chat:message", map[string]any{"content": "one too many"})

	payload = decode[ErrorPayload](t, readUntil(t, alice, "room:error"))
	assert.Equal(t, "rate_limit", payload.Type)
	assert.True(t, payload.Retryable)
	require.NotNil(t, payload.RetryAfter)
	assert.Greater(t, *payload.RetryAfter, int64(0))
	assert.LessOrEqual(t, *payload.RetryAfter, int64(5000))
}

func TestPlaybackOverWebSocket(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)
	alice, _ := ts.join(t, roomID, "A1", "Alice")
	bob, _ := ts.join(t, roomID, "B1", "Bob")

	send(t, bob, "video:play", map[string]any{"currentTime": 10})
	for _, conn := range []*websocket.Conn{alice, bob} {
		broadcast := decode[room.SyncBroadcast](t, readUntil(t, conn, "sync:broadcast"))
		assert.Equal(t, "play", broadcast.Action)
		assert.Equal(t, 10.0, broadcast.CurrentTime)
		assert.Equal(t, "Bob", broadcast.InitiatedBy)
	}

	send(t, alice, "sync:position-update", map[string]any{"currentTime": 500, "isPlaying": true})
	resync := decode[room.ForceResync](t, readUntil(t, alice, "sync:force-resync"))
	assert.InDelta(t, 10, resync.CurrentTime, 2)
	assert.True(t, resync.IsPlaying)

	send(t, alice, "video:seek", map[string]any{"seekTo": -5})
	payload := decode[ErrorPayload](t, readUntil(t, alice, "room:error"))
	assert.Equal(t, "invalid_input", payload.Type)
}

func TestGroupBufferingOverWebSocket(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)
	alice, _ := ts.join(t, roomID, "A1", "Alice")
	bob, _ := ts.join(t, roomID, "B1", "Bob")

	for _, duration := range []any{int64(1) << 62, -1} {
		send(t, alice, "sync:buffering", map[string]any{"username": "Alice", "duration": duration})
		payload := decode[ErrorPayload](t, readUntil(t, alice, "room:error"))
		assert.Equal(t, "invalid_input", payload.Type)
		assert.NotContains(t, payload.Message, "negative buffering duration")
	}

	send(t, alice, "sync:buffering", map[string]any{"username": "Alice", "duration": 6000})
	first := decode[map[string]any](t, readUntil(t, bob, "sync:group-pause"))
	assert.Equal(t, "buffering", first["reason"])

	send(t, bob, "sync:buffering", map[string]any{"username": "Bob", "duration": 7000})
	second := decode[map[string]any](t, readUntil(t, bob, "sync:group-pause"))
	assert.ElementsMatch(t, []any{"Alice", "Bob"}, second["usernames"])

	send(t, alice, "sync:buffer-resolved", map[string]any{})
	remaining := decode[map[string]any](t, readUntil(t, bob, "sync:group-pause"))
	assert.Equal(t, []any{"Bob"}, remaining["usernames"])

	send(t, bob, "sync:buffer-resolved", map[string]any{})
	resume := decode[map[string]any](t, readUntil(t, alice, "sync:group-resume"))
	assert.Contains(t, resume, "currentTime")
	readUntil(t, bob, "sync:group-resume")

	send(t, bob, "sync:buffer-resolved", map[string]any{})
	send(t, bob, "connection:heartbeat", nil)
	send(t, bob, "chat:message", map[string]any{"content": "marker"})

	// no second resume arrives before the marker
	bob.SetReadDeadline(time.Now().Add(readTimeout))
	for {
		var msg inbound
		require.NoError(t, bob.ReadJSON(&msg))
		require.NotEqual(t, "sync:group-resume", msg.Type, "group resumed twice")
		if msg.Type == "chat:new-message" && strings.Contains(string(msg.Payload), "marker") {
			break
		}
	}
}

func TestQueueOverWebSocket(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)
	alice, _ := ts.join(t, roomID, "A1", "Alice")

	send(t, alice, "queue:add", map[string]any{
		"videoId":   "dQw4w9WgXcQ",
		"title":     "Never Gonna Give You Up",
		"thumbnail": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		"duration":  213,
		"addedBy":   "Mallory",
	})
	updated := decode[map[string][]room.Video](t, readUntil(t, alice, "queue:updated"))
	require.Len(t, updated["queue"], 1)
	assert.Equal(t, "Alice", updated["queue"][0].AddedBy)

	send(t, alice, "queue:add", map[string]any{"videoId": "short"})
	payload := decode[ErrorPayload](t, readUntil(t, alice, "room:error"))
	assert.Equal(t, "invalid_input", payload.Type)

	send(t, alice, "queue:play-next", map[string]any{})
	change := decode[map[string]any](t, readUntil(t, alice, "video:change"))
	assert.Equal(t, "dQw4w9WgXcQ", change["videoId"])
	broadcast := decode[room.SyncBroadcast](t, readUntil(t, alice, "sync:broadcast"))
	require.NotNil(t, broadcast.VideoID)
	assert.Equal(t, "dQw4w9WgXcQ", *broadcast.VideoID)
	updated = decode[map[string][]room.Video](t, readUntil(t, alice, "queue:updated"))
	assert.Empty(t, updated["queue"])
	msg := decode[room.Message](t, readUntil(t, alice, "chat:new-message"))
	assert.Equal(t, "Now playing: Never Gonna Give You Up", msg.Content)
}

func TestKickOverWebSocket(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)
	alice, _ := ts.join(t, roomID, "A1", "Alice")
	bob, _ := ts.join(t, roomID, "B1", "Bob")

	send(t, bob, "room:kick", map[string]any{"targetUserId": "A1"})
	payload := decode[ErrorPayload](t, readUntil(t, bob, "room:error"))
	assert.Equal(t, "not_host", payload.Type)

	send(t, alice, "room:kick", map[string]any{"roomId": roomID, "targetUserId": "B1"})
	readUntil(t, bob, "room:kicked")

	bob.SetReadDeadline(time.Now().Add(readTimeout))
	_, _, err := bob.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, closeCodeKicked), "unexpected error: %v", err)

	left := decode[map[string]any](t, readUntil(t, alice, "participant:left"))
	assert.Equal(t, "B1", left["userId"])
	msg := decode[room.Message](t, readUntil(t, alice, "chat:new-message"))
	assert.Equal(t, "Bob was kicked", msg.Content)
}

func TestDisconnectTransfersHost(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)
	alice, _ := ts.join(t, roomID, "A1", "Alice")
	bob, _ := ts.join(t, roomID, "B1", "Bob")

	alice.Close()

	left := decode[map[string]any](t, readUntil(t, bob, "participant:left"))
	assert.Equal(t, "A1", left["userId"])
	changed := decode[map[string]any](t, readUntil(t, bob, "room:host-changed"))
	assert.Equal(t, "B1", changed["newHostUserId"])
}

func TestRejoinReplacesConnection(t *testing.T) {
	ts := newTestServer(t)
	roomID := ts.createRoom(t)
	first, _ := ts.join(t, roomID, "A1", "Alice")
	bob, _ := ts.join(t, roomID, "B1", "Bob")

	_, snapshot := ts.join(t, roomID, "A1", "Alice")
	assert.Len(t, snapshot.Participants, 2)
	assert.Equal(t, "A1", snapshot.HostUserID)

	first.SetReadDeadline(time.Now().Add(readTimeout))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, closeCodeReplaced), "unexpected error: %v", err)
			break
		}
	}

	// the replaced socket closing must not remove Alice
	send(t, bob, "chat:message", map[string]any{"content": "marker"})
	bob.SetReadDeadline(time.Now().Add(readTimeout))
	for {
		var msg inbound
		require.NoError(t, bob.ReadJSON(&msg))
		require.NotEqual(t, "participant:left", msg.Type)
		if msg.Type == "chat:new-message" && strings.Contains(string(msg.Payload), "marker") {
			break
		}
	}
}

func TestDeleteAndSweepOverWebSocket(t *testing.T) {
	ts := newTestServer(t)

	deleted := ts.createRoom(t)
	alice, _ := ts.join(t, deleted, "A1", "Alice")
	bob, _ := ts.join(t, deleted, "B1", "Bob")

	send(t, bob, "room:delete", map[string]any{})
	payload := decode[ErrorPayload](t, readUntil(t, bob, "room:error"))
	assert.Equal(t, "not_host", payload.Type)

	send(t, alice, "room:delete", map[string]any{"roomId": deleted})
	for _, conn := range []*websocket.Conn{alice, bob} {
		event := decode[map[string]any](t, readUntil(t, conn, "room:deleted"))
		assert.Equal(t, deleted, event["roomId"])
	}

	idle := ts.createRoom(t)
	send(t, bob, "room:join", map[string]any{"roomId": idle, "userId": "B1", "username": "Bob"})
	readUntil(t, bob, "room:joined")

	assert.Equal(t, 0, ts.c.sweep(context.Background(), time.Now(), 24*time.Hour))
	assert.Equal(t, 1, ts.c.sweep(context.Background(), time.Now().Add(25*time.Hour), 24*time.Hour))

	event := decode[map[string]any](t, readUntil(t, bob, "room:deleted"))
	assert.Equal(t, idle, event["roomId"])
	assert.Equal(t, "inactive", event["reason"])
}

func TestRESTEndpoints(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name   string
		path   string
		status int
	}{
		{"healthz", "/api/v1/healthz", http.StatusOK},
		{"missing room", "/api/v1/rooms/abcdefghij", http.StatusNotFound},
		{"malformed room id", "/api/v1/rooms/abc", http.StatusBadRequest},
		{"video", "/api/v1/videos/dQw4w9WgXcQ", http.StatusOK},
		{"unknown video", "/api/v1/videos/aaaaaaaaaaa", http.StatusNotFound},
		{"malformed video id", "/api/v1/videos/abc", http.StatusBadRequest},
		{"search without key", "/api/v1/videos/search?q=cats", http.StatusServiceUnavailable},
		{"search without query", "/api/v1/videos/search", http.StatusBadRequest},
		{"search bad max", "/api/v1/videos/search?q=cats&max=500", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(ts.srv.URL + tc.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	resp, err := http.Post(ts.srv.URL+"/api/v1/rooms", "application/json", strings.NewReader(`{"unknown":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
