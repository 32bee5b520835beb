package controller

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// session is one WebSocket connection. gorilla/websocket allows a single concurrent writer,
// so every write goes through writeMu.
type session struct {
	id        string
	conn      *websocket.Conn
	writeWait time.Duration
	writeMu   sync.Mutex

	mu       sync.RWMutex
	roomID   string
	userID   string
	username string
}

func newSession(id string, conn *websocket.Conn, writeWait time.Duration) *session {
	return &session{
		id:        id,
		conn:      conn,
		writeWait: writeWait,
	}
}

func (s *session) ID() string {
	return s.id
}

func (s *session) WriteJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.writeJSONLocked(v)
}

func (s *session) writeJSONLocked(v any) error {
	s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	return s.conn.WriteJSON(v)
}

// holdWrites blocks other writers until the returned func is called. Join uses it so that
// room:joined reaches the client before any broadcast that already includes the new member.
func (s *session) holdWrites() (release func()) {
	s.writeMu.Lock()
	return s.writeMu.Unlock
}

func (s *session) CloseWithReason(code int, reason string) error {
	s.writeMu.Lock()
	s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(s.writeWait))
	s.writeMu.Unlock()

	return s.conn.Close()
}

func (s *session) ping() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeWait))
}

func (s *session) extendReadDeadline(d time.Duration) error {
	return s.conn.SetReadDeadline(time.Now().Add(d))
}

func (s *session) bind(roomID, userID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roomID, s.userID, s.username = roomID, userID, username
}

func (s *session) unbind() {
	s.bind("", "", "")
}

// identity reports the room and user bound by a successful room:join.
func (s *session) identity() (roomID, userID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.roomID, s.userID, s.roomID != ""
}
