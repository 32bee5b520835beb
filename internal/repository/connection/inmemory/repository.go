package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/lo"
	"github.com/sharetube/watchparty/internal/repository/connection"
)

// repo holds the explicit subscriber set of every room.
type repo struct {
	rooms  map[string]map[string]connection.Conn
	byConn map[string]string
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]map[string]connection.Conn),
		byConn: make(map[string]string),
		logger: logger,
	}
}

// Subscribe binds conn to roomID. A connection belongs to at most one room.
func (r *repo) Subscribe(ctx context.Context, roomID string, conn connection.Conn) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomID, "conn_id", conn.ID())
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.byConn[conn.ID()]; ok {
		if current == roomID {
			return nil
		}
		r.logger.DebugContext(ctx, "returned", "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	conns, ok := r.rooms[roomID]
	if !ok {
		conns = make(map[string]connection.Conn)
		r.rooms[roomID] = conns
	}
	conns[conn.ID()] = conn
	r.byConn[conn.ID()] = roomID

	return nil
}

func (r *repo) Unsubscribe(ctx context.Context, connID string) error {
	r.logger.DebugContext(ctx, "called", "conn_id", connID)
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.byConn[connID]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(r.byConn, connID)
	delete(r.rooms[roomID], connID)
	if len(r.rooms[roomID]) == 0 {
		delete(r.rooms, roomID)
	}

	return nil
}

func (r *repo) GetConns(_ context.Context, roomID string) []connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.rooms[roomID])
}

func (r *repo) GetConn(ctx context.Context, connID string) (connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.byConn[connID]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "conn_id", connID, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	return r.rooms[roomID][connID], nil
}

func (r *repo) GetRoomID(_ context.Context, connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.byConn[connID]
	return roomID, ok
}

// RemoveRoom drops every subscription of roomID and returns the dropped connections.
func (r *repo) RemoveRoom(ctx context.Context, roomID string) []connection.Conn {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := lo.Values(r.rooms[roomID])
	for _, c := range conns {
		delete(r.byConn, c.ID())
	}
	delete(r.rooms, roomID)

	return conns
}
