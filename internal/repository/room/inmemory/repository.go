package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/lo"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/room"
)

// repo is the room index. It guards membership of the index only; room contents are
// guarded by each room's own lock.
type repo struct {
	rooms  map[string]*domain.Room
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]*domain.Room),
		logger: logger,
	}
}

func (r *repo) Create(ctx context.Context, rm *domain.Room) error {
	r.logger.DebugContext(ctx, "called", "room_id", rm.ID)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[rm.ID]; ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomAlreadyExists)
		return room.ErrRoomAlreadyExists
	}

	r.rooms[rm.ID] = rm
	return nil
}

func (r *repo) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "room_id", roomID, "error", room.ErrRoomNotFound)
		return nil, room.ErrRoomNotFound
	}

	return rm, nil
}

func (r *repo) Exists(_ context.Context, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomID]
	return ok
}

func (r *repo) Delete(ctx context.Context, roomID string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.ErrRoomNotFound
	}

	delete(r.rooms, roomID)
	return nil
}

func (r *repo) List(_ context.Context) []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.rooms)
}

func (r *repo) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
