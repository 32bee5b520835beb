package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
)

// lockRoom returns the room with its lock held. A room deleted while the caller waited
// for the lock is reported as not found.
func (s service) lockRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if err := validateRoomID(roomID); err != nil {
		return nil, err
	}

	r, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoomNotFound, err)
	}

	r.Lock()
	if r.Deleted() {
		r.Unlock()
		return nil, ErrRoomNotFound
	}

	return r, nil
}

func (s service) getMember(r *domain.Room, userID string) (domain.Member, error) {
	member, ok := r.Members.GetByID(userID)
	if !ok {
		return domain.Member{}, ErrUnknownParticipant
	}

	return member, nil
}

func (s service) checkIfMemberHost(r *domain.Room, userID string) error {
	if !r.IsHost(userID) {
		return ErrNotHost
	}

	return nil
}

func (s service) getConns(ctx context.Context, roomID string) []connection.Conn {
	return s.connRepo.GetConns(ctx, roomID)
}

func (s service) getConnsExcept(ctx context.Context, roomID, connID string) []connection.Conn {
	return lo.Filter(s.getConns(ctx, roomID), func(c connection.Conn, _ int) bool {
		return c.ID() != connID
	})
}

func (s service) appendSystemMessage(r *domain.Room, content string) Message {
	m := domain.NewSystemMessage(uuid.NewString(), content, s.now())
	r.Chat.Append(m)

	return toMessage(m)
}

// admit consults limiter. Backend failures are logged and the call is admitted.
func (s service) admit(ctx context.Context, limiter iLimiter, action, key string) error {
	decision, err := limiter.Admit(ctx, key, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "rate limiter failed", "action", action, "error", err)
		return nil
	}

	if !decision.Allowed {
		return &RateLimitError{Action: action, RetryAfter: decision.RetryAfter}
	}

	return nil
}

func (s service) bufferingUsernames(r *domain.Room) []string {
	return lo.FilterMap(r.BufferingUserIDs(), func(userID string, _ int) (string, bool) {
		m, ok := r.Members.GetByID(userID)
		return m.Username, ok
	})
}
