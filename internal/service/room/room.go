package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/room"
)

const createRoomAttempts = 5

type CreateRoomParams struct {
	HostUserID string
}

type CreateRoomResponse struct {
	RoomID string
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	if params.HostUserID != "" {
		if err := validateUserID(params.HostUserID); err != nil {
			return CreateRoomResponse{}, err
		}
	}

	for i := 0; i < createRoomAttempts; i++ {
		roomID := s.generator.GenerateRandomString(roomIDLength)
		r := domain.NewRoom(roomID, params.HostUserID, s.roomConfig, s.now())

		err := s.roomRepo.Create(ctx, r)
		if errors.Is(err, room.ErrRoomAlreadyExists) {
			continue
		}
		if err != nil {
			return CreateRoomResponse{}, fmt.Errorf("failed to create room: %w", err)
		}

		s.logger.InfoContext(ctx, "room created", "room_id", roomID)
		return CreateRoomResponse{RoomID: roomID}, nil
	}

	return CreateRoomResponse{}, errors.New("failed to generate unique room id")
}

func (s service) GetRoomSummary(ctx context.Context, roomID string) (RoomSummary, error) {
	r, err := s.lockRoom(ctx, roomID)
	if err != nil {
		return RoomSummary{}, err
	}
	defer r.Unlock()

	return RoomSummary{
		RoomID:           r.ID,
		ParticipantCount: r.Members.Length(),
		CreatedAt:        r.CreatedAt.UnixMilli(),
	}, nil
}

type DeleteRoomParams struct {
	RoomID   string
	SenderID string
}

type DeleteRoomResponse struct {
	Conns []connection.Conn
}

func (s service) DeleteRoom(ctx context.Context, params *DeleteRoomParams) (DeleteRoomResponse, error) {
	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return DeleteRoomResponse{}, err
	}
	defer r.Unlock()

	if err := s.checkIfMemberHost(r, params.SenderID); err != nil {
		return DeleteRoomResponse{}, err
	}

	conns := s.deleteLocked(ctx, r)
	s.logger.InfoContext(ctx, "room deleted by host", "room_id", r.ID)

	return DeleteRoomResponse{Conns: conns}, nil
}

// deleteLocked removes a room whose lock the caller holds and returns its former subscribers.
func (s service) deleteLocked(ctx context.Context, r *domain.Room) []connection.Conn {
	r.MarkDeleted()
	if err := s.roomRepo.Delete(ctx, r.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete room from registry", "room_id", r.ID, "error", err)
	}

	return s.connRepo.RemoveRoom(ctx, r.ID)
}

type SweptRoom struct {
	RoomID string
	Conns  []connection.Conn
}

// SweepInactive deletes every room idle for longer than timeout, connected participants or not.
func (s service) SweepInactive(ctx context.Context, now time.Time, timeout time.Duration) []SweptRoom {
	var swept []SweptRoom

	for _, r := range s.roomRepo.List(ctx) {
		r.Lock()
		if r.Deleted() || !r.IsIdle(now, timeout) {
			r.Unlock()
			continue
		}

		idle := now.Sub(r.LastActivityAt())
		conns := s.deleteLocked(ctx, r)
		r.Unlock()

		s.logger.InfoContext(ctx, "inactive room swept",
			"room_id", r.ID,
			"idle", idle.String(),
			"subscribers", len(conns),
		)
		swept = append(swept, SweptRoom{RoomID: r.ID, Conns: conns})
	}

	return swept
}

func (s service) RoomExists(ctx context.Context, roomID string) bool {
	if validation.Validate(roomID, RoomIDRule...) != nil {
		return false
	}

	return s.roomRepo.Exists(ctx, roomID)
}
