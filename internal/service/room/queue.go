package room

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
)

type QueueResponse struct {
	// Changed is false for edits that turned out to be no-ops.
	Changed bool
	Queue   []Video
	Conns   []connection.Conn
}

type AddVideoParams struct {
	RoomID    string
	SenderID  string
	VideoID   string
	Title     string
	Thumbnail string
	Duration  int
}

func (p AddVideoParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.VideoID, VideoIDRule...),
		validation.Field(&p.Title, TitleRule...),
		validation.Field(&p.Thumbnail, ThumbnailRule...),
		validation.Field(&p.Duration, DurationRule...),
	)
}

func (s service) AddVideo(ctx context.Context, params *AddVideoParams) (QueueResponse, error) {
	if err := s.admit(ctx, s.queueLimiter, "queue:add", params.SenderID); err != nil {
		return QueueResponse{}, err
	}

	if err := params.Validate(); err != nil {
		return QueueResponse{}, invalidInput("video", err)
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return QueueResponse{}, err
	}
	defer r.Unlock()

	sender, err := s.getMember(r, params.SenderID)
	if err != nil {
		return QueueResponse{}, err
	}

	now := s.now()
	if err := r.Playlist.Add(domain.Video{
		VideoID:   params.VideoID,
		Title:     params.Title,
		Thumbnail: params.Thumbnail,
		Duration:  params.Duration,
		AddedBy:   sender.Username,
		AddedAt:   now,
	}); err != nil {
		return QueueResponse{}, invalidInput("queue", err)
	}
	r.Touch(now)

	s.logger.InfoContext(ctx, "video queued", "room_id", r.ID, "video_id", params.VideoID, "length", r.Playlist.Length())

	return QueueResponse{
		Changed: true,
		Queue:   toQueue(r.Playlist.AsList()),
		Conns:   s.getConns(ctx, r.ID),
	}, nil
}

type RemoveVideoParams struct {
	RoomID   string
	SenderID string
	VideoID  string
}

func (s service) RemoveVideo(ctx context.Context, params *RemoveVideoParams) (QueueResponse, error) {
	if err := validation.Validate(params.VideoID, VideoIDRule...); err != nil {
		return QueueResponse{}, invalidInput("video id", err)
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return QueueResponse{}, err
	}
	defer r.Unlock()

	if _, err := s.getMember(r, params.SenderID); err != nil {
		return QueueResponse{}, err
	}

	if err := r.Playlist.Remove(params.VideoID); err != nil {
		if errors.Is(err, domain.ErrVideoNotFound) {
			return QueueResponse{Changed: false}, nil
		}
		return QueueResponse{}, fmt.Errorf("failed to remove video: %w", err)
	}
	r.Touch(s.now())

	return QueueResponse{
		Changed: true,
		Queue:   toQueue(r.Playlist.AsList()),
		Conns:   s.getConns(ctx, r.ID),
	}, nil
}

type ReorderQueueParams struct {
	RoomID   string
	SenderID string
	OldIndex int
	NewIndex int
}

func (s service) ReorderQueue(ctx context.Context, params *ReorderQueueParams) (QueueResponse, error) {
	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return QueueResponse{}, err
	}
	defer r.Unlock()

	if _, err := s.getMember(r, params.SenderID); err != nil {
		return QueueResponse{}, err
	}

	if err := r.Playlist.Reorder(params.OldIndex, params.NewIndex); err != nil {
		return QueueResponse{}, invalidInput("queue index", err)
	}
	r.Touch(s.now())

	return QueueResponse{
		Changed: true,
		Queue:   toQueue(r.Playlist.AsList()),
		Conns:   s.getConns(ctx, r.ID),
	}, nil
}

type PlayNextParams struct {
	RoomID   string
	SenderID string
}

type PlayNextResponse struct {
	// Played is false when the queue was empty.
	Played        bool
	Video         Video
	Broadcast     SyncBroadcast
	Queue         []Video
	SystemMessage Message
	Conns         []connection.Conn
}

func (s service) PlayNext(ctx context.Context, params *PlayNextParams) (PlayNextResponse, error) {
	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return PlayNextResponse{}, err
	}
	defer r.Unlock()

	sender, err := s.getMember(r, params.SenderID)
	if err != nil {
		return PlayNextResponse{}, err
	}

	video, ok := r.PlayNext(s.now())
	if !ok {
		s.logger.DebugContext(ctx, "queue finished", "room_id", r.ID)
		return PlayNextResponse{}, nil
	}

	msg := s.appendSystemMessage(r, fmt.Sprintf("Now playing: %s", video.Title))

	s.logger.InfoContext(ctx, "advanced queue", "room_id", r.ID, "video_id", video.VideoID)

	return PlayNextResponse{
		Played:        true,
		Video:         toVideo(video),
		Broadcast:     syncBroadcast(domain.ActionPlay, r.Player, sender.Username),
		Queue:         toQueue(r.Playlist.AsList()),
		SystemMessage: msg,
		Conns:         s.getConns(ctx, r.ID),
	}, nil
}

type ClearQueueParams struct {
	RoomID   string
	SenderID string
}

func (s service) ClearQueue(ctx context.Context, params *ClearQueueParams) (QueueResponse, error) {
	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return QueueResponse{}, err
	}
	defer r.Unlock()

	if err := s.checkIfMemberHost(r, params.SenderID); err != nil {
		return QueueResponse{}, err
	}

	r.Playlist.Clear()
	r.Touch(s.now())

	s.logger.InfoContext(ctx, "queue cleared", "room_id", r.ID)

	return QueueResponse{
		Changed: true,
		Queue:   toQueue(r.Playlist.AsList()),
		Conns:   s.getConns(ctx, r.ID),
	}, nil
}
