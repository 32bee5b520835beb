package room

import (
	"context"
	"fmt"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
)

type UpdatePlaybackParams struct {
	RoomID      string
	SenderID    string
	Action      domain.Action
	CurrentTime float64
}

type UpdatePlaybackResponse struct {
	Broadcast SyncBroadcast
	Conns     []connection.Conn
}

func (s service) UpdatePlayback(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	if err := validatePlaybackTime(params.CurrentTime); err != nil {
		return UpdatePlaybackResponse{}, err
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return UpdatePlaybackResponse{}, err
	}
	defer r.Unlock()

	sender, err := s.getMember(r, params.SenderID)
	if err != nil {
		return UpdatePlaybackResponse{}, err
	}

	if err := r.Apply(params.Action, params.CurrentTime, "", s.now()); err != nil {
		return UpdatePlaybackResponse{}, invalidInput("action", err)
	}

	s.logger.DebugContext(ctx, "playback updated",
		"room_id", r.ID,
		"action", params.Action,
		"current_time", params.CurrentTime,
	)

	return UpdatePlaybackResponse{
		Broadcast: syncBroadcast(params.Action, r.Player, sender.Username),
		Conns:     s.getConns(ctx, r.ID),
	}, nil
}

type CheckPositionParams struct {
	RoomID      string
	SenderID    string
	CurrentTime float64
	IsPlaying   bool
}

type CheckPositionResponse struct {
	NeedsResync bool
	Resync      ForceResync
	Drift       float64
}

// CheckPosition compares a client report with the room clock. It never mutates the room.
func (s service) CheckPosition(ctx context.Context, params *CheckPositionParams) (CheckPositionResponse, error) {
	if err := validatePlaybackTime(params.CurrentTime); err != nil {
		return CheckPositionResponse{}, err
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return CheckPositionResponse{}, err
	}
	defer r.Unlock()

	if _, err := s.getMember(r, params.SenderID); err != nil {
		return CheckPositionResponse{}, err
	}

	d := r.Player.CheckDrift(params.CurrentTime, params.IsPlaying, s.now())
	if d.NeedsResync {
		s.logger.DebugContext(ctx, "client drifted", "room_id", r.ID, "user_id", params.SenderID, "drift", d.Drift)
	}

	return CheckPositionResponse{
		NeedsResync: d.NeedsResync,
		Resync: ForceResync{
			CurrentTime: d.CorrectTime,
			IsPlaying:   d.CorrectIsPlaying,
		},
		Drift: d.Drift,
	}, nil
}

type ReportBufferingParams struct {
	RoomID   string
	SenderID string
	Duration time.Duration
}

type GroupBufferingResponse struct {
	// Changed is false when the report did not alter the buffering set.
	Changed   bool
	Paused    bool
	Resumed   bool
	ResumeAt  float64
	Usernames []string
	Conns     []connection.Conn
}

func (s service) ReportBuffering(ctx context.Context, params *ReportBufferingParams) (GroupBufferingResponse, error) {
	if params.Duration < 0 {
		return GroupBufferingResponse{}, fmt.Errorf("%w: negative buffering duration", ErrInvalidInput)
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return GroupBufferingResponse{}, err
	}
	defer r.Unlock()

	if _, err := s.getMember(r, params.SenderID); err != nil {
		return GroupBufferingResponse{}, err
	}

	if params.Duration < domain.BufferingThreshold {
		return GroupBufferingResponse{}, nil
	}

	added, paused := r.StartBuffering(params.SenderID, s.now())
	if !added {
		return GroupBufferingResponse{}, nil
	}

	usernames := s.bufferingUsernames(r)
	if paused {
		s.logger.InfoContext(ctx, "group paused for buffering", "room_id", r.ID, "user_id", params.SenderID)
	}

	return GroupBufferingResponse{
		Changed:   true,
		Paused:    paused,
		Usernames: usernames,
		Conns:     s.getConns(ctx, r.ID),
	}, nil
}

type ResolveBufferingParams struct {
	RoomID   string
	SenderID string
}

func (s service) ResolveBuffering(ctx context.Context, params *ResolveBufferingParams) (GroupBufferingResponse, error) {
	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return GroupBufferingResponse{}, err
	}
	defer r.Unlock()

	removed, resumed, at := r.StopBuffering(params.SenderID, s.now())
	if !removed {
		return GroupBufferingResponse{}, nil
	}

	if resumed {
		s.logger.InfoContext(ctx, "group resumed", "room_id", r.ID, "current_time", at)
	}

	return GroupBufferingResponse{
		Changed:   true,
		Resumed:   resumed,
		ResumeAt:  at,
		Usernames: s.bufferingUsernames(r),
		Conns:     s.getConns(ctx, r.ID),
	}, nil
}
