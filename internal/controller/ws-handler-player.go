package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/service/room"
)

type PlaybackInput struct {
	RoomScope
	CurrentTime float64 `json:"currentTime" validate:"gte=0"`
}

type SeekInput struct {
	RoomScope
	SeekTo float64 `json:"seekTo" validate:"gte=0"`
}

func (c controller) handlePlay(ctx context.Context, _ *websocket.Conn, input PlaybackInput) error {
	return c.updatePlayback(ctx, input.RoomScope, domain.ActionPlay, input.CurrentTime)
}

func (c controller) handlePause(ctx context.Context, _ *websocket.Conn, input PlaybackInput) error {
	return c.updatePlayback(ctx, input.RoomScope, domain.ActionPause, input.CurrentTime)
}

func (c controller) handleSeek(ctx context.Context, _ *websocket.Conn, input SeekInput) error {
	return c.updatePlayback(ctx, input.RoomScope, domain.ActionSeek, input.SeekTo)
}

func (c controller) updatePlayback(ctx context.Context, scope RoomScope, action domain.Action, currentTime float64) error {
	_, roomID, userID, err := c.boundIdentity(ctx, scope)
	if err != nil {
		return err
	}

	updateResp, err := c.roomService.UpdatePlayback(ctx, &room.UpdatePlaybackParams{
		RoomID:      roomID,
		SenderID:    userID,
		Action:      action,
		CurrentTime: currentTime,
	})
	if err != nil {
		return fmt.Errorf("failed to update playback: %w", err)
	}

	c.broadcast(ctx, updateResp.Conns, &Output{
		Type:    "sync:broadcast",
		Payload: updateResp.Broadcast,
	})

	return nil
}

type PositionUpdateInput struct {
	RoomScope
	CurrentTime float64 `json:"currentTime" validate:"gte=0"`
	IsPlaying   bool    `json:"isPlaying"`
}

func (c controller) handlePositionUpdate(ctx context.Context, _ *websocket.Conn, input PositionUpdateInput) error {
	sess, roomID, userID, err := c.boundIdentity(ctx, input.RoomScope)
	if err != nil {
		return err
	}

	checkResp, err := c.roomService.CheckPosition(ctx, &room.CheckPositionParams{
		RoomID:      roomID,
		SenderID:    userID,
		CurrentTime: input.CurrentTime,
		IsPlaying:   input.IsPlaying,
	})
	if err != nil {
		return fmt.Errorf("failed to check position: %w", err)
	}

	if !checkResp.NeedsResync {
		return nil
	}

	if err := c.writeToConn(ctx, sess, &Output{
		Type:    "sync:force-resync",
		Payload: checkResp.Resync,
	}); err != nil {
		return fmt.Errorf("failed to write force resync: %w", err)
	}

	return nil
}

type BufferingInput struct {
	RoomScope
	Username string `json:"username"`
	// Duration is the stall length in milliseconds, at most a day.
	Duration int64 `json:"duration" validate:"gte=0,lte=86400000"`
}

func (c controller) handleBuffering(ctx context.Context, _ *websocket.Conn, input BufferingInput) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input.RoomScope)
	if err != nil {
		return err
	}

	bufferingResp, err := c.roomService.ReportBuffering(ctx, &room.ReportBufferingParams{
		RoomID:   roomID,
		SenderID: userID,
		Duration: time.Duration(input.Duration) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("failed to report buffering: %w", err)
	}

	if bufferingResp.Changed {
		c.broadcastGroupPause(ctx, bufferingResp.Conns, bufferingResp.Usernames)
	}

	return nil
}

func (c controller) handleBufferResolved(ctx context.Context, _ *websocket.Conn, input RoomScope) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input)
	if err != nil {
		return err
	}

	bufferingResp, err := c.roomService.ResolveBuffering(ctx, &room.ResolveBufferingParams{
		RoomID:   roomID,
		SenderID: userID,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve buffering: %w", err)
	}

	switch {
	case bufferingResp.Resumed:
		c.broadcastGroupResume(ctx, bufferingResp.Conns, bufferingResp.ResumeAt)
	case bufferingResp.Changed:
		c.broadcastGroupPause(ctx, bufferingResp.Conns, bufferingResp.Usernames)
	}

	return nil
}
