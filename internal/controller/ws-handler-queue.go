package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/service/room"
)

// QueueAddInput fields are checked by the service after the rate limiter, so they carry no tags.
// AddedBy is accepted for compatibility and ignored: the sender's name is used instead.
type QueueAddInput struct {
	RoomScope
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Duration  int    `json:"duration"`
	AddedBy   string `json:"addedBy"`
}

func (c controller) handleQueueAdd(ctx context.Context, _ *websocket.Conn, input QueueAddInput) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input.RoomScope)
	if err != nil {
		return err
	}

	queueResp, err := c.roomService.AddVideo(ctx, &room.AddVideoParams{
		RoomID:    roomID,
		SenderID:  userID,
		VideoID:   input.VideoID,
		Title:     input.Title,
		Thumbnail: input.Thumbnail,
		Duration:  input.Duration,
	})
	if err != nil {
		return fmt.Errorf("failed to add video: %w", err)
	}

	c.broadcastQueue(ctx, queueResp.Conns, queueResp.Queue)

	return nil
}

type QueueRemoveInput struct {
	RoomScope
	VideoID string `json:"videoId" validate:"required"`
}

func (c controller) handleQueueRemove(ctx context.Context, _ *websocket.Conn, input QueueRemoveInput) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input.RoomScope)
	if err != nil {
		return err
	}

	queueResp, err := c.roomService.RemoveVideo(ctx, &room.RemoveVideoParams{
		RoomID:   roomID,
		SenderID: userID,
		VideoID:  input.VideoID,
	})
	if err != nil {
		return fmt.Errorf("failed to remove video: %w", err)
	}

	if queueResp.Changed {
		c.broadcastQueue(ctx, queueResp.Conns, queueResp.Queue)
	}

	return nil
}

type QueueReorderInput struct {
	RoomScope
	OldIndex int `json:"oldIndex"`
	NewIndex int `json:"newIndex"`
}

func (c controller) handleQueueReorder(ctx context.Context, _ *websocket.Conn, input QueueReorderInput) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input.RoomScope)
	if err != nil {
		return err
	}

	queueResp, err := c.roomService.ReorderQueue(ctx, &room.ReorderQueueParams{
		RoomID:   roomID,
		SenderID: userID,
		OldIndex: input.OldIndex,
		NewIndex: input.NewIndex,
	})
	if err != nil {
		return fmt.Errorf("failed to reorder queue: %w", err)
	}

	c.broadcastQueue(ctx, queueResp.Conns, queueResp.Queue)

	return nil
}

func (c controller) handleQueuePlayNext(ctx context.Context, _ *websocket.Conn, input RoomScope) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input)
	if err != nil {
		return err
	}

	playNextResp, err := c.roomService.PlayNext(ctx, &room.PlayNextParams{
		RoomID:   roomID,
		SenderID: userID,
	})
	if err != nil {
		return fmt.Errorf("failed to play next video: %w", err)
	}

	if !playNextResp.Played {
		return nil
	}

	c.broadcast(ctx, playNextResp.Conns, &Output{
		Type: "video:change",
		Payload: map[string]any{
			"videoId": playNextResp.Video.VideoID,
			"title":   playNextResp.Video.Title,
		},
	})
	c.broadcast(ctx, playNextResp.Conns, &Output{
		Type:    "sync:broadcast",
		Payload: playNextResp.Broadcast,
	})
	c.broadcastQueue(ctx, playNextResp.Conns, playNextResp.Queue)
	c.broadcastMessages(ctx, playNextResp.Conns, playNextResp.SystemMessage)

	return nil
}

func (c controller) handleQueueClear(ctx context.Context, _ *websocket.Conn, input RoomScope) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input)
	if err != nil {
		return err
	}

	queueResp, err := c.roomService.ClearQueue(ctx, &room.ClearQueueParams{
		RoomID:   roomID,
		SenderID: userID,
	})
	if err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}

	c.broadcastQueue(ctx, queueResp.Conns, queueResp.Queue)

	return nil
}
