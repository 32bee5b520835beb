package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/service/room"
)

type ChatMessageInput struct {
	RoomScope
	Content string `json:"content"`
}

func (c controller) handleChatMessage(ctx context.Context, _ *websocket.Conn, input ChatMessageInput) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input.RoomScope)
	if err != nil {
		return err
	}

	postResp, err := c.roomService.PostMessage(ctx, &room.PostMessageParams{
		RoomID:   roomID,
		SenderID: userID,
		Content:  input.Content,
	})
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}

	c.broadcastMessages(ctx, postResp.Conns, postResp.Message)

	return nil
}

type ReactionInput struct {
	RoomScope
	MessageID string `json:"messageId" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
}

func (c controller) handleAddReaction(ctx context.Context, _ *websocket.Conn, input ReactionInput) error {
	return c.editReaction(ctx, input, "chat:reaction-added", c.roomService.AddReaction)
}

func (c controller) handleRemoveReaction(ctx context.Context, _ *websocket.Conn, input ReactionInput) error {
	return c.editReaction(ctx, input, "chat:reaction-removed", c.roomService.RemoveReaction)
}

func (c controller) editReaction(
	ctx context.Context,
	input ReactionInput,
	outputType string,
	edit func(context.Context, *room.ReactionParams) (room.ReactionResponse, error),
) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input.RoomScope)
	if err != nil {
		return err
	}

	reactionResp, err := edit(ctx, &room.ReactionParams{
		RoomID:    roomID,
		SenderID:  userID,
		MessageID: input.MessageID,
		Emoji:     input.Emoji,
	})
	if err != nil {
		return fmt.Errorf("failed to edit reaction: %w", err)
	}

	c.broadcast(ctx, reactionResp.Conns, &Output{
		Type: outputType,
		Payload: map[string]any{
			"messageId": reactionResp.MessageID,
			"emoji":     reactionResp.Emoji,
			"userId":    reactionResp.UserID,
		},
	})

	return nil
}
