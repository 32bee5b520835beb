package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

var (
	errNotInRoom       = errors.New("join a room first")
	errAlreadyInRoom   = errors.New("connection already joined a room")
	errSessionMismatch = errors.New("payload does not match the joined room")
)

type ErrorPayload struct {
	Error      bool   `json:"error"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	RetryAfter *int64 `json:"retryAfter,omitempty"`
}

// toErrorPayload maps a handler error onto the room:error taxonomy. ok is false for internal
// failures, which are logged but not reported to the client.
func toErrorPayload(err error) (payload ErrorPayload, ok bool) {
	payload.Error = true

	var rlErr *room.RateLimitError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &rlErr):
		retryAfter := rlErr.RetryAfter.Milliseconds()
		payload.Type = "rate_limit"
		payload.Message = "Too many requests. Please slow down."
		payload.Retryable = true
		payload.RetryAfter = &retryAfter
	case errors.Is(err, room.ErrRoomNotFound):
		payload.Type = "room_not_found"
		payload.Message = "Room not found. It may have been deleted or expired."
	case errors.Is(err, room.ErrRoomFull):
		payload.Type = "room_full"
		payload.Message = "This room is full."
	case errors.Is(err, room.ErrInvalidUsername):
		payload.Type = "invalid_username"
		payload.Message = "Invalid username. Use 1-20 alphanumeric characters, spaces, underscores, or hyphens."
		payload.Retryable = true
	case errors.Is(err, room.ErrNotHost):
		payload.Type = "not_host"
		payload.Message = "Only the host can do that."
	case errors.As(err, &validationErrs),
		errors.Is(err, room.ErrInvalidInput),
		errors.Is(err, room.ErrUnknownParticipant),
		errors.Is(err, wsrouter.ErrInvalidMessage),
		errors.Is(err, wsrouter.ErrUnknownMessageType),
		errors.Is(err, errNotInRoom),
		errors.Is(err, errAlreadyInRoom),
		errors.Is(err, errSessionMismatch):
		payload.Type = "invalid_input"
		payload.Message = err.Error()
	default:
		return ErrorPayload{}, false
	}

	return payload, true
}

func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) {
	payload, ok := toErrorPayload(err)
	if !ok {
		c.logger.ErrorContext(ctx, "failed to handle websocket message", "error", err)
		return
	}

	c.logger.InfoContext(ctx, "rejected websocket message", "type", payload.Type, "error", err)

	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return
	}

	c.writeToConn(ctx, sess, &Output{
		Type:    "room:error",
		Payload: payload,
	})
}
