package controller

import (
	"context"

	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/service/room"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) writeToConn(ctx context.Context, conn connection.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.WarnContext(ctx, "failed to write to conn", "conn_id", conn.ID(), "type", output.Type, "error", err)
		return err
	}

	return nil
}

// broadcast writes output to every conn. A failed write only affects its own conn, whose read
// loop ends and triggers the usual disconnect handling.
func (c controller) broadcast(ctx context.Context, conns []connection.Conn, output *Output) {
	for _, conn := range conns {
		c.writeToConn(ctx, conn, output)
	}
}

func (c controller) broadcastMessages(ctx context.Context, conns []connection.Conn, messages ...room.Message) {
	for _, m := range messages {
		c.broadcast(ctx, conns, &Output{
			Type:    "chat:new-message",
			Payload: m,
		})
	}
}

func (c controller) broadcastQueue(ctx context.Context, conns []connection.Conn, queue []room.Video) {
	c.broadcast(ctx, conns, &Output{
		Type:    "queue:updated",
		Payload: map[string]any{"queue": queue},
	})
}

func (c controller) broadcastGroupPause(ctx context.Context, conns []connection.Conn, usernames []string) {
	c.broadcast(ctx, conns, &Output{
		Type: "sync:group-pause",
		Payload: map[string]any{
			"reason":    "buffering",
			"usernames": usernames,
		},
	})
}

func (c controller) broadcastGroupResume(ctx context.Context, conns []connection.Conn, at float64) {
	c.broadcast(ctx, conns, &Output{
		Type:    "sync:group-resume",
		Payload: map[string]any{"currentTime": at},
	})
}
