package controller

import (
	"context"
	"time"
)

// RunRoomSweeper deletes rooms idle for longer than timeout every interval until ctx is done.
func (c controller) RunRoomSweeper(ctx context.Context, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.sweep(ctx, now, timeout)
		}
	}
}

func (c controller) sweep(ctx context.Context, now time.Time, timeout time.Duration) int {
	swept := c.roomService.SweepInactive(ctx, now, timeout)
	for _, s := range swept {
		c.broadcast(ctx, s.Conns, &Output{
			Type:    "room:deleted",
			Payload: map[string]any{"roomId": s.RoomID, "reason": "inactive"},
		})
	}

	if len(swept) > 0 {
		c.logger.InfoContext(ctx, "room sweep finished", "swept", len(swept))
	}

	return len(swept)
}
