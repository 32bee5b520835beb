package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
)

const maxMessageSize = 64 * 1024

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	sess := newSession(c.generateTimeBasedId(), conn, c.config.WriteWait)

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("connection_id", sess.ID()))
	ctx = context.WithValue(ctx, sessionCtxKey, sess)

	conn.SetReadLimit(maxMessageSize)
	sess.extendReadDeadline(c.config.PongWait)
	conn.SetPongHandler(func(string) error {
		return sess.extendReadDeadline(c.config.PongWait)
	})

	done := make(chan struct{})
	go c.keepAlive(ctx, sess, done)
	defer close(done)
	defer c.disconnect(ctx, sess)

	c.logger.InfoContext(ctx, "websocket connected", "remote_addr", r.RemoteAddr)

	err = c.wsmux.ServeConn(ctx, conn)
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		closeCodeKicked,
		closeCodeReplaced,
	) {
		c.logger.WarnContext(ctx, "websocket closed unexpectedly", "error", err)
		return
	}

	c.logger.InfoContext(ctx, "websocket disconnected", "reason", err)
}

func (c controller) keepAlive(ctx context.Context, sess *session, done <-chan struct{}) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := sess.ping(); err != nil {
				c.logger.DebugContext(ctx, "ping failed", "error", err)
				return
			}
		}
	}
}
