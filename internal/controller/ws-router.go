package controller

import (
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.sessionLoggerWSMw(), c.loggerWSMw(), c.validateWSMw())
	mux.OnError(c.handleWSError)

	// room
	wsrouter.Handle(mux, "room:join", c.handleJoin)
	wsrouter.Handle(mux, "room:leave", c.handleLeave)
	wsrouter.Handle(mux, "room:kick", c.handleKick)
	wsrouter.Handle(mux, "room:host-change", c.handleHostChange)
	wsrouter.Handle(mux, "room:delete", c.handleDelete)
	wsrouter.Handle(mux, "connection:heartbeat", c.handleHeartbeat)

	// player
	wsrouter.Handle(mux, "video:play", c.handlePlay)
	wsrouter.Handle(mux, "video:pause", c.handlePause)
	wsrouter.Handle(mux, "video:seek", c.handleSeek)
	wsrouter.Handle(mux, "sync:position-update", c.handlePositionUpdate)
	wsrouter.Handle(mux, "sync:buffering", c.handleBuffering)
	wsrouter.Handle(mux, "sync:buffer-resolved", c.handleBufferResolved)

	// queue
	wsrouter.Handle(mux, "queue:add", c.handleQueueAdd)
	wsrouter.Handle(mux, "queue:remove", c.handleQueueRemove)
	wsrouter.Handle(mux, "queue:reorder", c.handleQueueReorder)
	wsrouter.Handle(mux, "queue:play-next", c.handleQueuePlayNext)
	wsrouter.Handle(mux, "queue:clear", c.handleQueueClear)

	// chat
	wsrouter.Handle(mux, "chat:message", c.handleChatMessage)
	wsrouter.Handle(mux, "chat:add-reaction", c.handleAddReaction)
	wsrouter.Handle(mux, "chat:remove-reaction", c.handleRemoveReaction)

	return mux
}
