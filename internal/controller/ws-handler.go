package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/service/room"
)

const (
	closeCodeKicked   = 4001
	closeCodeReplaced = 4002
)

type EmptyInput struct{}

// RoomScope carries the optional roomId and userId most client events repeat. Once a connection
// has joined they must match the joined room and user when present.
type RoomScope struct {
	RoomID string `json:"roomId" validate:"omitempty,len=10,alphanum"`
	UserID string `json:"userId" validate:"omitempty,max=64"`
}

// boundIdentity resolves the room and user of the sending connection.
func (c controller) boundIdentity(ctx context.Context, scope RoomScope) (*session, string, string, error) {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return nil, "", "", errNotInRoom
	}

	roomID, userID, ok := sess.identity()
	if !ok {
		return nil, "", "", errNotInRoom
	}

	if (scope.RoomID != "" && scope.RoomID != roomID) || (scope.UserID != "" && scope.UserID != userID) {
		return nil, "", "", errSessionMismatch
	}

	return sess, roomID, userID, nil
}

type JoinInput struct {
	RoomID   string `json:"roomId" validate:"required"`
	UserID   string `json:"userId" validate:"required,max=64"`
	Username string `json:"username"`
	IsGuest  bool   `json:"isGuest"`
}

func (c controller) handleJoin(ctx context.Context, _ *websocket.Conn, input JoinInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return errNotInRoom
	}

	if boundRoomID, _, ok := sess.identity(); ok {
		if c.roomService.RoomExists(ctx, boundRoomID) {
			return errAlreadyInRoom
		}
		sess.unbind()
	}

	release := sess.holdWrites()
	joinResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomID:   input.RoomID,
		UserID:   input.UserID,
		Username: input.Username,
		IsGuest:  input.IsGuest,
		Conn:     sess,
	})
	if err != nil {
		release()
		return fmt.Errorf("failed to join room: %w", err)
	}

	sess.bind(input.RoomID, input.UserID, input.Username)
	err = sess.writeJSONLocked(&Output{
		Type:    "room:joined",
		Payload: joinResp.Room,
	})
	release()
	if err != nil {
		return fmt.Errorf("failed to write room joined: %w", err)
	}

	if joinResp.ReplacedConn != nil {
		c.logger.InfoContext(ctx, "closing replaced connection", "replaced_conn_id", joinResp.ReplacedConn.ID())
		joinResp.ReplacedConn.CloseWithReason(closeCodeReplaced, "replaced by a newer connection")
	}

	if !joinResp.Rejoined {
		c.broadcast(ctx, joinResp.OtherConns, &Output{
			Type: "participant:joined",
			Payload: map[string]any{
				"userId":   joinResp.JoinedMember.UserID,
				"username": joinResp.JoinedMember.Username,
				"isGuest":  joinResp.JoinedMember.IsGuest,
				"socketId": sess.ID(),
			},
		})
	}

	if joinResp.SystemMessage != nil {
		c.broadcastMessages(ctx, joinResp.Conns, *joinResp.SystemMessage)
	}

	return nil
}

func (c controller) broadcastDeparture(ctx context.Context, resp *room.LeaveRoomResponse) {
	c.broadcast(ctx, resp.Conns, &Output{
		Type: "participant:left",
		Payload: map[string]any{
			"userId":   resp.LeftMember.UserID,
			"username": resp.LeftMember.Username,
		},
	})

	c.broadcastMessages(ctx, resp.Conns, resp.SystemMessages...)

	if resp.NewHost != nil {
		c.broadcast(ctx, resp.Conns, &Output{
			Type:    "room:host-changed",
			Payload: map[string]any{"newHostUserId": resp.NewHost.UserID},
		})
	}

	switch {
	case resp.GroupResumed:
		c.broadcastGroupResume(ctx, resp.Conns, resp.ResumeAt)
	case len(resp.BufferingUsernames) > 0:
		c.broadcastGroupPause(ctx, resp.Conns, resp.BufferingUsernames)
	}
}

func (c controller) handleLeave(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	sess, roomID, userID, err := c.boundIdentity(ctx, RoomScope{})
	if err != nil {
		return err
	}
	defer sess.unbind()

	leaveResp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		RoomID: roomID,
		UserID: userID,
		ConnID: sess.ID(),
	})
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	c.broadcastDeparture(ctx, &leaveResp)

	return nil
}

// disconnect removes the participant bound to a closed connection. A connection replaced by a
// rejoin is ignored by the service.
func (c controller) disconnect(ctx context.Context, sess *session) {
	roomID, userID, ok := sess.identity()
	if !ok {
		return
	}
	sess.unbind()

	leaveResp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		RoomID: roomID,
		UserID: userID,
		ConnID: sess.ID(),
	})
	if err != nil {
		c.logger.DebugContext(ctx, "no departure on disconnect", "room_id", roomID, "user_id", userID, "error", err)
		return
	}

	c.broadcastDeparture(ctx, &leaveResp)
}

type KickInput struct {
	RoomScope
	TargetUserID string `json:"targetUserId" validate:"required,max=64"`
}

func (c controller) handleKick(ctx context.Context, _ *websocket.Conn, input KickInput) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input.RoomScope)
	if err != nil {
		return err
	}

	kickResp, err := c.roomService.KickMember(ctx, &room.KickMemberParams{
		RoomID:       roomID,
		SenderID:     userID,
		TargetUserID: input.TargetUserID,
	})
	if err != nil {
		return fmt.Errorf("failed to kick member: %w", err)
	}

	if kickResp.KickedConn != nil {
		c.writeToConn(ctx, kickResp.KickedConn, &Output{
			Type: "room:kicked",
			Payload: map[string]any{
				"roomId": roomID,
				"reason": "You were removed from the room by the host",
			},
		})
		kickResp.KickedConn.CloseWithReason(closeCodeKicked, "kicked")
	}

	c.broadcastDeparture(ctx, &room.LeaveRoomResponse{
		LeftMember:         kickResp.KickedMember,
		NewHost:            kickResp.NewHost,
		SystemMessages:     kickResp.SystemMessages,
		GroupResumed:       kickResp.GroupResumed,
		ResumeAt:           kickResp.ResumeAt,
		BufferingUsernames: kickResp.BufferingUsernames,
		Conns:              kickResp.Conns,
	})

	return nil
}

type HostChangeInput struct {
	RoomScope
	NewHostUserID string `json:"newHostUserId" validate:"required,max=64"`
}

func (c controller) handleHostChange(ctx context.Context, _ *websocket.Conn, input HostChangeInput) error {
	_, roomID, userID, err := c.boundIdentity(ctx, input.RoomScope)
	if err != nil {
		return err
	}

	transferResp, err := c.roomService.TransferHost(ctx, &room.TransferHostParams{
		RoomID:        roomID,
		SenderID:      userID,
		NewHostUserID: input.NewHostUserID,
	})
	if err != nil {
		return fmt.Errorf("failed to transfer host: %w", err)
	}

	c.broadcast(ctx, transferResp.Conns, &Output{
		Type:    "room:host-changed",
		Payload: map[string]any{"newHostUserId": transferResp.NewHost.UserID},
	})
	c.broadcastMessages(ctx, transferResp.Conns, transferResp.SystemMessage)

	return nil
}

func (c controller) handleDelete(ctx context.Context, _ *websocket.Conn, input RoomScope) error {
	sess, roomID, userID, err := c.boundIdentity(ctx, input)
	if err != nil {
		return err
	}

	deleteResp, err := c.roomService.DeleteRoom(ctx, &room.DeleteRoomParams{
		RoomID:   roomID,
		SenderID: userID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	sess.unbind()

	c.broadcast(ctx, deleteResp.Conns, &Output{
		Type:    "room:deleted",
		Payload: map[string]any{"roomId": roomID, "reason": "deleted by host"},
	})

	return nil
}

func (c controller) handleHeartbeat(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return nil
	}

	if err := sess.extendReadDeadline(c.config.PongWait); err != nil {
		return fmt.Errorf("failed to extend read deadline: %w", err)
	}

	roomID, userID, ok := sess.identity()
	if !ok {
		return nil
	}

	if err := c.roomService.Heartbeat(ctx, &room.HeartbeatParams{RoomID: roomID, UserID: userID}); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}

	return nil
}
