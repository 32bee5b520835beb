package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
)

type JoinRoomParams struct {
	RoomID   string
	UserID   string
	Username string
	IsGuest  bool
	Conn     connection.Conn
}

type JoinRoomResponse struct {
	Room          RoomSnapshot
	JoinedMember  Participant
	Rejoined      bool
	SystemMessage *Message
	// ReplacedConn is the previous connection of a rejoining member, nil otherwise.
	ReplacedConn connection.Conn
	// OtherConns excludes the joining connection.
	OtherConns []connection.Conn
	Conns      []connection.Conn
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if err := validateRoomID(params.RoomID); err != nil {
		return JoinRoomResponse{}, err
	}
	if err := validateUsername(params.Username); err != nil {
		return JoinRoomResponse{}, err
	}
	if err := validateUserID(params.UserID); err != nil {
		return JoinRoomResponse{}, err
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return JoinRoomResponse{}, err
	}
	defer r.Unlock()

	previous, _ := r.Members.GetByID(params.UserID)

	rejoined, err := r.Join(domain.Member{
		UserID:   params.UserID,
		Username: params.Username,
		IsGuest:  params.IsGuest,
		ConnID:   params.Conn.ID(),
	}, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrMembersLimitReached) {
			return JoinRoomResponse{}, fmt.Errorf("%w: %w", ErrRoomFull, err)
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to join room: %w", err)
	}

	var replaced connection.Conn
	if rejoined && previous.ConnID != params.Conn.ID() {
		if replaced, err = s.connRepo.GetConn(ctx, previous.ConnID); err == nil {
			if err := s.connRepo.Unsubscribe(ctx, previous.ConnID); err != nil {
				s.logger.WarnContext(ctx, "failed to unsubscribe replaced connection", "error", err)
			}
		}
	}

	if err := s.connRepo.Subscribe(ctx, r.ID, params.Conn); err != nil {
		// the member is already admitted, so the room state stays consistent without the subscription
		s.logger.ErrorContext(ctx, "failed to subscribe connection", "error", err)
	}

	resp := JoinRoomResponse{
		Room:         snapshot(r),
		Rejoined:     rejoined,
		ReplacedConn: replaced,
	}

	member, _ := r.Members.GetByID(params.UserID)
	resp.JoinedMember = toParticipant(member, r.HostUserID)

	if !rejoined {
		msg := s.appendSystemMessage(r, fmt.Sprintf("%s joined the party", params.Username))
		resp.SystemMessage = &msg
	}

	resp.Conns = s.getConns(ctx, r.ID)
	resp.OtherConns = s.getConnsExcept(ctx, r.ID, params.Conn.ID())

	s.logger.InfoContext(ctx, "member joined",
		"room_id", r.ID,
		"user_id", params.UserID,
		"rejoined", rejoined,
		"members", r.Members.Length(),
	)

	return resp, nil
}

// departure is the outcome of removing a member, shared by leave and kick.
type departure struct {
	member         domain.Member
	newHost        *Participant
	messages       []Message
	resumed        bool
	resumeAt       float64
	bufferingNames []string
}

func (s service) removeMember(ctx context.Context, r *domain.Room, userID, text string) (departure, error) {
	now := s.now()

	removed, resumed, at := r.StopBuffering(userID, now)

	member, newHostID, err := r.Leave(userID, now)
	if err != nil {
		return departure{}, ErrUnknownParticipant
	}

	d := departure{
		member:   member,
		resumed:  resumed,
		resumeAt: at,
	}
	if removed && !resumed {
		d.bufferingNames = s.bufferingUsernames(r)
	}

	d.messages = append(d.messages, s.appendSystemMessage(r, text))

	if newHostID != "" {
		host, _ := r.Members.GetByID(newHostID)
		p := toParticipant(host, newHostID)
		d.newHost = &p
		d.messages = append(d.messages, s.appendSystemMessage(r, fmt.Sprintf("Host changed to %s", host.Username)))
		s.logger.InfoContext(ctx, "host transferred on departure", "room_id", r.ID, "new_host_id", newHostID)
	}

	if err := s.connRepo.Unsubscribe(ctx, member.ConnID); err != nil {
		s.logger.DebugContext(ctx, "departed member had no subscription", "conn_id", member.ConnID)
	}

	return d, nil
}

type LeaveRoomParams struct {
	RoomID string
	UserID string
	// ConnID guards against a stale connection removing a member that has already rejoined.
	// Empty skips the check.
	ConnID string
}

type LeaveRoomResponse struct {
	LeftMember     Participant
	NewHost        *Participant
	SystemMessages []Message
	GroupResumed   bool
	ResumeAt       float64
	// BufferingUsernames is set when the departure shrank a non-empty buffering set.
	BufferingUsernames []string
	Conns              []connection.Conn
}

func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return LeaveRoomResponse{}, err
	}
	defer r.Unlock()

	member, err := s.getMember(r, params.UserID)
	if err != nil {
		return LeaveRoomResponse{}, err
	}

	if params.ConnID != "" && member.ConnID != params.ConnID {
		s.logger.DebugContext(ctx, "ignoring leave from stale connection", "user_id", params.UserID)
		return LeaveRoomResponse{}, fmt.Errorf("%w: stale connection", ErrUnknownParticipant)
	}

	d, err := s.removeMember(ctx, r, params.UserID, fmt.Sprintf("%s left the party", member.Username))
	if err != nil {
		return LeaveRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "member left", "room_id", r.ID, "user_id", params.UserID, "members", r.Members.Length())

	return LeaveRoomResponse{
		LeftMember:         toParticipant(d.member, ""),
		NewHost:            d.newHost,
		SystemMessages:     d.messages,
		GroupResumed:       d.resumed,
		ResumeAt:           d.resumeAt,
		BufferingUsernames: d.bufferingNames,
		Conns:              s.getConns(ctx, r.ID),
	}, nil
}

type KickMemberParams struct {
	RoomID       string
	SenderID     string
	TargetUserID string
}

type KickMemberResponse struct {
	KickedMember Participant
	// KickedConn is nil when the target had no live subscription.
	KickedConn         connection.Conn
	NewHost            *Participant
	SystemMessages     []Message
	GroupResumed       bool
	ResumeAt           float64
	BufferingUsernames []string
	Conns              []connection.Conn
}

func (s service) KickMember(ctx context.Context, params *KickMemberParams) (KickMemberResponse, error) {
	if err := validateUserID(params.TargetUserID); err != nil {
		return KickMemberResponse{}, err
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return KickMemberResponse{}, err
	}
	defer r.Unlock()

	if err := s.checkIfMemberHost(r, params.SenderID); err != nil {
		return KickMemberResponse{}, err
	}

	if params.TargetUserID == params.SenderID {
		return KickMemberResponse{}, fmt.Errorf("%w: host cannot kick themselves", ErrInvalidInput)
	}

	target, err := s.getMember(r, params.TargetUserID)
	if err != nil {
		return KickMemberResponse{}, err
	}

	kickedConn, err := s.connRepo.GetConn(ctx, target.ConnID)
	if err != nil {
		kickedConn = nil
	}

	d, err := s.removeMember(ctx, r, target.UserID, fmt.Sprintf("%s was kicked", target.Username))
	if err != nil {
		return KickMemberResponse{}, err
	}

	s.logger.InfoContext(ctx, "member kicked", "room_id", r.ID, "user_id", target.UserID, "by", params.SenderID)

	return KickMemberResponse{
		KickedMember:       toParticipant(d.member, ""),
		KickedConn:         kickedConn,
		NewHost:            d.newHost,
		SystemMessages:     d.messages,
		GroupResumed:       d.resumed,
		ResumeAt:           d.resumeAt,
		BufferingUsernames: d.bufferingNames,
		Conns:              s.getConns(ctx, r.ID),
	}, nil
}

type TransferHostParams struct {
	RoomID        string
	SenderID      string
	NewHostUserID string
}

type TransferHostResponse struct {
	NewHost       Participant
	SystemMessage Message
	Conns         []connection.Conn
}

func (s service) TransferHost(ctx context.Context, params *TransferHostParams) (TransferHostResponse, error) {
	if err := validateUserID(params.NewHostUserID); err != nil {
		return TransferHostResponse{}, err
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return TransferHostResponse{}, err
	}
	defer r.Unlock()

	if err := s.checkIfMemberHost(r, params.SenderID); err != nil {
		return TransferHostResponse{}, err
	}

	if err := r.TransferHost(params.NewHostUserID, s.now()); err != nil {
		return TransferHostResponse{}, ErrUnknownParticipant
	}

	host, _ := r.Members.GetByID(params.NewHostUserID)
	msg := s.appendSystemMessage(r, fmt.Sprintf("Host changed to %s", host.Username))

	s.logger.InfoContext(ctx, "host transferred", "room_id", r.ID, "from", params.SenderID, "to", params.NewHostUserID)

	return TransferHostResponse{
		NewHost:       toParticipant(host, r.HostUserID),
		SystemMessage: msg,
		Conns:         s.getConns(ctx, r.ID),
	}, nil
}

type HeartbeatParams struct {
	RoomID string
	UserID string
}

func (s service) Heartbeat(ctx context.Context, params *HeartbeatParams) error {
	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return err
	}
	defer r.Unlock()

	if err := r.Heartbeat(params.UserID, s.now()); err != nil {
		return ErrUnknownParticipant
	}

	return nil
}
