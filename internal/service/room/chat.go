package room

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
)

type PostMessageParams struct {
	RoomID   string
	SenderID string
	Content  string
}

type PostMessageResponse struct {
	Message Message
	Conns   []connection.Conn
}

func (s service) PostMessage(ctx context.Context, params *PostMessageParams) (PostMessageResponse, error) {
	if err := s.admit(ctx, s.chatLimiter, "chat:message", params.SenderID); err != nil {
		return PostMessageResponse{}, err
	}

	content, err := normalizeContent(params.Content)
	if err != nil {
		return PostMessageResponse{}, err
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return PostMessageResponse{}, err
	}
	defer r.Unlock()

	sender, err := s.getMember(r, params.SenderID)
	if err != nil {
		return PostMessageResponse{}, err
	}

	now := s.now()
	m := domain.NewMessage(uuid.NewString(), sender.UserID, sender.Username, content, now)
	r.Chat.Append(m)
	r.Touch(now)

	return PostMessageResponse{
		Message: toMessage(m),
		Conns:   s.getConns(ctx, r.ID),
	}, nil
}

type ReactionParams struct {
	RoomID    string
	SenderID  string
	MessageID string
	Emoji     string
}

func (p ReactionParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MessageID, MessageIDRule...),
		validation.Field(&p.Emoji, EmojiRule...),
	)
}

type ReactionResponse struct {
	MessageID string
	Emoji     string
	UserID    string
	Conns     []connection.Conn
}

func (s service) AddReaction(ctx context.Context, params *ReactionParams) (ReactionResponse, error) {
	return s.editReaction(ctx, params, func(m *domain.Message) error {
		return m.AddReaction(params.Emoji, params.SenderID)
	})
}

func (s service) RemoveReaction(ctx context.Context, params *ReactionParams) (ReactionResponse, error) {
	return s.editReaction(ctx, params, func(m *domain.Message) error {
		return m.RemoveReaction(params.Emoji, params.SenderID)
	})
}

func (s service) editReaction(ctx context.Context, params *ReactionParams, edit func(*domain.Message) error) (ReactionResponse, error) {
	if err := params.Validate(); err != nil {
		return ReactionResponse{}, invalidInput("reaction", err)
	}

	r, err := s.lockRoom(ctx, params.RoomID)
	if err != nil {
		return ReactionResponse{}, err
	}
	defer r.Unlock()

	if _, err := s.getMember(r, params.SenderID); err != nil {
		return ReactionResponse{}, err
	}

	m, err := r.Chat.Find(params.MessageID)
	if err != nil {
		return ReactionResponse{}, invalidInput("message", err)
	}

	if err := edit(m); err != nil {
		return ReactionResponse{}, invalidInput("reaction", err)
	}
	r.Touch(s.now())

	s.logger.DebugContext(ctx, "reactions updated", "room_id", r.ID, "message_id", params.MessageID, "emoji", params.Emoji)

	return ReactionResponse{
		MessageID: params.MessageID,
		Emoji:     params.Emoji,
		UserID:    params.SenderID,
		Conns:     s.getConns(ctx, r.ID),
	}, nil
}
