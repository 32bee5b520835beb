package domain

import (
	"errors"
	"time"
	"unicode"

	"golang.org/x/exp/slices"
)

// MaxReactionKinds caps the number of distinct emoji on one message.
const MaxReactionKinds = 6

const SystemUserID = "system"

var (
	ErrMessageNotFound      = errors.New("message not found")
	ErrAlreadyReacted       = errors.New("already reacted")
	ErrReactionLimitReached = errors.New("reaction limit reached")
	ErrReactionNotFound     = errors.New("reaction not found")
)

type MessageType string

const (
	MessageTypeText          MessageType = "text"
	MessageTypeEmoji         MessageType = "emoji"
	MessageTypeSystem        MessageType = "system"
	MessageTypeTimestampLink MessageType = "timestamp-link"
)

type Reaction struct {
	Emoji   string
	UserIDs []string
}

type Message struct {
	ID             string
	UserID         string
	Username       string
	Content        string
	Timestamp      time.Time
	Type           MessageType
	VideoTimestamp *int
	reactions      []Reaction
}

// NewMessage classifies user content. An embedded clock time wins over emoji-only content.
func NewMessage(id, userID, username, content string, now time.Time) Message {
	m := Message{
		ID:        id,
		UserID:    userID,
		Username:  username,
		Content:   content,
		Timestamp: now,
		Type:      MessageTypeText,
	}

	if seconds, ok := ParseTimestamp(content); ok {
		m.Type = MessageTypeTimestampLink
		m.VideoTimestamp = &seconds
	} else if isEmojiOnly(content) {
		m.Type = MessageTypeEmoji
	}

	return m
}

func NewSystemMessage(id, content string, now time.Time) Message {
	return Message{
		ID:        id,
		UserID:    SystemUserID,
		Username:  "System",
		Content:   content,
		Timestamp: now,
		Type:      MessageTypeSystem,
	}
}

// Reactions returns a copy in insertion order.
func (m Message) Reactions() []Reaction {
	out := make([]Reaction, 0, len(m.reactions))
	for _, r := range m.reactions {
		out = append(out, Reaction{Emoji: r.Emoji, UserIDs: slices.Clone(r.UserIDs)})
	}

	return out
}

func (m *Message) reactionIndex(emoji string) int {
	return slices.IndexFunc(m.reactions, func(r Reaction) bool { return r.Emoji == emoji })
}

func (m *Message) AddReaction(emoji, userID string) error {
	i := m.reactionIndex(emoji)
	if i < 0 {
		if len(m.reactions) >= MaxReactionKinds {
			return ErrReactionLimitReached
		}

		m.reactions = append(m.reactions, Reaction{Emoji: emoji, UserIDs: []string{userID}})
		return nil
	}

	if slices.Contains(m.reactions[i].UserIDs, userID) {
		return ErrAlreadyReacted
	}

	m.reactions[i].UserIDs = append(m.reactions[i].UserIDs, userID)
	return nil
}

func (m *Message) RemoveReaction(emoji, userID string) error {
	i := m.reactionIndex(emoji)
	if i < 0 {
		return ErrReactionNotFound
	}

	j := slices.Index(m.reactions[i].UserIDs, userID)
	if j < 0 {
		return ErrReactionNotFound
	}

	m.reactions[i].UserIDs = slices.Delete(m.reactions[i].UserIDs, j, j+1)
	if len(m.reactions[i].UserIDs) == 0 {
		m.reactions = slices.Delete(m.reactions, i, i+1)
	}

	return nil
}

// ChatLog keeps the newest messages up to limit.
type ChatLog struct {
	messages []*Message
	limit    int
}

func NewChatLog(limit int) ChatLog {
	return ChatLog{limit: limit}
}

func (c ChatLog) Length() int {
	return len(c.messages)
}

func (c *ChatLog) Append(m Message) {
	c.messages = append(c.messages, &m)
	if over := len(c.messages) - c.limit; over > 0 {
		c.messages = slices.Delete(c.messages, 0, over)
	}
}

// Last returns up to n newest messages, oldest first.
func (c ChatLog) Last(n int) []Message {
	start := max(len(c.messages)-n, 0)

	out := make([]Message, 0, len(c.messages)-start)
	for _, m := range c.messages[start:] {
		cp := *m
		cp.reactions = m.Reactions()
		out = append(out, cp)
	}

	return out
}

func (c ChatLog) Find(id string) (*Message, error) {
	for _, m := range c.messages {
		if m.ID == id {
			return m, nil
		}
	}

	return nil, ErrMessageNotFound
}

func isEmojiOnly(s string) bool {
	found := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.So, r), unicode.Is(unicode.Sk, r):
			found = true
		case r == '\u200d', r == '\ufe0f', unicode.IsSpace(r):
		default:
			return false
		}
	}

	return found
}
