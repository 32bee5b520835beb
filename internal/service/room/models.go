package room

import (
	"github.com/samber/lo"
	"github.com/sharetube/watchparty/internal/domain"
)

type Participant struct {
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	IsGuest        bool   `json:"isGuest"`
	ConnectionID   string `json:"connectionId"`
	JoinedAt       int64  `json:"joinedAt"`
	IsReconnecting bool   `json:"isReconnecting"`
	IsHost         bool   `json:"isHost"`
}

type PlaybackState struct {
	VideoID             *string `json:"videoId"`
	CurrentTime         float64 `json:"currentTime"`
	IsPlaying           bool    `json:"isPlaying"`
	LastUpdateTimestamp int64   `json:"lastUpdateTimestamp"`
}

type Video struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Duration  int    `json:"duration"`
	AddedBy   string `json:"addedBy"`
	AddedAt   int64  `json:"addedAt"`
}

type Reaction struct {
	Emoji   string   `json:"emoji"`
	UserIDs []string `json:"userIds"`
}

type Message struct {
	MessageID      string     `json:"messageId"`
	UserID         string     `json:"userId"`
	Username       string     `json:"username"`
	Content        string     `json:"content"`
	Timestamp      int64      `json:"timestamp"`
	Type           string     `json:"type"`
	VideoTimestamp *int       `json:"videoTimestamp,omitempty"`
	Reactions      []Reaction `json:"reactions"`
}

type RoomSnapshot struct {
	RoomID        string        `json:"roomId"`
	HostUserID    string        `json:"hostUserId"`
	Participants  []Participant `json:"participants"`
	PlaybackState PlaybackState `json:"playbackState"`
	Queue         []Video       `json:"queue"`
	ChatHistory   []Message     `json:"chatHistory"`
}

type RoomSummary struct {
	RoomID           string `json:"roomId"`
	ParticipantCount int    `json:"participantCount"`
	CreatedAt        int64  `json:"createdAt"`
}

type SyncBroadcast struct {
	Action          string  `json:"action"`
	CurrentTime     float64 `json:"currentTime"`
	VideoID         *string `json:"videoId"`
	ServerTimestamp int64   `json:"serverTimestamp"`
	InitiatedBy     string  `json:"initiatedBy"`
}

type ForceResync struct {
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
}

func toParticipant(m domain.Member, hostUserID string) Participant {
	return Participant{
		UserID:         m.UserID,
		Username:       m.Username,
		IsGuest:        m.IsGuest,
		ConnectionID:   m.ConnID,
		JoinedAt:       m.JoinedAt.UnixMilli(),
		IsReconnecting: m.IsReconnecting,
		IsHost:         m.UserID == hostUserID,
	}
}

func toParticipants(members []domain.Member, hostUserID string) []Participant {
	return lo.Map(members, func(m domain.Member, _ int) Participant {
		return toParticipant(m, hostUserID)
	})
}

func toPlaybackState(p domain.Player) PlaybackState {
	return PlaybackState{
		VideoID:             lo.EmptyableToPtr(p.VideoID),
		CurrentTime:         p.CurrentTime,
		IsPlaying:           p.IsPlaying,
		LastUpdateTimestamp: p.UpdatedAt.UnixMilli(),
	}
}

func toVideo(v domain.Video) Video {
	return Video{
		VideoID:   v.VideoID,
		Title:     v.Title,
		Thumbnail: v.Thumbnail,
		Duration:  v.Duration,
		AddedBy:   v.AddedBy,
		AddedAt:   v.AddedAt.UnixMilli(),
	}
}

func toQueue(videos []domain.Video) []Video {
	return lo.Map(videos, func(v domain.Video, _ int) Video { return toVideo(v) })
}

func toMessage(m domain.Message) Message {
	return Message{
		MessageID:      m.ID,
		UserID:         m.UserID,
		Username:       m.Username,
		Content:        m.Content,
		Timestamp:      m.Timestamp.UnixMilli(),
		Type:           string(m.Type),
		VideoTimestamp: m.VideoTimestamp,
		Reactions: lo.Map(m.Reactions(), func(r domain.Reaction, _ int) Reaction {
			return Reaction{Emoji: r.Emoji, UserIDs: r.UserIDs}
		}),
	}
}

func toMessages(messages []domain.Message) []Message {
	return lo.Map(messages, func(m domain.Message, _ int) Message { return toMessage(m) })
}

func snapshot(r *domain.Room) RoomSnapshot {
	return RoomSnapshot{
		RoomID:        r.ID,
		HostUserID:    r.HostUserID,
		Participants:  toParticipants(r.Members.AsList(), r.HostUserID),
		PlaybackState: toPlaybackState(r.Player),
		Queue:         toQueue(r.Playlist.AsList()),
		ChatHistory:   toMessages(r.Chat.Last(historyOnJoin)),
	}
}

func syncBroadcast(action domain.Action, p domain.Player, initiatedBy string) SyncBroadcast {
	return SyncBroadcast{
		Action:          string(action),
		CurrentTime:     p.CurrentTime,
		VideoID:         lo.EmptyableToPtr(p.VideoID),
		ServerTimestamp: p.UpdatedAt.UnixMilli(),
		InitiatedBy:     initiatedBy,
	}
}
