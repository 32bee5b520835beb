package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
	"github.com/sharetube/watchparty/pkg/ytvideodata"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	GetRoomSummary(context.Context, string) (room.RoomSummary, error)
	DeleteRoom(context.Context, *room.DeleteRoomParams) (room.DeleteRoomResponse, error)
	SweepInactive(context.Context, time.Time, time.Duration) []room.SweptRoom
	RoomExists(context.Context, string) bool

	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	KickMember(context.Context, *room.KickMemberParams) (room.KickMemberResponse, error)
	TransferHost(context.Context, *room.TransferHostParams) (room.TransferHostResponse, error)
	Heartbeat(context.Context, *room.HeartbeatParams) error

	UpdatePlayback(context.Context, *room.UpdatePlaybackParams) (room.UpdatePlaybackResponse, error)
	CheckPosition(context.Context, *room.CheckPositionParams) (room.CheckPositionResponse, error)
	ReportBuffering(context.Context, *room.ReportBufferingParams) (room.GroupBufferingResponse, error)
	ResolveBuffering(context.Context, *room.ResolveBufferingParams) (room.GroupBufferingResponse, error)

	AddVideo(context.Context, *room.AddVideoParams) (room.QueueResponse, error)
	RemoveVideo(context.Context, *room.RemoveVideoParams) (room.QueueResponse, error)
	ReorderQueue(context.Context, *room.ReorderQueueParams) (room.QueueResponse, error)
	PlayNext(context.Context, *room.PlayNextParams) (room.PlayNextResponse, error)
	ClearQueue(context.Context, *room.ClearQueueParams) (room.QueueResponse, error)

	PostMessage(context.Context, *room.PostMessageParams) (room.PostMessageResponse, error)
	AddReaction(context.Context, *room.ReactionParams) (room.ReactionResponse, error)
	RemoveReaction(context.Context, *room.ReactionParams) (room.ReactionResponse, error)
}

type iVideoData interface {
	Get(ctx context.Context, videoId string) (*ytvideodata.VideoData, error)
	Search(ctx context.Context, query string, maxResults int) ([]ytvideodata.SearchResult, error)
}

type Config struct {
	CORSOrigin string
	// PongWait is how long a connection may stay silent before it is dropped.
	PongWait time.Duration
	// PingInterval must be shorter than PongWait.
	PingInterval time.Duration
	WriteWait    time.Duration
}

type controller struct {
	roomService iRoomService
	videoData   iVideoData
	upgrader    websocket.Upgrader
	wsmux       *wsrouter.WSRouter
	validate    *validator.Validator
	config      Config
	logger      *slog.Logger
}

func NewController(roomService iRoomService, videoData iVideoData, cfg *Config, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		videoData:   videoData,
		validate:    validator.NewValidator(),
		config:      *cfg,
		logger:      logger,
	}

	if c.config.PongWait <= 0 {
		c.config.PongWait = 60 * time.Second
	}
	if c.config.PingInterval <= 0 || c.config.PingInterval >= c.config.PongWait {
		c.config.PingInterval = c.config.PongWait * 9 / 10
	}
	if c.config.WriteWait <= 0 {
		c.config.WriteWait = 10 * time.Second
	}

	c.wsmux = c.getWSRouter()

	return c
}

// generateTimeBasedId returns a UUIDv7 so ids sort by creation time in logs.
func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
