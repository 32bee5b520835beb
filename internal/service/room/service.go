package room

//go:generate mockgen -source=service.go -destination=mock_limiter_test.go -package=room -exclude_interfaces=iRoomRepo,iConnRepo,iGenerator

import (
	"context"
	"log/slog"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/ratelimit"
	"github.com/sharetube/watchparty/pkg/randstr"
)

const (
	roomIDLength  = 10
	historyOnJoin = 50
)

type iRoomRepo interface {
	Create(context.Context, *domain.Room) error
	Get(context.Context, string) (*domain.Room, error)
	Exists(context.Context, string) bool
	Delete(context.Context, string) error
	List(context.Context) []*domain.Room
}

type iConnRepo interface {
	Subscribe(ctx context.Context, roomID string, conn connection.Conn) error
	Unsubscribe(ctx context.Context, connID string) error
	GetConns(ctx context.Context, roomID string) []connection.Conn
	GetConn(ctx context.Context, connID string) (connection.Conn, error)
	RemoveRoom(ctx context.Context, roomID string) []connection.Conn
}

type iLimiter interface {
	Admit(ctx context.Context, key string, now time.Time) (ratelimit.Decision, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	MembersLimit  int
	PlaylistLimit int
	ChatLimit     int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type service struct {
	roomRepo     iRoomRepo
	connRepo     iConnRepo
	chatLimiter  iLimiter
	queueLimiter iLimiter
	generator    iGenerator
	roomConfig   domain.Config
	now          func() time.Time
	logger       *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, chatLimiter, queueLimiter iLimiter, cfg *Config, logger *slog.Logger) *service {
	s := service{
		roomRepo:     roomRepo,
		connRepo:     connRepo,
		chatLimiter:  chatLimiter,
		queueLimiter: queueLimiter,
		roomConfig: domain.Config{
			MembersLimit:  cfg.MembersLimit,
			PlaylistLimit: cfg.PlaylistLimit,
			ChatLimit:     cfg.ChatLimit,
		},
		now:    cfg.Clock,
		logger: logger,
	}

	if s.now == nil {
		s.now = time.Now
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}
