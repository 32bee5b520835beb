package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/controller"
	"github.com/sharetube/watchparty/internal/domain"
	connrepo "github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	"github.com/sharetube/watchparty/internal/repository/ratelimit"
	ratelimitmem "github.com/sharetube/watchparty/internal/repository/ratelimit/inmemory"
	ratelimitredis "github.com/sharetube/watchparty/internal/repository/ratelimit/redis"
	roomrepo "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/redisclient"
	"github.com/sharetube/watchparty/pkg/ytvideodata"
)

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"

	chatHistoryLimit = 200
	limiterPruneTick = time.Minute
)

type AppConfig struct {
	Host                  string        `json:"host"`
	Port                  int           `json:"port"`
	LogLevel              string        `json:"log_level"`
	MembersLimit          int           `json:"members_limit"`
	PlaylistLimit         int           `json:"playlist_limit"`
	RoomInactivityTimeout time.Duration `json:"room_inactivity_timeout"`
	RoomCleanupInterval   time.Duration `json:"room_cleanup_interval"`
	RateLimitBackend      string        `json:"rate_limit_backend"`
	RedisHost             string        `json:"redis_host"`
	RedisPort             int           `json:"redis_port"`
	RedisPassword         string        `json:"-"`
	YouTubeAPIKey         string        `json:"-"`
	CORSOrigin            string        `json:"cors_origin"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.PlaylistLimit < 1 || cfg.PlaylistLimit > domain.MaxPlaylistLimit {
		return fmt.Errorf("playlist limit must be between 1 and %d", domain.MaxPlaylistLimit)
	}
	if cfg.RoomInactivityTimeout <= 0 {
		return fmt.Errorf("room inactivity timeout must be positive")
	}
	if cfg.RoomCleanupInterval <= 0 {
		return fmt.Errorf("room cleanup interval must be positive")
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	switch cfg.RateLimitBackend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if cfg.RedisHost == "" {
			return fmt.Errorf("redis host is required for the redis rate limit backend")
		}
	default:
		return fmt.Errorf("unknown rate limit backend %q", cfg.RateLimitBackend)
	}

	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}

	return level, nil
}

type iLimiter interface {
	Admit(ctx context.Context, key string, now time.Time) (ratelimit.Decision, error)
}

type limiters struct {
	chat     iLimiter
	queueAdd iLimiter
	close    func() error
}

// newLimiters builds both rate limiters on the configured backend. Memory limiters prune in the
// background until ctx is done.
func newLimiters(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*limiters, error) {
	if cfg.RateLimitBackend == RateLimitBackendRedis {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}

		return &limiters{
			chat:     ratelimitredis.New(rc, "chat", ratelimit.ChatRule, logger),
			queueAdd: ratelimitredis.New(rc, "queue-add", ratelimit.QueueAddRule, logger),
			close:    rc.Close,
		}, nil
	}

	chat := ratelimitmem.New(ratelimit.ChatRule, logger)
	queueAdd := ratelimitmem.New(ratelimit.QueueAddRule, logger)
	go chat.Run(ctx, limiterPruneTick)
	go queueAdd.Run(ctx, limiterPruneTick)

	return &limiters{
		chat:     chat,
		queueAdd: queueAdd,
		close:    func() error { return nil },
	}, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	lims, err := newLimiters(serverCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := lims.close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			logger.Error("failed to close rate limiter backend", "error", err)
		}
	}()

	roomService := room.NewService(
		roomrepo.NewRepo(logger),
		connrepo.NewRepo(logger),
		lims.chat,
		lims.queueAdd,
		&room.Config{
			MembersLimit:  cfg.MembersLimit,
			PlaylistLimit: cfg.PlaylistLimit,
			ChatLimit:     chatHistoryLimit,
		},
		logger,
	)
	videoData := ytvideodata.New(cfg.YouTubeAPIKey)
	controller := controller.NewController(roomService, videoData, &controller.Config{
		CORSOrigin: cfg.CORSOrigin,
	}, logger)

	go controller.RunRoomSweeper(serverCtx, cfg.RoomCleanupInterval, cfg.RoomInactivityTimeout)

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server",
		"address", server.Addr,
		"rate_limit_backend", cfg.RateLimitBackend,
		"members_limit", cfg.MembersLimit,
		"playlist_limit", cfg.PlaylistLimit,
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
