package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchparty/internal/app"
	"github.com/sharetube/watchparty/internal/domain"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 20,
		usage:        "Maximum number of participants in a room",
	}
	playlistLimit = configVar[int]{
		envKey:       "SERVER_PLAYLIST_LIMIT",
		flagKey:      "playlist-limit",
		defaultValue: domain.MaxPlaylistLimit,
		usage:        "Maximum number of videos in a room queue",
	}
	roomInactivityTimeout = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_INACTIVITY_TIMEOUT",
		flagKey:      "room-inactivity-timeout",
		defaultValue: 24 * time.Hour,
		usage:        "Idle time after which a room is deleted",
	}
	roomCleanupInterval = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_CLEANUP_INTERVAL",
		flagKey:      "room-cleanup-interval",
		defaultValue: 10 * time.Minute,
		usage:        "How often idle rooms are swept",
	}
	rateLimitBackend = configVar[string]{
		envKey:       "SERVER_RATE_LIMIT_BACKEND",
		flagKey:      "rate-limit-backend",
		defaultValue: app.RateLimitBackendMemory,
		usage:        "Rate limiter backend: memory or redis",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	youTubeAPIKey = configVar[string]{
		envKey:       "YOUTUBE_API_KEY",
		flagKey:      "youtube-api-key",
		defaultValue: "",
		usage:        "YouTube Data API key used by video search",
	}
	corsOrigin = configVar[string]{
		envKey:       "SERVER_CORS_ORIGIN",
		flagKey:      "cors-origin",
		defaultValue: "*",
		usage:        "Allowed CORS origin for the REST API",
	}
)

func bindString(v configVar[string]) {
	pflag.String(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func bindInt(v configVar[int]) {
	pflag.Int(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func bindDuration(v configVar[time.Duration]) {
	pflag.Duration(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	// a missing .env is fine, the environment and flags still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	bindInt(port)
	bindString(host)
	bindString(logLevel)
	bindInt(membersLimit)
	bindInt(playlistLimit)
	bindDuration(roomInactivityTimeout)
	bindDuration(roomCleanupInterval)
	bindString(rateLimitBackend)
	bindInt(redisPort)
	bindString(redisHost)
	bindString(redisPassword)
	bindString(youTubeAPIKey)
	bindString(corsOrigin)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	config := &app.AppConfig{
		Host:                  viper.GetString(host.flagKey),
		Port:                  viper.GetInt(port.flagKey),
		LogLevel:              viper.GetString(logLevel.flagKey),
		MembersLimit:          viper.GetInt(membersLimit.flagKey),
		PlaylistLimit:         viper.GetInt(playlistLimit.flagKey),
		RoomInactivityTimeout: viper.GetDuration(roomInactivityTimeout.flagKey),
		RoomCleanupInterval:   viper.GetDuration(roomCleanupInterval.flagKey),
		RateLimitBackend:      viper.GetString(rateLimitBackend.flagKey),
		RedisPort:             viper.GetInt(redisPort.flagKey),
		RedisHost:             viper.GetString(redisHost.flagKey),
		RedisPassword:         viper.GetString(redisPassword.flagKey),
		YouTubeAPIKey:         viper.GetString(youTubeAPIKey.flagKey),
		CORSOrigin:            viper.GetString(corsOrigin.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
