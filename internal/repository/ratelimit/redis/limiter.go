package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/repository/ratelimit"
)

// admitScript keeps a sorted set of admission timestamps per key. Entries at least one window
// old are trimmed before counting so concurrent server instances share the same window.
var admitScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, ARGV[4])
		redis.call('PEXPIRE', key, window)
		return {1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, tonumber(oldest[2]) + window - now}
`)

type Limiter struct {
	rc     *redis.Client
	prefix string
	rule   ratelimit.Rule
	logger *slog.Logger
}

// New returns a limiter whose keys live under prefix, so limiters with different rules never collide.
func New(rc *redis.Client, prefix string, rule ratelimit.Rule, logger *slog.Logger) *Limiter {
	return &Limiter{
		rc:     rc,
		prefix: prefix,
		rule:   rule,
		logger: logger,
	}
}

func (l *Limiter) getKey(key string) string {
	return "ratelimit:" + l.prefix + ":" + key
}

func (l *Limiter) Admit(ctx context.Context, key string, now time.Time) (ratelimit.Decision, error) {
	nowMs := now.UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	res, err := admitScript.Run(ctx, l.rc, []string{l.getKey(key)},
		nowMs,
		l.rule.Window.Milliseconds(),
		l.rule.Max,
		member,
	).Int64Slice()
	if err != nil {
		l.logger.DebugContext(ctx, "returned", "error", err)
		return ratelimit.Decision{}, fmt.Errorf("failed to run admit script: %w", err)
	}

	if len(res) != 2 {
		return ratelimit.Decision{}, fmt.Errorf("unexpected admit script reply: %v", res)
	}

	if res[0] == 1 {
		return ratelimit.Decision{Allowed: true}, nil
	}

	retryAfter := time.Duration(res[1]) * time.Millisecond
	l.logger.DebugContext(ctx, "rejected", "key", key, "retry_after_ms", res[1])

	return ratelimit.Decision{Allowed: false, RetryAfter: retryAfter}, nil
}
