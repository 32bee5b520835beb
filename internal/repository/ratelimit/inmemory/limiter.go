package inmemory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/watchparty/internal/repository/ratelimit"
)

// Limiter keeps the admitted timestamps of every key in process memory.
type Limiter struct {
	rule   ratelimit.Rule
	hits   map[string][]time.Time
	mu     sync.Mutex
	logger *slog.Logger
}

func New(rule ratelimit.Rule, logger *slog.Logger) *Limiter {
	return &Limiter{
		rule:   rule,
		hits:   make(map[string][]time.Time),
		logger: logger,
	}
}

func (l *Limiter) live(ts []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(ts) && now.Sub(ts[i]) >= l.rule.Window {
		i++
	}

	return ts[i:]
}

func (l *Limiter) Admit(ctx context.Context, key string, now time.Time) (ratelimit.Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.live(l.hits[key], now)
	if len(ts) >= l.rule.Max {
		l.hits[key] = ts
		retryAfter := ts[0].Add(l.rule.Window).Sub(now)
		l.logger.DebugContext(ctx, "rejected", "key", key, "retry_after_ms", retryAfter.Milliseconds())
		return ratelimit.Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	l.hits[key] = append(ts, now)
	return ratelimit.Decision{Allowed: true}, nil
}

// Prune forgets keys whose window is empty and reports how many were dropped.
func (l *Limiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for key, ts := range l.hits {
		if ts = l.live(ts, now); len(ts) == 0 {
			delete(l.hits, key)
			dropped++
		} else {
			l.hits[key] = ts
		}
	}

	return dropped
}

// Run prunes on every tick until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.Prune(now); n > 0 {
				l.logger.DebugContext(ctx, "pruned rate limit keys", "count", n)
			}
		}
	}
}
