package ratelimit

import "time"

// Decision is the outcome of one admission check. RetryAfter is set only when the call was rejected.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Rule is a sliding window: at most Max admissions within any Window.
type Rule struct {
	Window time.Duration
	Max    int
}

var (
	ChatRule     = Rule{Window: 5 * time.Second, Max: 5}
	QueueAddRule = Rule{Window: time.Minute, Max: 10}
)
