package room

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limited")
	ErrNotHost            = errors.New("only the host can do that")
	ErrUnknownParticipant = errors.New("unknown participant")
)

// RateLimitError reports a rejected admission together with the time until the next one is possible.
type RateLimitError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %s, retry after %s", ErrRateLimited, e.Action, e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

func invalidInput(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidInput, what, err)
}
