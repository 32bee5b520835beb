package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

// Conn is a transport handle that can receive room events.
type Conn interface {
	ID() string
	WriteJSON(v any) error
	CloseWithReason(code int, reason string) error
}
