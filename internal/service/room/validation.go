package room

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var RoomIDRule = []validation.Rule{
	validation.Required,
	validation.Length(roomIDLength, roomIDLength),
	is.Alphanumeric,
}

var UserIDRule = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, 64),
}

var UsernameRule = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, 20),
	validation.Match(regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)),
}

var VideoIDRule = []validation.Rule{
	validation.Required,
	validation.Match(regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)),
}

var TitleRule = []validation.Rule{
	validation.RuneLength(0, 200),
}

var ThumbnailRule = []validation.Rule{
	validation.RuneLength(0, 2048),
	is.URL,
}

var ContentRule = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, 500),
}

var EmojiRule = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, 16),
}

var MessageIDRule = []validation.Rule{
	validation.Required,
	is.UUID,
}

var errNotFiniteTime = errors.New("must be a finite non-negative number")

var PlaybackTimeRule = []validation.Rule{
	validation.By(func(value interface{}) error {
		f, ok := value.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return errNotFiniteTime
		}
		return nil
	}),
}

var DurationRule = []validation.Rule{
	validation.Min(0),
}

func validateRoomID(roomID string) error {
	if err := validation.Validate(roomID, RoomIDRule...); err != nil {
		return invalidInput("room id", err)
	}

	return nil
}

func validateUserID(userID string) error {
	if err := validation.Validate(userID, UserIDRule...); err != nil {
		return invalidInput("user id", err)
	}

	return nil
}

func validateUsername(username string) error {
	if err := validation.Validate(username, UsernameRule...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUsername, err)
	}

	return nil
}

func validatePlaybackTime(t float64) error {
	if err := validation.Validate(t, PlaybackTimeRule...); err != nil {
		return invalidInput("playback time", err)
	}

	return nil
}

// normalizeContent trims surrounding whitespace before the length rules apply.
func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if err := validation.Validate(content, ContentRule...); err != nil {
		return "", invalidInput("content", err)
	}

	return content, nil
}
