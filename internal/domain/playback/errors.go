package playback

import (
	"github.com/cockroachdb/errors"
)

// ErrInvalidArgument marks errors caused by malformed command input.
var ErrInvalidArgument = errors.New("invalid argument")

// IsInvalidArgument reports whether err carries the ErrInvalidArgument mark.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func invalidf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidArgument)
}

// ValidateVolume checks that percent is within [0, 100].
func ValidateVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return invalidf("volume_percent must be between 0 and 100: %d", percent)
	}
	return nil
}

// ValidatePosition checks that a seek position is not negative.
// Positions past the end of the item are accepted.
func ValidatePosition(positionMs int) error {
	if positionMs < 0 {
		return invalidf("position_ms must not be negative: %d", positionMs)
	}
	return nil
}

// ValidateRepeatMode checks that mode is one of off, track or context.
func ValidateRepeatMode(mode RepeatMode) error {
	if !mode.Valid() {
		return invalidf("unknown repeat state: %q", string(mode))
	}
	return nil
}

// ValidateUserID checks that a user id was supplied.
func ValidateUserID(userID string) error {
	if userID == "" {
		return invalidf("user id is required")
	}
	return nil
}
