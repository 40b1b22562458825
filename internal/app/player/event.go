// Package player provides the playback service that fronts a playback data source.
package player

import (
	"time"

	"github.com/osa030/nowplaying/internal/domain/playback"
)

// Command identifies a transport command.
type Command string

const (
	CommandEnsureUser   Command = "ensure_user"
	CommandResume       Command = "resume"
	CommandPause        Command = "pause"
	CommandSeek         Command = "seek"
	CommandSetRepeat    Command = "set_repeat_mode"
	CommandSetVolume    Command = "set_volume"
	CommandShuffle      Command = "shuffle"
	CommandSkipNext     Command = "skip_to_next"
	CommandSkipPrevious Command = "skip_to_previous"
	CommandTransfer     Command = "transfer"
)

// Event is emitted after a command changed a user's playback state.
type Event struct {
	UserID  string
	Command Command
	Result  playback.Result
	State   *playback.State // Snapshot after the command (nil if it could not be read)
	At      time.Time
}

// Publisher receives playback events.
type Publisher interface {
	Publish(Event)
}
