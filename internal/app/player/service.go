package player

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/domain/playback"
)

// Service runs transport commands against a data source, logs them and
// publishes an event for every command that changed state.
type Service struct {
	source    playback.DataSource
	publisher Publisher
	now       func() time.Time
}

// Ensure Service implements the interface.
var _ playback.DataSource = (*Service)(nil)

// NewService creates a new playback service. publisher may be nil.
func NewService(source playback.DataSource, publisher Publisher) *Service {
	return &Service{
		source:    source,
		publisher: publisher,
		now:       time.Now,
	}
}

// EnsureUser registers a user with the data source.
func (s *Service) EnsureUser(ctx context.Context, userID string) error {
	if err := playback.ValidateUserID(userID); err != nil {
		return err
	}
	if err := s.source.EnsureUser(ctx, userID); err != nil {
		return errors.Wrapf(err, "failed to %s", CommandEnsureUser)
	}
	zlog.Debug().Str("user_id", userID).Msg("user ensured")
	return nil
}

// GetDevices returns the user's devices.
func (s *Service) GetDevices(ctx context.Context, userID string) ([]playback.Device, error) {
	if err := playback.ValidateUserID(userID); err != nil {
		return nil, err
	}
	devices, err := s.source.GetDevices(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get devices")
	}
	return devices, nil
}

// GetPlaybackState returns the user's current playback state.
func (s *Service) GetPlaybackState(ctx context.Context, userID string, opts playback.GetStateOptions) (*playback.State, error) {
	if err := playback.ValidateUserID(userID); err != nil {
		return nil, err
	}
	st, err := s.source.GetPlaybackState(ctx, userID, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playback state")
	}
	return st, nil
}

// PeekPlaybackState returns the user's state without advancing progress
// when the data source supports it.
func (s *Service) PeekPlaybackState(ctx context.Context, userID string) (*playback.State, error) {
	if err := playback.ValidateUserID(userID); err != nil {
		return nil, err
	}
	st, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read playback state")
	}
	return st, nil
}

// ResumePlayback resumes playback.
func (s *Service) ResumePlayback(ctx context.Context, userID string, opts playback.ResumeOptions) (playback.Result, error) {
	return s.run(ctx, userID, CommandResume, func() (playback.Result, error) {
		return s.source.ResumePlayback(ctx, userID, opts)
	})
}

// PausePlayback pauses playback.
func (s *Service) PausePlayback(ctx context.Context, userID string, opts playback.DeviceOptions) (playback.Result, error) {
	return s.run(ctx, userID, CommandPause, func() (playback.Result, error) {
		return s.source.PausePlayback(ctx, userID, opts)
	})
}

// SeekToPosition seeks within the current item.
func (s *Service) SeekToPosition(ctx context.Context, userID string, opts playback.SeekOptions) (playback.Result, error) {
	return s.run(ctx, userID, CommandSeek, func() (playback.Result, error) {
		return s.source.SeekToPosition(ctx, userID, opts)
	})
}

// SetRepeatMode sets the repeat mode.
func (s *Service) SetRepeatMode(ctx context.Context, userID string, opts playback.RepeatOptions) (playback.Result, error) {
	return s.run(ctx, userID, CommandSetRepeat, func() (playback.Result, error) {
		return s.source.SetRepeatMode(ctx, userID, opts)
	})
}

// SetVolume sets the device volume.
func (s *Service) SetVolume(ctx context.Context, userID string, opts playback.VolumeOptions) (playback.Result, error) {
	return s.run(ctx, userID, CommandSetVolume, func() (playback.Result, error) {
		return s.source.SetVolume(ctx, userID, opts)
	})
}

// ShufflePlayback toggles shuffle.
func (s *Service) ShufflePlayback(ctx context.Context, userID string, opts playback.ShuffleOptions) (playback.Result, error) {
	return s.run(ctx, userID, CommandShuffle, func() (playback.Result, error) {
		return s.source.ShufflePlayback(ctx, userID, opts)
	})
}

// SkipToNext skips to the next item.
func (s *Service) SkipToNext(ctx context.Context, userID string, opts playback.DeviceOptions) (playback.Result, error) {
	return s.run(ctx, userID, CommandSkipNext, func() (playback.Result, error) {
		return s.source.SkipToNext(ctx, userID, opts)
	})
}

// SkipToPrevious skips to the previous item.
func (s *Service) SkipToPrevious(ctx context.Context, userID string, opts playback.DeviceOptions) (playback.Result, error) {
	return s.run(ctx, userID, CommandSkipPrevious, func() (playback.Result, error) {
		return s.source.SkipToPrevious(ctx, userID, opts)
	})
}

// TransferPlayback moves playback to another device.
func (s *Service) TransferPlayback(ctx context.Context, userID string, opts playback.TransferOptions) (playback.Result, error) {
	return s.run(ctx, userID, CommandTransfer, func() (playback.Result, error) {
		return s.source.TransferPlayback(ctx, userID, opts)
	})
}

// run executes a single command and handles logging and publishing.
func (s *Service) run(ctx context.Context, userID string, cmd Command, fn func() (playback.Result, error)) (playback.Result, error) {
	if err := playback.ValidateUserID(userID); err != nil {
		return playback.ResultNone, err
	}

	result, err := fn()
	if err != nil {
		level := zerolog.ErrorLevel
		if playback.IsInvalidArgument(err) {
			level = zerolog.WarnLevel
		}
		zlog.WithLevel(level).Err(err).Str("user_id", userID).Str("command", string(cmd)).Msg("playback command failed")
		return playback.ResultNone, errors.Wrapf(err, "failed to %s", cmd)
	}

	zlog.Debug().Str("user_id", userID).Str("command", string(cmd)).Str("result", result.String()).Msg("playback command")

	if result.Applied() {
		s.publish(ctx, userID, cmd, result)
	}
	return result, nil
}

// publish emits an event carrying a fresh snapshot of the user's state.
func (s *Service) publish(ctx context.Context, userID string, cmd Command, result playback.Result) {
	if s.publisher == nil {
		return
	}

	st, err := s.snapshot(ctx, userID)
	if err != nil {
		zlog.Warn().Err(err).Str("user_id", userID).Msg("failed to read state for event")
	}

	s.publisher.Publish(Event{
		UserID:  userID,
		Command: cmd,
		Result:  result,
		State:   st,
		At:      s.now(),
	})
}

// snapshot reads the state without advancing progress when the source allows it.
func (s *Service) snapshot(ctx context.Context, userID string) (*playback.State, error) {
	if p, ok := s.source.(playback.Peeker); ok {
		return p.PeekPlaybackState(ctx, userID)
	}
	return s.source.GetPlaybackState(ctx, userID, playback.GetStateOptions{})
}
