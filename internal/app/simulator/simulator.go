package simulator

import (
	"context"

	"github.com/osa030/nowplaying/internal/domain/playback"
)

// Simulator implements playback.DataSource on top of a Store.
// Device ids passed to commands do not select a device: every user has
// exactly one, and commands always act on it.
type Simulator struct {
	store         *Store
	trackLengthMs int
	tickMs        int
}

// Ensure Simulator implements the interfaces.
var (
	_ playback.DataSource = (*Simulator)(nil)
	_ playback.Peeker     = (*Simulator)(nil)
)

// New creates a simulator over store.
func New(store *Store, settings Settings) *Simulator {
	return &Simulator{
		store:         store,
		trackLengthMs: settings.TrackLengthMs,
		tickMs:        settings.TickMs,
	}
}

// Store returns the underlying state store.
func (s *Simulator) Store() *Store {
	return s.store
}

// EnsureUser creates an idle state for the user if absent.
func (s *Simulator) EnsureUser(_ context.Context, userID string) error {
	s.store.EnsureUser(userID)
	return nil
}

// GetDevices returns the user's single device.
func (s *Simulator) GetDevices(_ context.Context, userID string) ([]playback.Device, error) {
	st := s.store.Get(userID)
	return []playback.Device{st.Device}, nil
}

// GetPlaybackState returns the user's state after advancing progress by one tick.
func (s *Simulator) GetPlaybackState(_ context.Context, userID string, _ playback.GetStateOptions) (*playback.State, error) {
	return s.store.View(userID, s.tick), nil
}

// PeekPlaybackState returns the user's state without advancing progress.
func (s *Simulator) PeekPlaybackState(_ context.Context, userID string) (*playback.State, error) {
	return s.store.Get(userID), nil
}

// tick advances progress while playing, wrapping to zero at the track length.
func (s *Simulator) tick(st *playback.State) {
	if !st.IsPlaying {
		return
	}
	if st.ProgressMs >= s.trackLengthMs {
		st.ProgressMs = 0
		return
	}
	st.ProgressMs += s.tickMs
}

// ResumePlayback starts playback unless it is already playing.
// A position, if given, is applied only when playback was resumed.
func (s *Simulator) ResumePlayback(_ context.Context, userID string, opts playback.ResumeOptions) (playback.Result, error) {
	if opts.PositionMs != nil {
		if err := playback.ValidatePosition(*opts.PositionMs); err != nil {
			return playback.ResultNone, err
		}
	}

	return s.store.Update(userID, func(st *playback.State) playback.Result {
		if st.IsPlaying {
			return playback.ResultAlreadyInState
		}
		st.IsPlaying = true
		st.Device.IsActive = true
		if opts.PositionMs != nil {
			st.ProgressMs = *opts.PositionMs
		}
		return playback.ResultApplied
	}), nil
}

// PausePlayback pauses playback unless it is already paused.
func (s *Simulator) PausePlayback(_ context.Context, userID string, _ playback.DeviceOptions) (playback.Result, error) {
	return s.store.Update(userID, func(st *playback.State) playback.Result {
		if !st.IsPlaying {
			return playback.ResultAlreadyInState
		}
		st.IsPlaying = false
		st.Device.IsActive = false
		return playback.ResultApplied
	}), nil
}

// SeekToPosition moves progress to the given position.
// The position is not checked against the track length.
func (s *Simulator) SeekToPosition(_ context.Context, userID string, opts playback.SeekOptions) (playback.Result, error) {
	if err := playback.ValidatePosition(opts.PositionMs); err != nil {
		return playback.ResultNone, err
	}
	return s.store.Update(userID, func(st *playback.State) playback.Result {
		st.ProgressMs = opts.PositionMs
		return playback.ResultApplied
	}), nil
}

// SetRepeatMode sets the repeat mode.
func (s *Simulator) SetRepeatMode(_ context.Context, userID string, opts playback.RepeatOptions) (playback.Result, error) {
	if err := playback.ValidateRepeatMode(opts.State); err != nil {
		return playback.ResultNone, err
	}
	return s.store.Update(userID, func(st *playback.State) playback.Result {
		st.RepeatState = opts.State
		return playback.ResultApplied
	}), nil
}

// SetVolume sets the device volume.
func (s *Simulator) SetVolume(_ context.Context, userID string, opts playback.VolumeOptions) (playback.Result, error) {
	if err := playback.ValidateVolume(opts.VolumePercent); err != nil {
		return playback.ResultNone, err
	}
	return s.store.Update(userID, func(st *playback.State) playback.Result {
		st.Device.VolumePercent = opts.VolumePercent
		return playback.ResultApplied
	}), nil
}

// ShufflePlayback turns shuffle on or off.
func (s *Simulator) ShufflePlayback(_ context.Context, userID string, opts playback.ShuffleOptions) (playback.Result, error) {
	return s.store.Update(userID, func(st *playback.State) playback.Result {
		st.ShuffleState = opts.State
		return playback.ResultApplied
	}), nil
}

// SkipToNext restarts the current item. The item itself does not change.
func (s *Simulator) SkipToNext(_ context.Context, userID string, _ playback.DeviceOptions) (playback.Result, error) {
	return s.store.Update(userID, restart), nil
}

// SkipToPrevious restarts the current item, same as SkipToNext.
func (s *Simulator) SkipToPrevious(_ context.Context, userID string, _ playback.DeviceOptions) (playback.Result, error) {
	return s.store.Update(userID, restart), nil
}

func restart(st *playback.State) playback.Result {
	st.ProgressMs = 0
	return playback.ResultApplied
}

// TransferPlayback moves playback to the first given device.
// Only the first id is used; an empty list changes nothing.
func (s *Simulator) TransferPlayback(_ context.Context, userID string, opts playback.TransferOptions) (playback.Result, error) {
	if len(opts.DeviceIDs) == 0 {
		s.store.getOrInsert(userID)
		return playback.ResultNoTarget, nil
	}
	return s.store.Update(userID, func(st *playback.State) playback.Result {
		st.Device.ID = opts.DeviceIDs[0]
		st.Device.IsActive = opts.Play
		st.IsPlaying = opts.Play
		return playback.ResultApplied
	}), nil
}
