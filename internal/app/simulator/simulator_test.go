package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/nowplaying/internal/domain/playback"
)

func newTestSimulator() *Simulator {
	return New(NewStore(nil), DefaultSettings())
}

func intPtr(v int) *int {
	return &v
}

func TestSimulator_ResumeWhenPlaying(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()
	before := sim.Store().Get("u1")

	result, err := sim.ResumePlayback(ctx, "u1", playback.ResumeOptions{})

	require.NoError(t, err)
	assert.Equal(t, playback.ResultAlreadyInState, result)
	assert.Equal(t, before, sim.Store().Get("u1"), "state must not change")
}

func TestSimulator_PauseWhenPaused(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	result, err := sim.PausePlayback(ctx, "u1", playback.DeviceOptions{})
	require.NoError(t, err)
	require.Equal(t, playback.ResultApplied, result)
	before := sim.Store().Get("u1")

	result, err = sim.PausePlayback(ctx, "u1", playback.DeviceOptions{})

	require.NoError(t, err)
	assert.Equal(t, playback.ResultAlreadyInState, result)
	assert.Equal(t, before, sim.Store().Get("u1"))
}

func TestSimulator_ResumeThenPauseRestoresDevice(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()
	require.NoError(t, sim.EnsureUser(ctx, "u1"))
	activeBefore := sim.Store().Get("u1").Device.IsActive

	result, err := sim.ResumePlayback(ctx, "u1", playback.ResumeOptions{DeviceID: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultApplied, result)
	st := sim.Store().Get("u1")
	assert.True(t, st.IsPlaying)
	assert.True(t, st.Device.IsActive)

	result, err = sim.PausePlayback(ctx, "u1", playback.DeviceOptions{})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultApplied, result)
	st = sim.Store().Get("u1")
	assert.False(t, st.IsPlaying)
	assert.Equal(t, activeBefore, st.Device.IsActive)
}

func TestSimulator_ResumeWithPosition(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()
	_, _ = sim.PausePlayback(ctx, "u1", playback.DeviceOptions{})

	result, err := sim.ResumePlayback(ctx, "u1", playback.ResumeOptions{PositionMs: intPtr(42000)})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultApplied, result)
	assert.Equal(t, 42000, sim.Store().Get("u1").ProgressMs)

	_, err = sim.ResumePlayback(ctx, "u1", playback.ResumeOptions{PositionMs: intPtr(-1)})
	require.Error(t, err)
	assert.True(t, playback.IsInvalidArgument(err))
}

func TestSimulator_ProgressTick(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	st, err := sim.GetPlaybackState(ctx, "u1", playback.GetStateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1000, st.ProgressMs)

	st, err = sim.GetPlaybackState(ctx, "u1", playback.GetStateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2000, st.ProgressMs)
}

func TestSimulator_ProgressWrapsAtTrackLength(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()
	_, err := sim.SeekToPosition(ctx, "u1", playback.SeekOptions{PositionMs: 139000})
	require.NoError(t, err)

	st, err := sim.GetPlaybackState(ctx, "u1", playback.GetStateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 140000, st.ProgressMs)

	st, err = sim.GetPlaybackState(ctx, "u1", playback.GetStateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, st.ProgressMs, "progress wraps instead of clamping")
}

func TestSimulator_ProgressFrozenWhilePaused(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()
	_, _ = sim.SeekToPosition(ctx, "u1", playback.SeekOptions{PositionMs: 5000})
	_, _ = sim.PausePlayback(ctx, "u1", playback.DeviceOptions{})

	for i := 0; i < 3; i++ {
		st, err := sim.GetPlaybackState(ctx, "u1", playback.GetStateOptions{})
		require.NoError(t, err)
		assert.Equal(t, 5000, st.ProgressMs)
	}
}

func TestSimulator_PeekDoesNotTick(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	st, err := sim.PeekPlaybackState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, st.ProgressMs)
	st, err = sim.PeekPlaybackState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, st.ProgressMs)
}

func TestSimulator_Seek(t *testing.T) {
	tests := []struct {
		name       string
		positionMs int
		wantErr    bool
	}{
		{name: "start", positionMs: 0},
		{name: "within track", positionMs: 60000},
		{name: "past track length", positionMs: 500000},
		{name: "negative", positionMs: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sim := newTestSimulator()
			_, _ = sim.SeekToPosition(ctx, "u1", playback.SeekOptions{PositionMs: 1234})

			result, err := sim.SeekToPosition(ctx, "u1", playback.SeekOptions{PositionMs: tt.positionMs, DeviceID: "other"})

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, playback.IsInvalidArgument(err))
				assert.Equal(t, 1234, sim.Store().Get("u1").ProgressMs, "invalid seek must not mutate")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, playback.ResultApplied, result)
			assert.Equal(t, tt.positionMs, sim.Store().Get("u1").ProgressMs)
		})
	}
}

func TestSimulator_SetRepeatMode(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	for _, mode := range []playback.RepeatMode{playback.RepeatTrack, playback.RepeatContext, playback.RepeatOff} {
		result, err := sim.SetRepeatMode(ctx, "u1", playback.RepeatOptions{State: mode})
		require.NoError(t, err)
		assert.Equal(t, playback.ResultApplied, result)
		assert.Equal(t, mode, sim.Store().Get("u1").RepeatState)
	}

	_, err := sim.SetRepeatMode(ctx, "u1", playback.RepeatOptions{State: "forever"})
	require.Error(t, err)
	assert.True(t, playback.IsInvalidArgument(err))
	assert.Equal(t, playback.RepeatOff, sim.Store().Get("u1").RepeatState)
}

func TestSimulator_SetVolume(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	result, err := sim.SetVolume(ctx, "u1", playback.VolumeOptions{VolumePercent: 0})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultApplied, result)
	assert.Equal(t, 0, sim.Store().Get("u1").Device.VolumePercent)

	_, err = sim.SetVolume(ctx, "u1", playback.VolumeOptions{VolumePercent: 101})
	require.Error(t, err)
	assert.True(t, playback.IsInvalidArgument(err))
	assert.Equal(t, 0, sim.Store().Get("u1").Device.VolumePercent)
}

func TestSimulator_Shuffle(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	result, err := sim.ShufflePlayback(ctx, "u1", playback.ShuffleOptions{State: true})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultApplied, result)
	assert.True(t, sim.Store().Get("u1").ShuffleState)

	result, err = sim.ShufflePlayback(ctx, "u1", playback.ShuffleOptions{State: true})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultApplied, result, "shuffle always reports applied")
}

func TestSimulator_SkipResetsProgress(t *testing.T) {
	tests := []struct {
		name    string
		playing bool
		skip    func(*Simulator) (playback.Result, error)
	}{
		{
			name:    "next while playing",
			playing: true,
			skip: func(s *Simulator) (playback.Result, error) {
				return s.SkipToNext(context.Background(), "u1", playback.DeviceOptions{})
			},
		},
		{
			name:    "previous while playing",
			playing: true,
			skip: func(s *Simulator) (playback.Result, error) {
				return s.SkipToPrevious(context.Background(), "u1", playback.DeviceOptions{})
			},
		},
		{
			name:    "next while paused",
			playing: false,
			skip: func(s *Simulator) (playback.Result, error) {
				return s.SkipToNext(context.Background(), "u1", playback.DeviceOptions{})
			},
		},
		{
			name:    "previous while paused",
			playing: false,
			skip: func(s *Simulator) (playback.Result, error) {
				return s.SkipToPrevious(context.Background(), "u1", playback.DeviceOptions{})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sim := newTestSimulator()
			_, _ = sim.SeekToPosition(ctx, "u1", playback.SeekOptions{PositionMs: 77000})
			if !tt.playing {
				_, _ = sim.PausePlayback(ctx, "u1", playback.DeviceOptions{})
			}

			result, err := tt.skip(sim)

			require.NoError(t, err)
			assert.Equal(t, playback.ResultApplied, result)
			st := sim.Store().Get("u1")
			assert.Equal(t, 0, st.ProgressMs)
			assert.Equal(t, tt.playing, st.IsPlaying)
			assert.Equal(t, DefaultItemID, st.Item.ID, "skip does not change the item")
		})
	}
}

func TestSimulator_Transfer(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	result, err := sim.TransferPlayback(ctx, "u1", playback.TransferOptions{DeviceIDs: []string{}})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultNoTarget, result)
	assert.False(t, result.Applied())
	assert.Equal(t, DefaultDeviceID, sim.Store().Get("u1").Device.ID)

	result, err = sim.TransferPlayback(ctx, "u1", playback.TransferOptions{DeviceIDs: []string{"dev2", "dev3"}, Play: true})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultApplied, result)
	st := sim.Store().Get("u1")
	assert.Equal(t, "dev2", st.Device.ID)
	assert.True(t, st.Device.IsActive)
	assert.True(t, st.IsPlaying)

	result, err = sim.TransferPlayback(ctx, "u1", playback.TransferOptions{DeviceIDs: []string{"dev4"}, Play: false})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultApplied, result)
	st = sim.Store().Get("u1")
	assert.Equal(t, "dev4", st.Device.ID)
	assert.False(t, st.Device.IsActive)
	assert.False(t, st.IsPlaying)
}

func TestSimulator_TransferWithoutTargetCreatesDefault(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	result, err := sim.TransferPlayback(ctx, "fresh", playback.TransferOptions{})
	require.NoError(t, err)
	assert.Equal(t, playback.ResultNoTarget, result)

	st := sim.Store().Get("fresh")
	assert.True(t, st.IsPlaying)
	assert.True(t, st.Device.IsActive)
	assert.Equal(t, DefaultDeviceID, st.Device.ID)
}

func TestSimulator_GetDevices(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()
	_, _ = sim.TransferPlayback(ctx, "u1", playback.TransferOptions{DeviceIDs: []string{"dev2"}, Play: true})

	devices, err := sim.GetDevices(ctx, "u1")

	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "dev2", devices[0].ID)
}

func TestSimulator_UsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	_, _ = sim.SetVolume(ctx, "u1", playback.VolumeOptions{VolumePercent: 10})
	_, _ = sim.PausePlayback(ctx, "u1", playback.DeviceOptions{})

	st := sim.Store().Get("u2")
	assert.Equal(t, 100, st.Device.VolumePercent)
	assert.True(t, st.IsPlaying)
}

func TestSimulator_Scenario(t *testing.T) {
	ctx := context.Background()
	sim := newTestSimulator()

	require.NoError(t, sim.EnsureUser(ctx, "u1"))

	result, err := sim.ResumePlayback(ctx, "u1", playback.ResumeOptions{})
	require.NoError(t, err)
	assert.True(t, result.Applied())

	_, err = sim.SetVolume(ctx, "u1", playback.VolumeOptions{VolumePercent: 75})
	require.NoError(t, err)

	st, err := sim.GetPlaybackState(ctx, "u1", playback.GetStateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 75, st.Device.VolumePercent)
	assert.True(t, st.IsPlaying)

	result, err = sim.PausePlayback(ctx, "u1", playback.DeviceOptions{})
	require.NoError(t, err)
	assert.True(t, result.Applied())
	paused := sim.Store().Get("u1")

	result, err = sim.PausePlayback(ctx, "u1", playback.DeviceOptions{})
	require.NoError(t, err)
	assert.False(t, result.Applied())

	final := sim.Store().Get("u1")
	assert.Equal(t, paused, final)
	assert.False(t, final.IsPlaying)
	assert.False(t, final.Device.IsActive)
	assert.Equal(t, 75, final.Device.VolumePercent)
}
