package simulator

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/nowplaying/internal/domain/playback"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStore_GetCreatesDefaultState(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(fixedClock(created))

	st := store.Get("u1")

	require.NotNil(t, st)
	assert.True(t, st.IsPlaying)
	assert.Equal(t, 0, st.ProgressMs)
	assert.False(t, st.ShuffleState)
	assert.Equal(t, playback.RepeatOff, st.RepeatState)
	assert.Equal(t, DefaultDeviceID, st.Device.ID)
	assert.Equal(t, DefaultDeviceName, st.Device.Name)
	assert.Equal(t, DefaultDeviceType, st.Device.Type)
	assert.Equal(t, 100, st.Device.VolumePercent)
	assert.True(t, st.Device.IsActive)
	assert.False(t, st.Device.IsPrivateSession)
	assert.False(t, st.Device.IsRestricted)
	assert.Equal(t, DefaultItemID, st.Item.ID)
	assert.Equal(t, playback.PlayingTrack, st.CurrentlyPlayingType)
	assert.Equal(t, playback.ContextAlbum, st.Context.Type)
	assert.True(t, st.Actions.Disallows["interrupting_playback"])
	assert.Equal(t, created.UnixMilli(), st.Timestamp)
	assert.Equal(t, 1, store.Len())
}

func TestStore_EnsureUserCreatesIdleState(t *testing.T) {
	store := NewStore(nil)
	store.EnsureUser("u1")

	st := store.Get("u1")
	assert.False(t, st.IsPlaying)
	assert.False(t, st.Device.IsActive)
	assert.Equal(t, DefaultDeviceID, st.Device.ID)
	assert.Equal(t, 100, st.Device.VolumePercent)
	assert.Equal(t, 0, st.ProgressMs)
	assert.Equal(t, playback.RepeatOff, st.RepeatState)
}

func TestStore_EnsureUserKeepsLookedUpState(t *testing.T) {
	store := NewStore(nil)
	store.Get("u1")
	store.EnsureUser("u1")

	assert.True(t, store.Get("u1").IsPlaying, "ensure must not replace a state created by lookup")
}

func TestStore_EnsureUserIsIdempotent(t *testing.T) {
	store := NewStore(nil)
	store.EnsureUser("u1")

	store.Update("u1", func(st *playback.State) playback.Result {
		st.Device.VolumePercent = 30
		return playback.ResultApplied
	})

	store.EnsureUser("u1")

	assert.Equal(t, 30, store.Get("u1").Device.VolumePercent, "ensure must not overwrite an existing state")
	assert.Equal(t, 1, store.Len())
}

func TestStore_TimestampNotRefreshedOnMutation(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewStore(clock)

	first := store.Get("u1").Timestamp
	now = now.Add(time.Hour)
	store.Update("u1", func(st *playback.State) playback.Result {
		st.ProgressMs = 5000
		return playback.ResultApplied
	})

	assert.Equal(t, first, store.Get("u1").Timestamp)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := NewStore(nil)
	st := store.Get("u1")
	st.Device.VolumePercent = 1
	st.Actions.Disallows["interrupting_playback"] = false

	fresh := store.Get("u1")
	assert.Equal(t, 100, fresh.Device.VolumePercent)
	assert.True(t, fresh.Actions.Disallows["interrupting_playback"])
}

func TestStore_Seed(t *testing.T) {
	store := NewStore(nil)
	store.Seed("default", "u1", "default")
	assert.Equal(t, 2, store.Len())
	assert.True(t, store.Get("default").IsPlaying)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store := NewStore(nil)

	const users = 8
	const perUser = 200

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(userID string) {
				defer wg.Done()
				store.Update(userID, func(st *playback.State) playback.Result {
					st.ProgressMs++
					return playback.ResultApplied
				})
			}(fmt.Sprintf("user-%d", u))
		}
	}
	wg.Wait()

	assert.Equal(t, users, store.Len())
	for u := 0; u < users; u++ {
		assert.Equal(t, perUser, store.Get(fmt.Sprintf("user-%d", u)).ProgressMs)
	}
}
