// Package simulator provides an in-memory stand-in for the upstream playback API.
package simulator

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/nowplaying/internal/domain/playback"
)

const (
	// DefaultDeviceID is the synthetic id of the device every new user starts with.
	DefaultDeviceID = "f15b1cd24a5ae5fe4224edc5d4958a06f07c5b99"
	// DefaultDeviceName is the display name of the default device.
	DefaultDeviceName = "My Computer"
	// DefaultDeviceType is the type tag of the default device.
	DefaultDeviceType = "Computer"
	// DefaultItemID is the item every new user starts with.
	DefaultItemID = "2jJIENqpTOjBECelzBJAVL"
)

// NewDefaultState builds the state a user looked up for the first time starts
// with: playing on the default device.
func NewDefaultState(now time.Time) playback.State {
	return playback.State{
		Actions: playback.Actions{
			Disallows: map[string]bool{"interrupting_playback": true},
		},
		Context: playback.Context{
			Type:         playback.ContextAlbum,
			ExternalURLs: map[string]string{"spotify": ""},
		},
		Device: playback.Device{
			ID:            DefaultDeviceID,
			Name:          DefaultDeviceName,
			Type:          DefaultDeviceType,
			IsActive:      true,
			VolumePercent: 100,
		},
		IsPlaying:            true,
		Item:                 playback.Item{ID: DefaultItemID},
		ProgressMs:           0,
		RepeatState:          playback.RepeatOff,
		ShuffleState:         false,
		Timestamp:            now.UnixMilli(),
		CurrentlyPlayingType: playback.PlayingTrack,
	}
}

// NewIdleState builds the state of an explicitly registered user: the default
// state, paused, with the device inactive.
func NewIdleState(now time.Time) playback.State {
	st := NewDefaultState(now)
	st.IsPlaying = false
	st.Device.IsActive = false
	return st
}

// record is a single user's state with its own lock.
type record struct {
	mu    sync.Mutex
	state playback.State
}

// Store maps user ids to playback states.
// The map lock only guards lookup and insert; each record is locked separately
// so commands for different users do not contend.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	now     func() time.Time
}

// NewStore creates an empty store. A nil clock defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		records: make(map[string]*record),
		now:     now,
	}
}

// EnsureUser creates an idle state for userID if it does not exist yet.
// An existing state is left untouched.
func (s *Store) EnsureUser(userID string) {
	s.insert(userID, NewIdleState)
}

// Seed creates the default state for each given user that does not exist yet.
func (s *Store) Seed(userIDs ...string) {
	for _, id := range userIDs {
		s.getOrInsert(id)
	}
}

// Get returns a copy of the user's state, creating it first if absent.
func (s *Store) Get(userID string) *playback.State {
	r := s.getOrInsert(userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Update runs fn on the user's state while holding the record lock.
func (s *Store) Update(userID string, fn func(st *playback.State) playback.Result) playback.Result {
	r := s.getOrInsert(userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&r.state)
}

// View runs fn on the user's state while holding the record lock and
// returns a copy of the state as fn left it.
func (s *Store) View(userID string, fn func(st *playback.State)) *playback.State {
	r := s.getOrInsert(userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.state)
	return r.state.Clone()
}

// Len returns the number of known users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// getOrInsert returns the record for userID, inserting a default one if absent.
func (s *Store) getOrInsert(userID string) *record {
	return s.insert(userID, NewDefaultState)
}

// insert returns the record for userID, building it with newState if absent.
// An existing record is never replaced.
func (s *Store) insert(userID string, newState func(time.Time) playback.State) *record {
	s.mu.RLock()
	r, ok := s.records[userID]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have inserted it between the two locks
	if r, ok := s.records[userID]; ok {
		return r
	}

	r = &record{state: newState(s.now())}
	s.records[userID] = r
	zlog.Debug().Str("user_id", userID).Msg("created playback state")
	return r
}
