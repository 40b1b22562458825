// Package playback provides the playback state entities and the data source contract.
package playback

// RepeatMode represents the repeat setting of a playback session.
type RepeatMode string

const (
	RepeatOff     RepeatMode = "off"     // No repeat
	RepeatTrack   RepeatMode = "track"   // Repeat the current item
	RepeatContext RepeatMode = "context" // Repeat the current context
)

// Valid reports whether m is a known repeat mode.
func (m RepeatMode) Valid() bool {
	switch m {
	case RepeatOff, RepeatTrack, RepeatContext:
		return true
	default:
		return false
	}
}

// ContextType represents the kind of collection being played.
type ContextType string

const (
	ContextAlbum    ContextType = "album"
	ContextPlaylist ContextType = "playlist"
	ContextArtist   ContextType = "artist"
	ContextShow     ContextType = "show"
)

// CurrentlyPlayingType represents the kind of the playing item.
type CurrentlyPlayingType string

const (
	PlayingTrack   CurrentlyPlayingType = "track"
	PlayingEpisode CurrentlyPlayingType = "episode"
	PlayingAd      CurrentlyPlayingType = "ad"
	PlayingUnknown CurrentlyPlayingType = "unknown"
)

// Actions describes transport operations that are disallowed.
// Informational only; commands do not enforce it.
type Actions struct {
	Disallows map[string]bool `json:"disallows"`
}

// Context is a reference to the collection being played.
type Context struct {
	Type         ContextType       `json:"type"`
	ExternalURLs map[string]string `json:"external_urls"`
	Href         string            `json:"href"`
	URI          string            `json:"uri"`
}

// Device represents the playback endpoint of a user.
type Device struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	IsActive         bool   `json:"is_active"`
	IsPrivateSession bool   `json:"is_private_session"`
	IsRestricted     bool   `json:"is_restricted"`
	VolumePercent    int    `json:"volume_percent"`
}

// Item is a reference to the playing unit.
type Item struct {
	ID string `json:"id"`
}

// State is the "now playing" record of a single user.
type State struct {
	Actions              Actions              `json:"actions"`
	Context              Context              `json:"context"`
	Device               Device               `json:"device"`
	IsPlaying            bool                 `json:"is_playing"`
	Item                 Item                 `json:"item"`
	ProgressMs           int                  `json:"progress_ms"`
	RepeatState          RepeatMode           `json:"repeat_state"`
	ShuffleState         bool                 `json:"shuffle_state"`
	Timestamp            int64                `json:"timestamp"` // unix millis at creation
	CurrentlyPlayingType CurrentlyPlayingType `json:"currently_playing_type"`
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	if s.Actions.Disallows != nil {
		c.Actions.Disallows = make(map[string]bool, len(s.Actions.Disallows))
		for k, v := range s.Actions.Disallows {
			c.Actions.Disallows[k] = v
		}
	}
	if s.Context.ExternalURLs != nil {
		c.Context.ExternalURLs = make(map[string]string, len(s.Context.ExternalURLs))
		for k, v := range s.Context.ExternalURLs {
			c.Context.ExternalURLs[k] = v
		}
	}
	return &c
}
