package spotify

import (
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/osa030/nowplaying/internal/domain/playback"
)

// convertDevice converts a Spotify device to the domain device.
func convertDevice(d spotify.PlayerDevice) playback.Device {
	return playback.Device{
		ID:            string(d.ID),
		Name:          d.Name,
		Type:          d.Type,
		IsActive:      d.Active,
		IsRestricted:  d.Restricted,
		VolumePercent: int(d.Volume),
	}
}

// convertState converts a Spotify player state to the domain state.
// A nil state (nothing playing on any device) yields a paused, empty state.
func convertState(s *spotify.PlayerState) *playback.State {
	if s == nil {
		return &playback.State{
			RepeatState:          playback.RepeatOff,
			CurrentlyPlayingType: playback.PlayingUnknown,
		}
	}

	st := &playback.State{
		Context: playback.Context{
			Type:         playback.ContextType(s.PlaybackContext.Type),
			ExternalURLs: s.PlaybackContext.ExternalURLs,
			Href:         s.PlaybackContext.Endpoint,
			URI:          string(s.PlaybackContext.URI),
		},
		Device:               convertDevice(s.Device),
		IsPlaying:            s.Playing,
		ProgressMs:           int(s.Progress),
		RepeatState:          playback.RepeatMode(s.RepeatState),
		ShuffleState:         s.ShuffleState,
		Timestamp:            s.Timestamp,
		CurrentlyPlayingType: playback.PlayingUnknown,
	}
	if s.Item != nil {
		st.Item = playback.Item{ID: string(s.Item.ID)}
		st.CurrentlyPlayingType = playback.PlayingTrack
	}
	if st.RepeatState == "" {
		st.RepeatState = playback.RepeatOff
	}
	return st
}

// parseAdditionalTypes parses a comma-separated additional_types value.
func parseAdditionalTypes(value string) []spotify.AdditionalType {
	var types []spotify.AdditionalType
	for _, part := range strings.Split(value, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "track":
			types = append(types, spotify.TrackAdditionalType)
		case "episode":
			types = append(types, spotify.EpisodeAdditionalType)
		}
	}
	return types
}

// normalizeTrackURI turns a track URL or bare id into a spotify:track URI.
// Other URIs are returned unchanged.
func normalizeTrackURI(input string) string {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "spotify:") {
		return input
	}

	// Handle URL format: https://open.spotify.com/track/TRACK_ID or https://open.spotify.com/intl-XX/track/TRACK_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		// Remove query parameters and trailing slashes
		id := strings.Split(parts[len(parts)-1], "?")[0]
		id = strings.TrimRight(id, "/")
		return "spotify:track:" + id
	}

	// Assume it's a bare track ID
	return "spotify:track:" + input
}
