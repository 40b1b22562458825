package connect

import (
	"github.com/osa030/nowplaying/internal/domain/playback"
)

// EnsureUserRequest registers the calling user.
type EnsureUserRequest struct{}

// EnsureUserResponse echoes the registered user id.
type EnsureUserResponse struct {
	UserID string `json:"user_id"`
}

// GetDevicesRequest lists the calling user's devices.
type GetDevicesRequest struct{}

// GetDevicesResponse carries the user's devices.
type GetDevicesResponse struct {
	Devices []playback.Device `json:"devices"`
}

// GetPlaybackStateRequest reads the calling user's playback state.
type GetPlaybackStateRequest struct {
	AdditionalTypes string `json:"additional_types,omitempty"`
}

// Offset selects where in a context playback starts.
type Offset struct {
	Position *int  `json:"position,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// ResumePlaybackRequest starts or resumes playback.
type ResumePlaybackRequest struct {
	DeviceID   string   `json:"device_id,omitempty"`
	ContextURI string   `json:"context_uri,omitempty"`
	URIs       []string `json:"uris,omitempty"`
	Offset     *Offset  `json:"offset,omitempty"`
	PositionMs *int     `json:"position_ms,omitempty"`
}

// DeviceRequest is a command that takes only an optional device id.
type DeviceRequest struct {
	DeviceID string `json:"device_id,omitempty"`
}

// SeekToPositionRequest seeks within the current item.
type SeekToPositionRequest struct {
	PositionMs int    `json:"position_ms"`
	DeviceID   string `json:"device_id,omitempty"`
}

// SetRepeatModeRequest sets the repeat mode.
type SetRepeatModeRequest struct {
	State    string `json:"state"`
	DeviceID string `json:"device_id,omitempty"`
}

// SetVolumeRequest sets the device volume.
type SetVolumeRequest struct {
	VolumePercent int    `json:"volume_percent"`
	DeviceID      string `json:"device_id,omitempty"`
}

// ShufflePlaybackRequest turns shuffle on or off.
type ShufflePlaybackRequest struct {
	State    bool   `json:"state"`
	DeviceID string `json:"device_id,omitempty"`
}

// TransferPlaybackRequest moves playback to another device.
type TransferPlaybackRequest struct {
	DeviceIDs []string `json:"device_ids"`
	Play      bool     `json:"play,omitempty"`
}

// CommandResponse reports the outcome of a transport command.
type CommandResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
}

// WatchPlaybackRequest subscribes to the calling user's playback events.
type WatchPlaybackRequest struct{}

// PlaybackEvent is a single message of the WatchPlayback stream.
type PlaybackEvent struct {
	SequenceNo uint64          `json:"sequence_no"`
	UserID     string          `json:"user_id"`
	Command    string          `json:"command"`
	Result     string          `json:"result,omitempty"`
	State      *playback.State `json:"state,omitempty"`
	Time       string          `json:"time"`
}

func (r *ResumePlaybackRequest) options() playback.ResumeOptions {
	opts := playback.ResumeOptions{
		DeviceID:   r.DeviceID,
		ContextURI: r.ContextURI,
		URIs:       r.URIs,
		PositionMs: r.PositionMs,
	}
	if r.Offset != nil {
		opts.Offset = &playback.Offset{
			Position: r.Offset.Position,
			URI:      r.Offset.URI,
		}
	}
	return opts
}
