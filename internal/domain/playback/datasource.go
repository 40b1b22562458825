package playback

import "context"

// DeviceOptions carries the optional target device of a command.
// The device id is accepted for API compatibility; single-device sources ignore it.
type DeviceOptions struct {
	DeviceID string
}

// Offset selects where in a context playback should start.
type Offset struct {
	Position *int
	URI      string
}

// ResumeOptions are the parameters of ResumePlayback.
type ResumeOptions struct {
	DeviceID   string
	ContextURI string
	URIs       []string
	Offset     *Offset
	PositionMs *int
}

// SeekOptions are the parameters of SeekToPosition.
type SeekOptions struct {
	PositionMs int
	DeviceID   string
}

// RepeatOptions are the parameters of SetRepeatMode.
type RepeatOptions struct {
	State    RepeatMode
	DeviceID string
}

// VolumeOptions are the parameters of SetVolume.
type VolumeOptions struct {
	VolumePercent int
	DeviceID      string
}

// ShuffleOptions are the parameters of ShufflePlayback.
type ShuffleOptions struct {
	State    bool
	DeviceID string
}

// TransferOptions are the parameters of TransferPlayback.
type TransferOptions struct {
	DeviceIDs []string
	Play      bool
}

// GetStateOptions are the parameters of GetPlaybackState.
type GetStateOptions struct {
	AdditionalTypes string
}

// DataSource is the playback-control API consumed by the service layer.
// Implementations: the in-memory simulator and the Spotify Web API.
type DataSource interface {
	EnsureUser(ctx context.Context, userID string) error
	GetDevices(ctx context.Context, userID string) ([]Device, error)
	GetPlaybackState(ctx context.Context, userID string, opts GetStateOptions) (*State, error)
	ResumePlayback(ctx context.Context, userID string, opts ResumeOptions) (Result, error)
	PausePlayback(ctx context.Context, userID string, opts DeviceOptions) (Result, error)
	SeekToPosition(ctx context.Context, userID string, opts SeekOptions) (Result, error)
	SetRepeatMode(ctx context.Context, userID string, opts RepeatOptions) (Result, error)
	SetVolume(ctx context.Context, userID string, opts VolumeOptions) (Result, error)
	ShufflePlayback(ctx context.Context, userID string, opts ShuffleOptions) (Result, error)
	SkipToNext(ctx context.Context, userID string, opts DeviceOptions) (Result, error)
	SkipToPrevious(ctx context.Context, userID string, opts DeviceOptions) (Result, error)
	TransferPlayback(ctx context.Context, userID string, opts TransferOptions) (Result, error)
}

// Peeker is implemented by sources that can read a state without side effects.
type Peeker interface {
	PeekPlaybackState(ctx context.Context, userID string) (*State, error)
}
