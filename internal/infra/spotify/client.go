// Package spotify provides a playback data source backed by the Spotify Web API.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/nowplaying/internal/domain/playback"
)

// Scopes are the OAuth scopes the playback data source needs.
var Scopes = []string{
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
}

// playerAPI is the subset of the Spotify client used for playback control.
type playerAPI interface {
	PlayerDevices(ctx context.Context) ([]spotify.PlayerDevice, error)
	PlayerState(ctx context.Context, opts ...spotify.RequestOption) (*spotify.PlayerState, error)
	PlayOpt(ctx context.Context, opt *spotify.PlayOptions) error
	PauseOpt(ctx context.Context, opt *spotify.PlayOptions) error
	SeekOpt(ctx context.Context, position int, opt *spotify.PlayOptions) error
	RepeatOpt(ctx context.Context, state string, opt *spotify.PlayOptions) error
	VolumeOpt(ctx context.Context, percent int, opt *spotify.PlayOptions) error
	ShuffleOpt(ctx context.Context, shuffle bool, opt *spotify.PlayOptions) error
	NextOpt(ctx context.Context, opt *spotify.PlayOptions) error
	PreviousOpt(ctx context.Context, opt *spotify.PlayOptions) error
	TransferPlayback(ctx context.Context, deviceID spotify.ID, play bool) error
}

// Client is a playback data source for a single Spotify account.
// Every user id is served by the configured account; user ids are only logged.
type Client struct {
	api        playerAPI
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Ensure Client implements the interface.
var _ playback.DataSource = (*Client)(nil)

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(Scopes...),
	)

	// Create token from refresh token
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	// Get HTTP client with auto-refresh capability
	httpClient := auth.Client(ctx, token)

	return newWithAPI(spotify.New(httpClient), cfg.Market), nil
}

func newWithAPI(api playerAPI, market string) *Client {
	if market == "" {
		market = "JP"
	}
	return &Client{
		api:        api,
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// EnsureUser is a no-op; the account always exists upstream.
func (c *Client) EnsureUser(_ context.Context, userID string) error {
	zlog.Debug().Str("user_id", userID).Msg("spotify account serves user")
	return nil
}

// GetDevices returns the account's available devices.
func (c *Client) GetDevices(ctx context.Context, _ string) ([]playback.Device, error) {
	var devices []spotify.PlayerDevice
	err := c.retry(ctx, func() error {
		d, err := c.api.PlayerDevices(ctx)
		if err != nil {
			return err
		}
		devices = d
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get devices")
	}

	result := make([]playback.Device, len(devices))
	for i, d := range devices {
		result[i] = convertDevice(d)
	}
	return result, nil
}

// GetPlaybackState returns the account's current playback state.
func (c *Client) GetPlaybackState(ctx context.Context, _ string, opts playback.GetStateOptions) (*playback.State, error) {
	reqOpts := []spotify.RequestOption{spotify.Market(c.market)}
	if types := parseAdditionalTypes(opts.AdditionalTypes); len(types) > 0 {
		reqOpts = append(reqOpts, spotify.AdditionalTypes(types...))
	}

	var state *spotify.PlayerState
	err := c.retry(ctx, func() error {
		s, err := c.api.PlayerState(ctx, reqOpts...)
		if err != nil {
			return err
		}
		state = s
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playback state")
	}

	return convertState(state), nil
}

// ResumePlayback starts or resumes playback.
// A position is applied with a seek after playback started.
func (c *Client) ResumePlayback(ctx context.Context, _ string, opts playback.ResumeOptions) (playback.Result, error) {
	if opts.PositionMs != nil {
		if err := playback.ValidatePosition(*opts.PositionMs); err != nil {
			return playback.ResultNone, err
		}
	}

	playOpts := deviceOptions(opts.DeviceID)
	if opts.ContextURI != "" {
		uri := spotify.URI(opts.ContextURI)
		playOpts.PlaybackContext = &uri
	}
	for _, u := range opts.URIs {
		playOpts.URIs = append(playOpts.URIs, spotify.URI(normalizeTrackURI(u)))
	}
	if opts.Offset != nil {
		if opts.Offset.URI != "" {
			playOpts.PlaybackOffset = &spotify.PlaybackOffset{URI: spotify.URI(normalizeTrackURI(opts.Offset.URI))}
		} else if opts.Offset.Position != nil {
			playOpts.PlaybackOffset = &spotify.PlaybackOffset{Position: opts.Offset.Position}
		}
	}

	if err := c.retry(ctx, func() error { return c.api.PlayOpt(ctx, playOpts) }); err != nil {
		return playback.ResultNone, errors.Wrap(err, "failed to resume playback")
	}

	if opts.PositionMs != nil {
		pos := *opts.PositionMs
		if err := c.retry(ctx, func() error { return c.api.SeekOpt(ctx, pos, deviceOptions(opts.DeviceID)) }); err != nil {
			return playback.ResultNone, errors.Wrap(err, "failed to seek after resume")
		}
	}
	return playback.ResultApplied, nil
}

// PausePlayback pauses playback.
func (c *Client) PausePlayback(ctx context.Context, _ string, opts playback.DeviceOptions) (playback.Result, error) {
	return c.command(ctx, "pause playback", func() error {
		return c.api.PauseOpt(ctx, deviceOptions(opts.DeviceID))
	})
}

// SeekToPosition seeks within the current item.
func (c *Client) SeekToPosition(ctx context.Context, _ string, opts playback.SeekOptions) (playback.Result, error) {
	if err := playback.ValidatePosition(opts.PositionMs); err != nil {
		return playback.ResultNone, err
	}
	return c.command(ctx, "seek", func() error {
		return c.api.SeekOpt(ctx, opts.PositionMs, deviceOptions(opts.DeviceID))
	})
}

// SetRepeatMode sets the repeat mode.
func (c *Client) SetRepeatMode(ctx context.Context, _ string, opts playback.RepeatOptions) (playback.Result, error) {
	if err := playback.ValidateRepeatMode(opts.State); err != nil {
		return playback.ResultNone, err
	}
	return c.command(ctx, "set repeat mode", func() error {
		return c.api.RepeatOpt(ctx, string(opts.State), deviceOptions(opts.DeviceID))
	})
}

// SetVolume sets the device volume.
func (c *Client) SetVolume(ctx context.Context, _ string, opts playback.VolumeOptions) (playback.Result, error) {
	if err := playback.ValidateVolume(opts.VolumePercent); err != nil {
		return playback.ResultNone, err
	}
	return c.command(ctx, "set volume", func() error {
		return c.api.VolumeOpt(ctx, opts.VolumePercent, deviceOptions(opts.DeviceID))
	})
}

// ShufflePlayback toggles shuffle.
func (c *Client) ShufflePlayback(ctx context.Context, _ string, opts playback.ShuffleOptions) (playback.Result, error) {
	return c.command(ctx, "set shuffle", func() error {
		return c.api.ShuffleOpt(ctx, opts.State, deviceOptions(opts.DeviceID))
	})
}

// SkipToNext skips to the next item.
func (c *Client) SkipToNext(ctx context.Context, _ string, opts playback.DeviceOptions) (playback.Result, error) {
	return c.command(ctx, "skip to next", func() error {
		return c.api.NextOpt(ctx, deviceOptions(opts.DeviceID))
	})
}

// SkipToPrevious skips to the previous item.
func (c *Client) SkipToPrevious(ctx context.Context, _ string, opts playback.DeviceOptions) (playback.Result, error) {
	return c.command(ctx, "skip to previous", func() error {
		return c.api.PreviousOpt(ctx, deviceOptions(opts.DeviceID))
	})
}

// TransferPlayback moves playback to the first given device.
func (c *Client) TransferPlayback(ctx context.Context, _ string, opts playback.TransferOptions) (playback.Result, error) {
	if len(opts.DeviceIDs) == 0 {
		return playback.ResultNoTarget, nil
	}
	return c.command(ctx, "transfer playback", func() error {
		return c.api.TransferPlayback(ctx, spotify.ID(opts.DeviceIDs[0]), opts.Play)
	})
}

// command runs a player call with retry.
func (c *Client) command(ctx context.Context, name string, fn func() error) (playback.Result, error) {
	if err := c.retry(ctx, fn); err != nil {
		return playback.ResultNone, errors.Wrapf(err, "failed to %s", name)
	}
	return playback.ResultApplied, nil
}

// deviceOptions builds play options targeting deviceID, if given.
func deviceOptions(deviceID string) *spotify.PlayOptions {
	opts := &spotify.PlayOptions{}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opts.DeviceID = &id
	}
	return opts
}

// retry retries an operation with linear backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "retry cancelled")
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}
