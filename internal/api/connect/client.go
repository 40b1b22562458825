package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/osa030/nowplaying/internal/domain/playback"
)

// PlaybackServiceClient is a client for the PlaybackService RPC.
type PlaybackServiceClient struct {
	ensureUser       *connect.Client[EnsureUserRequest, EnsureUserResponse]
	getDevices       *connect.Client[GetDevicesRequest, GetDevicesResponse]
	getPlaybackState *connect.Client[GetPlaybackStateRequest, playback.State]
	resumePlayback   *connect.Client[ResumePlaybackRequest, CommandResponse]
	pausePlayback    *connect.Client[DeviceRequest, CommandResponse]
	seekToPosition   *connect.Client[SeekToPositionRequest, CommandResponse]
	setRepeatMode    *connect.Client[SetRepeatModeRequest, CommandResponse]
	setVolume        *connect.Client[SetVolumeRequest, CommandResponse]
	shufflePlayback  *connect.Client[ShufflePlaybackRequest, CommandResponse]
	skipToNext       *connect.Client[DeviceRequest, CommandResponse]
	skipToPrevious   *connect.Client[DeviceRequest, CommandResponse]
	transferPlayback *connect.Client[TransferPlaybackRequest, CommandResponse]
	watchPlayback    *connect.Client[WatchPlaybackRequest, PlaybackEvent]
}

// NewPlaybackServiceClient creates a client for the service at baseURL.
func NewPlaybackServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlaybackServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSONCodec()}, opts...)
	return &PlaybackServiceClient{
		ensureUser:       connect.NewClient[EnsureUserRequest, EnsureUserResponse](httpClient, baseURL+EnsureUserProcedure, opts...),
		getDevices:       connect.NewClient[GetDevicesRequest, GetDevicesResponse](httpClient, baseURL+GetDevicesProcedure, opts...),
		getPlaybackState: connect.NewClient[GetPlaybackStateRequest, playback.State](httpClient, baseURL+GetPlaybackStateProcedure, opts...),
		resumePlayback:   connect.NewClient[ResumePlaybackRequest, CommandResponse](httpClient, baseURL+ResumePlaybackProcedure, opts...),
		pausePlayback:    connect.NewClient[DeviceRequest, CommandResponse](httpClient, baseURL+PausePlaybackProcedure, opts...),
		seekToPosition:   connect.NewClient[SeekToPositionRequest, CommandResponse](httpClient, baseURL+SeekToPositionProcedure, opts...),
		setRepeatMode:    connect.NewClient[SetRepeatModeRequest, CommandResponse](httpClient, baseURL+SetRepeatModeProcedure, opts...),
		setVolume:        connect.NewClient[SetVolumeRequest, CommandResponse](httpClient, baseURL+SetVolumeProcedure, opts...),
		shufflePlayback:  connect.NewClient[ShufflePlaybackRequest, CommandResponse](httpClient, baseURL+ShufflePlaybackProcedure, opts...),
		skipToNext:       connect.NewClient[DeviceRequest, CommandResponse](httpClient, baseURL+SkipToNextProcedure, opts...),
		skipToPrevious:   connect.NewClient[DeviceRequest, CommandResponse](httpClient, baseURL+SkipToPreviousProcedure, opts...),
		transferPlayback: connect.NewClient[TransferPlaybackRequest, CommandResponse](httpClient, baseURL+TransferPlaybackProcedure, opts...),
		watchPlayback:    connect.NewClient[WatchPlaybackRequest, PlaybackEvent](httpClient, baseURL+WatchPlaybackProcedure, opts...),
	}
}

// NewUserRequest wraps msg in a request carrying the user id header.
func NewUserRequest[T any](userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if userID != "" {
		req.Header().Set(UserIDHeader, userID)
	}
	return req
}

// EnsureUser calls nowplaying.v1.PlaybackService.EnsureUser.
func (c *PlaybackServiceClient) EnsureUser(ctx context.Context, req *connect.Request[EnsureUserRequest]) (*connect.Response[EnsureUserResponse], error) {
	return c.ensureUser.CallUnary(ctx, req)
}

// GetDevices calls nowplaying.v1.PlaybackService.GetDevices.
func (c *PlaybackServiceClient) GetDevices(ctx context.Context, req *connect.Request[GetDevicesRequest]) (*connect.Response[GetDevicesResponse], error) {
	return c.getDevices.CallUnary(ctx, req)
}

// GetPlaybackState calls nowplaying.v1.PlaybackService.GetPlaybackState.
func (c *PlaybackServiceClient) GetPlaybackState(ctx context.Context, req *connect.Request[GetPlaybackStateRequest]) (*connect.Response[playback.State], error) {
	return c.getPlaybackState.CallUnary(ctx, req)
}

// ResumePlayback calls nowplaying.v1.PlaybackService.ResumePlayback.
func (c *PlaybackServiceClient) ResumePlayback(ctx context.Context, req *connect.Request[ResumePlaybackRequest]) (*connect.Response[CommandResponse], error) {
	return c.resumePlayback.CallUnary(ctx, req)
}

// PausePlayback calls nowplaying.v1.PlaybackService.PausePlayback.
func (c *PlaybackServiceClient) PausePlayback(ctx context.Context, req *connect.Request[DeviceRequest]) (*connect.Response[CommandResponse], error) {
	return c.pausePlayback.CallUnary(ctx, req)
}

// SeekToPosition calls nowplaying.v1.PlaybackService.SeekToPosition.
func (c *PlaybackServiceClient) SeekToPosition(ctx context.Context, req *connect.Request[SeekToPositionRequest]) (*connect.Response[CommandResponse], error) {
	return c.seekToPosition.CallUnary(ctx, req)
}

// SetRepeatMode calls nowplaying.v1.PlaybackService.SetRepeatMode.
func (c *PlaybackServiceClient) SetRepeatMode(ctx context.Context, req *connect.Request[SetRepeatModeRequest]) (*connect.Response[CommandResponse], error) {
	return c.setRepeatMode.CallUnary(ctx, req)
}

// SetVolume calls nowplaying.v1.PlaybackService.SetVolume.
func (c *PlaybackServiceClient) SetVolume(ctx context.Context, req *connect.Request[SetVolumeRequest]) (*connect.Response[CommandResponse], error) {
	return c.setVolume.CallUnary(ctx, req)
}

// ShufflePlayback calls nowplaying.v1.PlaybackService.ShufflePlayback.
func (c *PlaybackServiceClient) ShufflePlayback(ctx context.Context, req *connect.Request[ShufflePlaybackRequest]) (*connect.Response[CommandResponse], error) {
	return c.shufflePlayback.CallUnary(ctx, req)
}

// SkipToNext calls nowplaying.v1.PlaybackService.SkipToNext.
func (c *PlaybackServiceClient) SkipToNext(ctx context.Context, req *connect.Request[DeviceRequest]) (*connect.Response[CommandResponse], error) {
	return c.skipToNext.CallUnary(ctx, req)
}

// SkipToPrevious calls nowplaying.v1.PlaybackService.SkipToPrevious.
func (c *PlaybackServiceClient) SkipToPrevious(ctx context.Context, req *connect.Request[DeviceRequest]) (*connect.Response[CommandResponse], error) {
	return c.skipToPrevious.CallUnary(ctx, req)
}

// TransferPlayback calls nowplaying.v1.PlaybackService.TransferPlayback.
func (c *PlaybackServiceClient) TransferPlayback(ctx context.Context, req *connect.Request[TransferPlaybackRequest]) (*connect.Response[CommandResponse], error) {
	return c.transferPlayback.CallUnary(ctx, req)
}

// WatchPlayback calls nowplaying.v1.PlaybackService.WatchPlayback.
func (c *PlaybackServiceClient) WatchPlayback(ctx context.Context, req *connect.Request[WatchPlaybackRequest]) (*connect.ServerStreamForClient[PlaybackEvent], error) {
	return c.watchPlayback.CallServerStream(ctx, req)
}
