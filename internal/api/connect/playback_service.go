package connect

import (
	"context"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/nowplaying/internal/app/notification"
	"github.com/osa030/nowplaying/internal/app/player"
	"github.com/osa030/nowplaying/internal/domain/playback"
)

// PlaybackServiceName is the fully-qualified name of the playback service.
const PlaybackServiceName = "nowplaying.v1.PlaybackService"

// Procedure paths of the playback service.
const (
	EnsureUserProcedure       = "/" + PlaybackServiceName + "/EnsureUser"
	GetDevicesProcedure       = "/" + PlaybackServiceName + "/GetDevices"
	GetPlaybackStateProcedure = "/" + PlaybackServiceName + "/GetPlaybackState"
	ResumePlaybackProcedure   = "/" + PlaybackServiceName + "/ResumePlayback"
	PausePlaybackProcedure    = "/" + PlaybackServiceName + "/PausePlayback"
	SeekToPositionProcedure   = "/" + PlaybackServiceName + "/SeekToPosition"
	SetRepeatModeProcedure    = "/" + PlaybackServiceName + "/SetRepeatMode"
	SetVolumeProcedure        = "/" + PlaybackServiceName + "/SetVolume"
	ShufflePlaybackProcedure  = "/" + PlaybackServiceName + "/ShufflePlayback"
	SkipToNextProcedure       = "/" + PlaybackServiceName + "/SkipToNext"
	SkipToPreviousProcedure   = "/" + PlaybackServiceName + "/SkipToPrevious"
	TransferPlaybackProcedure = "/" + PlaybackServiceName + "/TransferPlayback"
	WatchPlaybackProcedure    = "/" + PlaybackServiceName + "/WatchPlayback"
)

// commandInitialState tags the first message of a WatchPlayback stream.
const commandInitialState = "initial_state"

// PlaybackService implements the PlaybackService RPC.
type PlaybackService struct {
	player *player.Service
	events *notification.Manager

	done      chan struct{}
	closeOnce sync.Once
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(p *player.Service, events *notification.Manager) *PlaybackService {
	return &PlaybackService{
		player: p,
		events: events,
		done:   make(chan struct{}),
	}
}

// Close ends all open WatchPlayback streams.
func (s *PlaybackService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// NewPlaybackServiceHandler builds an HTTP handler serving every procedure
// of svc and returns the path prefix to mount it on.
func NewPlaybackServiceHandler(svc *PlaybackService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSONCodec()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(EnsureUserProcedure, connect.NewUnaryHandler(EnsureUserProcedure, svc.EnsureUser, opts...))
	mux.Handle(GetDevicesProcedure, connect.NewUnaryHandler(GetDevicesProcedure, svc.GetDevices, opts...))
	mux.Handle(GetPlaybackStateProcedure, connect.NewUnaryHandler(GetPlaybackStateProcedure, svc.GetPlaybackState, opts...))
	mux.Handle(ResumePlaybackProcedure, connect.NewUnaryHandler(ResumePlaybackProcedure, svc.ResumePlayback, opts...))
	mux.Handle(PausePlaybackProcedure, connect.NewUnaryHandler(PausePlaybackProcedure, svc.PausePlayback, opts...))
	mux.Handle(SeekToPositionProcedure, connect.NewUnaryHandler(SeekToPositionProcedure, svc.SeekToPosition, opts...))
	mux.Handle(SetRepeatModeProcedure, connect.NewUnaryHandler(SetRepeatModeProcedure, svc.SetRepeatMode, opts...))
	mux.Handle(SetVolumeProcedure, connect.NewUnaryHandler(SetVolumeProcedure, svc.SetVolume, opts...))
	mux.Handle(ShufflePlaybackProcedure, connect.NewUnaryHandler(ShufflePlaybackProcedure, svc.ShufflePlayback, opts...))
	mux.Handle(SkipToNextProcedure, connect.NewUnaryHandler(SkipToNextProcedure, svc.SkipToNext, opts...))
	mux.Handle(SkipToPreviousProcedure, connect.NewUnaryHandler(SkipToPreviousProcedure, svc.SkipToPrevious, opts...))
	mux.Handle(TransferPlaybackProcedure, connect.NewUnaryHandler(TransferPlaybackProcedure, svc.TransferPlayback, opts...))
	mux.Handle(WatchPlaybackProcedure, connect.NewServerStreamHandler(WatchPlaybackProcedure, svc.WatchPlayback, opts...))

	return "/" + PlaybackServiceName + "/", mux
}

// EnsureUser registers the calling user.
func (s *PlaybackService) EnsureUser(
	ctx context.Context,
	req *connect.Request[EnsureUserRequest],
) (*connect.Response[EnsureUserResponse], error) {
	userID := UserIDFromContext(ctx)
	if err := s.player.EnsureUser(ctx, userID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&EnsureUserResponse{UserID: userID}), nil
}

// GetDevices lists the calling user's devices.
func (s *PlaybackService) GetDevices(
	ctx context.Context,
	req *connect.Request[GetDevicesRequest],
) (*connect.Response[GetDevicesResponse], error) {
	devices, err := s.player.GetDevices(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetDevicesResponse{Devices: devices}), nil
}

// GetPlaybackState returns the calling user's playback state.
func (s *PlaybackService) GetPlaybackState(
	ctx context.Context,
	req *connect.Request[GetPlaybackStateRequest],
) (*connect.Response[playback.State], error) {
	st, err := s.player.GetPlaybackState(ctx, UserIDFromContext(ctx), playback.GetStateOptions{
		AdditionalTypes: req.Msg.AdditionalTypes,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(st), nil
}

// ResumePlayback resumes playback.
func (s *PlaybackService) ResumePlayback(
	ctx context.Context,
	req *connect.Request[ResumePlaybackRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.player.ResumePlayback(ctx, UserIDFromContext(ctx), req.Msg.options()))
}

// PausePlayback pauses playback.
func (s *PlaybackService) PausePlayback(
	ctx context.Context,
	req *connect.Request[DeviceRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.player.PausePlayback(ctx, UserIDFromContext(ctx), playback.DeviceOptions{
		DeviceID: req.Msg.DeviceID,
	}))
}

// SeekToPosition seeks within the current item.
func (s *PlaybackService) SeekToPosition(
	ctx context.Context,
	req *connect.Request[SeekToPositionRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.player.SeekToPosition(ctx, UserIDFromContext(ctx), playback.SeekOptions{
		PositionMs: req.Msg.PositionMs,
		DeviceID:   req.Msg.DeviceID,
	}))
}

// SetRepeatMode sets the repeat mode.
func (s *PlaybackService) SetRepeatMode(
	ctx context.Context,
	req *connect.Request[SetRepeatModeRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.player.SetRepeatMode(ctx, UserIDFromContext(ctx), playback.RepeatOptions{
		State:    playback.RepeatMode(req.Msg.State),
		DeviceID: req.Msg.DeviceID,
	}))
}

// SetVolume sets the device volume.
func (s *PlaybackService) SetVolume(
	ctx context.Context,
	req *connect.Request[SetVolumeRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.player.SetVolume(ctx, UserIDFromContext(ctx), playback.VolumeOptions{
		VolumePercent: req.Msg.VolumePercent,
		DeviceID:      req.Msg.DeviceID,
	}))
}

// ShufflePlayback turns shuffle on or off.
func (s *PlaybackService) ShufflePlayback(
	ctx context.Context,
	req *connect.Request[ShufflePlaybackRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.player.ShufflePlayback(ctx, UserIDFromContext(ctx), playback.ShuffleOptions{
		State:    req.Msg.State,
		DeviceID: req.Msg.DeviceID,
	}))
}

// SkipToNext skips to the next item.
func (s *PlaybackService) SkipToNext(
	ctx context.Context,
	req *connect.Request[DeviceRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.player.SkipToNext(ctx, UserIDFromContext(ctx), playback.DeviceOptions{
		DeviceID: req.Msg.DeviceID,
	}))
}

// SkipToPrevious skips to the previous item.
func (s *PlaybackService) SkipToPrevious(
	ctx context.Context,
	req *connect.Request[DeviceRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.player.SkipToPrevious(ctx, UserIDFromContext(ctx), playback.DeviceOptions{
		DeviceID: req.Msg.DeviceID,
	}))
}

// TransferPlayback moves playback to another device.
func (s *PlaybackService) TransferPlayback(
	ctx context.Context,
	req *connect.Request[TransferPlaybackRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.player.TransferPlayback(ctx, UserIDFromContext(ctx), playback.TransferOptions{
		DeviceIDs: req.Msg.DeviceIDs,
		Play:      req.Msg.Play,
	}))
}

// WatchPlayback streams the calling user's playback events, starting with
// the current state.
func (s *PlaybackService) WatchPlayback(
	ctx context.Context,
	req *connect.Request[WatchPlaybackRequest],
	stream *connect.ServerStream[PlaybackEvent],
) error {
	userID := UserIDFromContext(ctx)
	adapter := &eventStreamAdapter{stream: stream}

	// Subscribe before reading the initial state so no event falls between
	// the two. Holding the adapter lock keeps broadcasts behind the initial
	// message.
	adapter.mu.Lock()
	subscriptionID := s.events.Subscribe(userID, adapter)
	err := s.sendInitialState(ctx, userID, stream)
	adapter.mu.Unlock()
	if err != nil {
		s.events.Unsubscribe(subscriptionID)
		adapter.close()
		return err
	}

	// Wait for context cancellation or server shutdown
	select {
	case <-ctx.Done():
	case <-s.done:
	}

	s.events.Unsubscribe(subscriptionID)
	adapter.close()

	return nil
}

func (s *PlaybackService) sendInitialState(ctx context.Context, userID string, stream *connect.ServerStream[PlaybackEvent]) error {
	st, err := s.player.PeekPlaybackState(ctx, userID)
	if err != nil {
		return toConnectError(err)
	}
	return stream.Send(&PlaybackEvent{
		UserID:  userID,
		Command: commandInitialState,
		State:   st,
		Time:    time.Now().Format(time.RFC3339),
	})
}

// eventStreamAdapter adapts connect.ServerStream to notification.Stream.
// Sends are serialized and refused once the handler has returned.
type eventStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[PlaybackEvent]
	closed bool
}

func (a *eventStreamAdapter) Send(n *notification.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.New("stream closed")
	}
	return a.stream.Send(toPlaybackEvent(n))
}

func (a *eventStreamAdapter) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

func toPlaybackEvent(n *notification.Notification) *PlaybackEvent {
	return &PlaybackEvent{
		SequenceNo: n.SequenceNo,
		UserID:     n.Event.UserID,
		Command:    string(n.Event.Command),
		Result:     n.Event.Result.String(),
		State:      n.Event.State,
		Time:       n.Event.At.Format(time.RFC3339),
	}
}

// commandResponse converts a command outcome into an RPC response.
func commandResponse(result playback.Result, err error) (*connect.Response[CommandResponse], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CommandResponse{
		Success: result.Applied(),
		Result:  result.String(),
	}), nil
}

// toConnectError maps service errors to Connect error codes.
func toConnectError(err error) error {
	switch {
	case playback.IsInvalidArgument(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
