// Package main provides the playback control CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/nowplaying/internal/api/connect"
	"github.com/osa030/nowplaying/internal/domain/playback"
)

var (
	app    = kingpin.New("nowplaying-playerctl", "nowplaying playback control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("NOWPLAYING_SERVER").String()
	user   = app.Flag("user", "User ID (or set NOWPLAYING_USER env)").Default("default").Envar("NOWPLAYING_USER").String()

	// ensure-user command
	ensureCmd = app.Command("ensure-user", "Register the user").Alias("ensure")

	// devices command
	devicesCmd = app.Command("devices", "List the user's devices")

	// status command
	statusCmd       = app.Command("status", "Show the playback state")
	statusAddlTypes = statusCmd.Flag("additional-types", "Additional item types (track,episode)").String()

	// resume command
	resumeCmd        = app.Command("resume", "Resume playback").Alias("play")
	resumeDevice     = resumeCmd.Flag("device", "Target device ID").String()
	resumeContext    = resumeCmd.Flag("context", "Context URI to play").String()
	resumeURIs       = resumeCmd.Flag("uri", "Track URI to play (repeatable)").Strings()
	resumeOffsetURI  = resumeCmd.Flag("offset-uri", "Start at this URI within the context").String()
	resumeOffsetPos  = resumeCmd.Flag("offset", "Start at this position within the context").Default("-1").Int()
	resumePositionMs = resumeCmd.Flag("position-ms", "Start position in milliseconds").Default("-1").Int()

	// pause command
	pauseCmd    = app.Command("pause", "Pause playback")
	pauseDevice = pauseCmd.Flag("device", "Target device ID").String()

	// seek command
	seekCmd      = app.Command("seek", "Seek to a position")
	seekPosition = seekCmd.Arg("position-ms", "Position in milliseconds").Required().Int()
	seekDevice   = seekCmd.Flag("device", "Target device ID").String()

	// repeat command
	repeatCmd    = app.Command("repeat", "Set the repeat mode")
	repeatMode   = repeatCmd.Arg("mode", "Repeat mode").Required().Enum(string(playback.RepeatOff), string(playback.RepeatTrack), string(playback.RepeatContext))
	repeatDevice = repeatCmd.Flag("device", "Target device ID").String()

	// volume command
	volumeCmd     = app.Command("volume", "Set the volume")
	volumePercent = volumeCmd.Arg("percent", "Volume percent (0-100)").Required().Int()
	volumeDevice  = volumeCmd.Flag("device", "Target device ID").String()

	// shuffle command
	shuffleCmd    = app.Command("shuffle", "Turn shuffle on or off")
	shuffleState  = shuffleCmd.Arg("state", "on or off").Required().Enum("on", "off")
	shuffleDevice = shuffleCmd.Flag("device", "Target device ID").String()

	// next command
	nextCmd    = app.Command("next", "Skip to the next item")
	nextDevice = nextCmd.Flag("device", "Target device ID").String()

	// previous command
	previousCmd    = app.Command("previous", "Skip to the previous item").Alias("prev")
	previousDevice = previousCmd.Flag("device", "Target device ID").String()

	// transfer command
	transferCmd     = app.Command("transfer", "Transfer playback to a device")
	transferDevices = transferCmd.Arg("device-id", "Target device ID").Strings()
	transferPlay    = transferCmd.Flag("play", "Start playing on the new device").Bool()

	// watch command
	watchCmd = app.Command("watch", "Stream playback events")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewPlaybackServiceClient(http.DefaultClient, *server)

	ctx := context.Background()

	switch command {
	case ensureCmd.FullCommand():
		ensureUser(ctx, client)
	case devicesCmd.FullCommand():
		devices(ctx, client)
	case statusCmd.FullCommand():
		status(ctx, client)
	case resumeCmd.FullCommand():
		resume(ctx, client)
	case pauseCmd.FullCommand():
		printCommand(client.PausePlayback(ctx, newRequest(&apiconnect.DeviceRequest{DeviceID: *pauseDevice})))
	case seekCmd.FullCommand():
		printCommand(client.SeekToPosition(ctx, newRequest(&apiconnect.SeekToPositionRequest{
			PositionMs: *seekPosition,
			DeviceID:   *seekDevice,
		})))
	case repeatCmd.FullCommand():
		printCommand(client.SetRepeatMode(ctx, newRequest(&apiconnect.SetRepeatModeRequest{
			State:    *repeatMode,
			DeviceID: *repeatDevice,
		})))
	case volumeCmd.FullCommand():
		printCommand(client.SetVolume(ctx, newRequest(&apiconnect.SetVolumeRequest{
			VolumePercent: *volumePercent,
			DeviceID:      *volumeDevice,
		})))
	case shuffleCmd.FullCommand():
		printCommand(client.ShufflePlayback(ctx, newRequest(&apiconnect.ShufflePlaybackRequest{
			State:    *shuffleState == "on",
			DeviceID: *shuffleDevice,
		})))
	case nextCmd.FullCommand():
		printCommand(client.SkipToNext(ctx, newRequest(&apiconnect.DeviceRequest{DeviceID: *nextDevice})))
	case previousCmd.FullCommand():
		printCommand(client.SkipToPrevious(ctx, newRequest(&apiconnect.DeviceRequest{DeviceID: *previousDevice})))
	case transferCmd.FullCommand():
		printCommand(client.TransferPlayback(ctx, newRequest(&apiconnect.TransferPlaybackRequest{
			DeviceIDs: *transferDevices,
			Play:      *transferPlay,
		})))
	case watchCmd.FullCommand():
		watch(ctx, client)
	}
}

func newRequest[T any](msg *T) *connect.Request[T] {
	return apiconnect.NewUserRequest(*user, msg)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func ensureUser(ctx context.Context, client *apiconnect.PlaybackServiceClient) {
	resp, err := client.EnsureUser(ctx, newRequest(&apiconnect.EnsureUserRequest{}))
	exitOnError(err)
	fmt.Printf("User ready: %s\n", resp.Msg.UserID)
}

func devices(ctx context.Context, client *apiconnect.PlaybackServiceClient) {
	resp, err := client.GetDevices(ctx, newRequest(&apiconnect.GetDevicesRequest{}))
	exitOnError(err)

	fmt.Printf("Devices (%d):\n", len(resp.Msg.Devices))
	for _, d := range resp.Msg.Devices {
		active := ""
		if d.IsActive {
			active = " [ACTIVE]"
		}
		fmt.Printf("  %s: %s (%s, volume: %d)%s\n", d.ID, d.Name, d.Type, d.VolumePercent, active)
	}
}

func status(ctx context.Context, client *apiconnect.PlaybackServiceClient) {
	resp, err := client.GetPlaybackState(ctx, newRequest(&apiconnect.GetPlaybackStateRequest{
		AdditionalTypes: *statusAddlTypes,
	}))
	exitOnError(err)

	fmt.Println("\n=== PLAYBACK STATE ===")
	printState(resp.Msg)
	fmt.Println()
}

func resume(ctx context.Context, client *apiconnect.PlaybackServiceClient) {
	req := &apiconnect.ResumePlaybackRequest{
		DeviceID:   *resumeDevice,
		ContextURI: *resumeContext,
		URIs:       *resumeURIs,
	}
	if *resumeOffsetURI != "" || *resumeOffsetPos >= 0 {
		req.Offset = &apiconnect.Offset{URI: *resumeOffsetURI}
		if *resumeOffsetPos >= 0 {
			req.Offset.Position = resumeOffsetPos
		}
	}
	if *resumePositionMs >= 0 {
		req.PositionMs = resumePositionMs
	}
	printCommand(client.ResumePlayback(ctx, newRequest(req)))
}

func watch(ctx context.Context, client *apiconnect.PlaybackServiceClient) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream, err := client.WatchPlayback(ctx, newRequest(&apiconnect.WatchPlaybackRequest{}))
	exitOnError(err)
	defer stream.Close()

	fmt.Printf("Watching playback of %s (Ctrl+C to stop)\n", *user)
	for stream.Receive() {
		e := stream.Msg()
		fmt.Printf("\n[%s] #%d %s", e.Time, e.SequenceNo, e.Command)
		if e.Result != "" {
			fmt.Printf(" (%s)", e.Result)
		}
		fmt.Println()
		if e.State != nil {
			printState(e.State)
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		exitOnError(err)
	}
}

func printCommand(resp *connect.Response[apiconnect.CommandResponse], err error) {
	exitOnError(err)
	if resp.Msg.Success {
		fmt.Println("OK")
	} else {
		fmt.Printf("Not applied: %s\n", resp.Msg.Result)
	}
}

func printState(st *playback.State) {
	fmt.Printf("  Playing: %v\n", st.IsPlaying)
	fmt.Printf("  Item ID: %s\n", st.Item.ID)
	fmt.Printf("  Progress: %d ms\n", st.ProgressMs)
	fmt.Printf("  Repeat: %s\n", st.RepeatState)
	fmt.Printf("  Shuffle: %v\n", st.ShuffleState)
	fmt.Printf("  Device: %s (%s, active: %v, volume: %d)\n",
		st.Device.Name, st.Device.ID, st.Device.IsActive, st.Device.VolumePercent)
	if st.Context.URI != "" {
		fmt.Printf("  Context: %s (%s)\n", st.Context.URI, st.Context.Type)
	}
}
