// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/nowplaying/internal/api/connect"
	"github.com/osa030/nowplaying/internal/app/notification"
	"github.com/osa030/nowplaying/internal/app/player"
	"github.com/osa030/nowplaying/internal/app/simulator"
	"github.com/osa030/nowplaying/internal/domain/playback"
	"github.com/osa030/nowplaying/internal/infra/config"
	"github.com/osa030/nowplaying/internal/infra/logger"
	"github.com/osa030/nowplaying/internal/infra/spotify"
)

var (
	app        = kingpin.New("nowplaying-server", "nowplaying playback server")
	configPath = app.Flag("config", "Path to config file (defaults only when empty)").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-backends command
	listBackendsCmd = app.Command("list-backends", "List available backends and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listBackendsCmd.FullCommand() {
		printBackends()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		logCloser.Close()
		os.Exit(1)
	}
}

// run executes the main server logic.
func run(cfg *config.Config) error {
	ctx := context.Background()

	source, err := newDataSource(ctx, cfg)
	if err != nil {
		return err
	}

	events := notification.NewManager(cfg.Events.SendTimeout())
	playerService := player.NewService(source, events)
	playbackService := apiconnect.NewPlaybackService(playerService, events)

	mux := http.NewServeMux()
	path, handler := apiconnect.NewPlaybackServiceHandler(
		playbackService,
		connect.WithInterceptors(
			apiconnect.NewUserInterceptor(),
			apiconnect.NewLoggingInterceptor(),
		),
	)
	mux.Handle(path, handler)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s backend=%s", cfg.Server.Addr, cfg.Backend.Type)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the listener a moment before running hooks
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// End watch streams first so Shutdown does not wait on them
	playbackService.Close()
	events.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// newDataSource builds the configured playback backend.
func newDataSource(ctx context.Context, cfg *config.Config) (playback.DataSource, error) {
	switch cfg.Backend.Type {
	case config.BackendSimulator:
		settings, err := simulator.DecodeSettings(cfg.Backend.Settings)
		if err != nil {
			return nil, errors.Wrap(err, "invalid simulator settings")
		}
		store := simulator.NewStore(time.Now)
		store.Seed(settings.SeedUsers...)
		zlog.Info().Msgf("Simulator ready: users=%d track_length_ms=%d tick_ms=%d",
			store.Len(), settings.TrackLengthMs, settings.TickMs)
		return simulator.New(store, settings), nil

	case config.BackendSpotify:
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Spotify client")
		}
		return client, nil

	default:
		return nil, errors.Newf("unknown backend: %s", cfg.Backend.Type)
	}
}

// printBackends prints available backends.
func printBackends() {
	descriptions := map[string]string{
		config.BackendSimulator: "in-memory playback simulator",
		config.BackendSpotify:   "Spotify Web API (requires credentials)",
	}
	fmt.Println("Available Backends:")
	for _, name := range config.BackendTypes {
		fmt.Printf("  %-12s - %s\n", name, descriptions[name])
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
