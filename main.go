package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/marcus-crane/mediamon/config"
	"github.com/marcus-crane/mediamon/events"
	"github.com/marcus-crane/mediamon/mediactl"
	_ "github.com/marcus-crane/mediamon/mediactl/sim"
	"github.com/marcus-crane/mediamon/models"
	"github.com/marcus-crane/mediamon/playback"
	"github.com/marcus-crane/mediamon/thumbnail"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("mediamon exited with an error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

const simBackendNote = `The default backend is "sim", an in-memory demo that plays a fixed track so the
stream and controls can be tried out. It does not watch the operating system's media
session. Other backends register under their own name and are picked with --backend
or MEDIAMON_BACKEND.`

type flags struct {
	backend   string
	targetApp string
	addr      string
}

func newRootCommand() *cobra.Command {
	var cfg config.Config
	var f flags

	rootCmd := &cobra.Command{
		Use:   "mediamon",
		Short: "Watch an app's OS media session and stream its state",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if f.backend != "" {
				loaded.Mediamon.Backend = f.backend
			}
			if f.targetApp != "" {
				loaded.Mediamon.TargetApp = f.targetApp
			}
			if f.addr != "" {
				loaded.Server.Addr = f.addr
			}
			cfg = loaded
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.GetLogLevel()})))
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&f.backend, "backend", "", fmt.Sprintf("media backend, one of %v (sim is an in-memory demo, not a live OS session)", mediactl.Backends()))
	rootCmd.PersistentFlags().StringVar(&f.targetApp, "target-app", "", "app id of the session to monitor")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the event stream and playback controls over HTTP",
		Long: `Serve the event stream and playback controls over HTTP.

` + simBackendNote,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&f.addr, "addr", "", "address to listen on")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Log every media event until interrupted",
		Long: `Log every media event until interrupted.

` + simBackendNote,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), cfg)
		},
	}

	rootCmd.AddCommand(serveCmd, watchCmd)
	return rootCmd
}

type monitor struct {
	bus     *events.Bus
	manager *playback.Manager
}

func newMonitor(ctx context.Context, cfg config.Config) (*monitor, error) {
	backend, err := mediactl.Open(cfg.Mediamon.Backend, cfg.BackendOptions())
	if err != nil {
		return nil, err
	}
	if cfg.Mediamon.Backend == config.DefaultBackend {
		slog.Warn("Using the in-memory demo backend; events come from a simulated session, not the OS",
			slog.String("backend", cfg.Mediamon.Backend))
	}
	pipeline, err := thumbnail.NewPipeline(cfg.Thumbnail.CacheSize)
	if err != nil {
		return nil, err
	}
	bus := events.NewBus(events.DefaultCapacity)
	manager, err := playback.NewManager(ctx, backend, bus, playback.Options{
		TargetApp:  cfg.Mediamon.TargetApp,
		Thumbnails: pipeline,
	})
	if err != nil {
		return nil, err
	}
	return &monitor{bus: bus, manager: manager}, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	m, err := newMonitor(ctx, cfg)
	if err != nil {
		return err
	}

	bridge := events.NewSSEBridge(m.bus)
	go func() {
		if err := bridge.Run(ctx); err != nil {
			slog.Error("Event stream stopped", slog.String("error", err.Error()))
		}
	}()

	if err := m.manager.Start(ctx); err != nil {
		bridge.Close()
		return err
	}
	defer m.manager.Close()

	scheduler, err := SetupInBackground(cfg, m.manager)
	if err != nil {
		bridge.Close()
		return err
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           RegisterRoutes(http.NewServeMux(), m.manager, bridge, cfg.Server.Origins()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// SSE clients hold their connections open until the stream closes
		bridge.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Unclean HTTP shutdown", slog.String("error", err.Error()))
		}
	}()

	slog.Info("mediamon is running", slog.String("addr", cfg.Server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("mediamon has shut down")
	return nil
}

func watch(ctx context.Context, cfg config.Config) error {
	m, err := newMonitor(ctx, cfg)
	if err != nil {
		return err
	}
	sub := m.bus.Subscribe()
	defer sub.Close()

	if err := m.manager.Start(ctx); err != nil {
		return err
	}
	defer m.manager.Close()

	return logEvents(ctx, sub, eventLogger{log: slog.Default()})
}

// logEvents dispatches events until the context is cancelled.
func logEvents(ctx context.Context, sub *events.Subscription, h events.Handler) error {
	for {
		ev, err := sub.Recv(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		events.Dispatch(ev, h)
	}
}

type eventLogger struct {
	log *slog.Logger
}

func (l eventLogger) OnConnect(appID string) {
	l.log.Info("Connected", slog.String("app_id", appID))
}

func (l eventLogger) OnDisconnect(appID string) {
	l.log.Info("Disconnected", slog.String("app_id", appID))
}

func (l eventLogger) OnMediaPropertiesChanged(data models.SessionData) {
	l.log.Info("Now playing",
		slog.String("title", data.Title),
		slog.String("artist", data.Artist),
		slog.String("album", data.Album),
		slog.Any("artists", data.Artists),
		slog.String("prominent_color", data.Thumbnail.ProminentColor.Hex()),
		slog.Bool("has_thumbnail", data.Thumbnail.Base64 != ""))
}

func (l eventLogger) OnPlaybackInfoChanged(data models.PlaybackData) {
	l.log.Info("Playback changed", slog.Bool("playing", data.IsPlaying))
}

func (l eventLogger) OnTimelinePropertiesChanged(data models.TimelineData) {
	l.log.Debug("Timeline changed",
		slog.Uint64("start", data.StartTime),
		slog.Uint64("end", data.EndTime),
		slog.Uint64("position", data.Position))
}

func (l eventLogger) OnVolumeChanged(level float32) {
	l.log.Info("Volume changed", slog.Float64("level", float64(level)))
}
