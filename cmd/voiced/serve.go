package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"voiced/internal/config"
	"voiced/internal/engine"
	"voiced/internal/gpu"
	"voiced/internal/httpapi"
	"voiced/internal/logging"
	"voiced/internal/manager"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel, cfg.LogPretty, cmd.ErrOrStderr())
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
	addConfigFlags(cmd)
	return cmd
}

// serve runs the HTTP server until ctx is done, then shuts it down and
// unloads the model.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	events := manager.NewBroadcaster(64)
	eng, err := newEngine(cfg, log, events)
	if err != nil {
		return err
	}
	monitor := newMonitor(cfg)
	defer closeMonitor(monitor)
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Engine: eng,
		Voices: reg,
		Model: engine.ModelSpec{
			ModelID:   cfg.Model.ID,
			Device:    cfg.Model.Device,
			DType:     cfg.Model.DType,
			Attention: cfg.Model.Attention,
		},
		IdleTimeout:   cfg.IdleTimeout.D(),
		LoadTimeout:   cfg.LoadTimeout.D(),
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       cfg.MaxWait.D(),
		Monitor:       monitor,
		Logger:        &log,
		Publisher:     events,
	})
	if err != nil {
		return err
	}

	static, err := cfg.StaticPath()
	if err != nil {
		return err
	}
	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, nil, nil)
	httpapi.SetRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	httpapi.SetStaticDir(static)
	httpapi.SetEventSource(events)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return multierr.Append(err, mgr.Close())
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Int("voices", reg.Len()).
			Str("default_voice", reg.Default()).Dur("idle_timeout", mgr.IdleTimeout()).
			Msg("voiced listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if !cfg.NoWarmup {
		op := mgr.Warmup()
		log.Info().Str("op", op).Msg("warming up model in background")
	}
	grp.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		// Close waits for an in-flight load or synthesis, then frees the device.
		return multierr.Append(err, mgr.Close())
	})
	return grp.Wait()
}

// newEngine returns a spawner when a worker command is configured and a
// plain client for an externally managed worker otherwise.
func newEngine(cfg config.Config, log zerolog.Logger, events manager.EventPublisher) (engine.Engine, error) {
	if !cfg.Worker.Spawn() {
		log.Info().Str("url", cfg.Worker.URL).Msg("using external worker")
		return engine.NewClient(cfg.Worker.URL, nil, log.With().Str("component", "engine").Logger()), nil
	}
	elog := log.With().Str("component", "spawner").Logger()
	return engine.NewSpawner(engine.SpawnConfig{
		Command:      cfg.Worker.Command,
		Args:         cfg.Worker.Args,
		Env:          cfg.Worker.Env,
		PortStart:    cfg.Worker.PortStart,
		PortEnd:      cfg.Worker.PortEnd,
		ReadyTimeout: cfg.Worker.ReadyTimeout.D(),
		Logger:       &elog,
		Notify: func(name string, fields map[string]any) {
			events.Publish(manager.Event{Name: name, Time: time.Now(), Fields: fields})
		},
	})
}

func newMonitor(cfg config.Config) gpu.Monitor {
	if cfg.GPU.Disabled {
		return gpu.Disabled
	}
	return gpu.NewNVML(cfg.GPU.Index)
}

func closeMonitor(p gpu.Monitor) {
	if c, ok := p.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
