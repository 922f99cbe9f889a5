package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"github.com/successbyfailure/povd"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"
)

var (
	configPath    = "povd.yaml"
	httpAdminAddr = "127.0.0.1:9002"
	previewAddr   = ""
	verbose       = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "YAML config file")
	pflag.StringVarP(&httpAdminAddr, "http-admin-addr", "A", httpAdminAddr, "HTTP admin server address")
	pflag.StringVarP(&previewAddr, "preview-addr", "p", previewAddr, "websocket preview server address, empty to disable")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM", // extended time.Kitchen
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid config %q: %v", configPath, err)
	}

	sink, err := newSink(cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s LED sink: %v", cfg.Driver, err)
	}
	if closer, ok := sink.(io.Closer); ok {
		defer closer.Close()
	}

	var preview *povd.PreviewServer
	if previewAddr != "" {
		preview = povd.NewPreviewServer(povd.PreviewOpts{
			Logger: logger.With("component", "preview"),
		})
		sink = preview.Tee(sink)
	}

	engine, err := povd.NewEngine(povd.EngineOpts{
		Storage:  povd.NewDirStorage(cfg.ImagesDir),
		Sink:     sink,
		Settings: cfg.settings(),
		Logger:   logger.With("component", "engine"),
	})
	if err != nil {
		return fmt.Errorf("failed to create playback engine: %v", err)
	}

	if cfg.ActiveImage != "" {
		if err := engine.LoadImage(cfg.ActiveImage); err != nil {
			logger.Warn(
				"failed to load active image",
				"image", cfg.ActiveImage,
				"error", err)
		} else if err := engine.Play(); err != nil {
			logger.Warn(
				"failed to play active image",
				"image", cfg.ActiveImage,
				"error", err)
		}
	}

	runner := povd.NewRunner(engine, povd.RunnerOpts{
		Logger: logger.With("component", "runner"),
	})

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return runner.Start(ctx)
	})

	errg.Go(func() error {
		admin := newAdminHandler(runner, preview, cfg, configPath, logger.With("component", "admin"))

		logger.Info(
			"starting admin HTTP server",
			"addr", httpAdminAddr)

		return hserve.ListenAndServe(ctx, httpAdminAddr, admin)
	})

	if preview != nil {
		errg.Go(func() error {
			r := chi.NewRouter()
			r.Get("/ws", preview.ServeHTTP)

			logger.Info(
				"starting preview HTTP server",
				"addr", previewAddr)

			return hserve.ListenAndServe(ctx, previewAddr, r)
		})

		errg.Go(func() error {
			<-ctx.Done()
			preview.KickAll("server shutting down")
			return nil
		})
	}

	return errg.Wait()
}

func newSink(cfg config) (povd.PixelSink, error) {
	switch cfg.Driver {
	case driverWS281x:
		return newWS281xSink(cfg.NumLEDs, cfg.GPIO)
	case driverSPI:
		return newNRZSink(cfg.SPIDev, cfg.NumLEDs)
	case driverSim:
		return povd.NewMemorySink(cfg.NumLEDs), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}
