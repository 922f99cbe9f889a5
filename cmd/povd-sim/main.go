package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
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
	httpAddr    = ":9001"
	imagesDir   = "images"
	imageName   = ""
	numLEDs     = 144
	speed       = povd.DefaultSpeed
	loop        = true
	orientation = "vertical"
	reverse     = false
	verbose     = false
)

func init() {
	pflag.StringVarP(&httpAddr, "http-addr", "a", httpAddr, "HTTP server address")
	pflag.StringVarP(&imagesDir, "images-dir", "d", imagesDir, "directory of images")
	pflag.StringVarP(&imageName, "image", "i", imageName, "image to play")
	pflag.IntVarP(&numLEDs, "num-leds", "n", numLEDs, "number of simulated LEDs")
	pflag.IntVarP(&speed, "speed", "s", speed, "frames per second")
	pflag.BoolVar(&loop, "loop", loop, "restart after the last column")
	pflag.StringVar(&orientation, "orientation", orientation, "vertical or horizontal")
	pflag.BoolVar(&reverse, "reverse", reverse, "scan right to left")
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
	if imageName == "" {
		return fmt.Errorf("no --image given")
	}

	o, err := povd.ParseOrientation(orientation)
	if err != nil {
		return err
	}

	sim, err := newSimulator(simulatorOpts{
		Storage: povd.NewDirStorage(imagesDir),
		NumLEDs: numLEDs,
		Settings: povd.Settings{
			Speed:       speed,
			Loop:        loop,
			Orientation: o,
		},
		Reverse: reverse,
		Image:   imageName,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return sim.runner.Start(ctx)
	})
	errg.Go(func() error {
		logger.Info(
			"starting HTTP server",
			"addr", httpAddr)

		return hserve.ListenAndServe(ctx, httpAddr, sim)
	})

	return errg.Wait()
}

type simulatorOpts struct {
	Storage  povd.Storage
	NumLEDs  int
	Settings povd.Settings
	Reverse  bool
	Image    string
	Logger   *slog.Logger
}

// simulator plays an image on an in-memory strip and streams its frames to
// browsers. The runner must be started for it to play.
type simulator struct {
	*chi.Mux
	runner *povd.Runner
}

func newSimulator(opts simulatorOpts) (*simulator, error) {
	h := &sessionsHandler{
		numLEDs: opts.NumLEDs,
		logger:  opts.Logger.With("component", "sessions"),
	}

	sink := povd.NewMemorySink(opts.NumLEDs)
	sink.OnFlush = h.broadcast

	engine, err := povd.NewEngine(povd.EngineOpts{
		Storage:  opts.Storage,
		Sink:     sink,
		Settings: opts.Settings,
		Logger:   opts.Logger.With("component", "engine"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playback engine: %v", err)
	}

	engine.SetReverseDirection(opts.Reverse)
	if err := engine.LoadImage(opts.Image); err != nil {
		return nil, err
	}
	if err := engine.Play(); err != nil {
		return nil, err
	}

	h.runner = povd.NewRunner(engine, povd.RunnerOpts{
		Logger: opts.Logger.With("component", "runner"),
	})

	r := chi.NewRouter()
	r.Get("/events", h.handleEvents)
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		var status povd.Status
		if err := h.runner.Do(r.Context(), func(e *povd.Engine) { status = e.Status() }); err != nil {
			http.Error(w, "simulator is not running", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, status)
	})

	return &simulator{Mux: r, runner: h.runner}, nil
}
