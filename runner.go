package povd

import (
	"context"
	"log/slog"
	"time"
)

// RunnerOpts are options for a Runner.
type RunnerOpts struct {
	// PollInterval is how often the engine is updated. Defaults to 1ms,
	// well under the shortest frame delay.
	PollInterval time.Duration
	// Logger is the logger to use. Defaults to slog.Default().
	Logger *slog.Logger
}

// Runner owns an Engine on a single goroutine. It polls Update and runs
// commands submitted with Do between updates, so the engine is never touched
// from two goroutines at once.
type Runner struct {
	engine *Engine
	cmds   chan runnerCommand
	opts   RunnerOpts
}

type runnerCommand struct {
	f    func(*Engine)
	done chan struct{}
}

// NewRunner creates a Runner for e. The engine must not be used directly
// once the Runner is started.
func NewRunner(e *Engine, opts RunnerOpts) *Runner {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		engine: e,
		cmds:   make(chan runnerCommand),
		opts:   opts,
	}
}

// Start runs the engine until ctx is done. Playback is stopped and the strip
// cleared before it returns.
func (r *Runner) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	defer r.engine.Stop()

	r.opts.Logger.Debug(
		"engine runner started",
		"poll_interval", r.opts.PollInterval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.engine.Update()
		case cmd := <-r.cmds:
			cmd.f(r.engine)
			close(cmd.done)
		}
	}
}

// Do runs f on the engine goroutine and waits for it to return. It returns
// ctx.Err() if ctx is done first, in which case f may or may not run.
func (r *Runner) Do(ctx context.Context, f func(e *Engine)) error {
	cmd := runnerCommand{f: f, done: make(chan struct{})}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.cmds <- cmd:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cmd.done:
		return nil
	}
}
