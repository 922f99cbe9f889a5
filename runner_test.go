package povd

import (
	"context"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
)

func TestRunner(t *testing.T) {
	storage := NewMemStorage()
	storage.Put("run.rgb", buildTestR565(4, 2))

	sink := NewMemorySink(2)
	flushed := make(chan struct{}, 64)
	sink.OnFlush = func([]RGB) {
		select {
		case flushed <- struct{}{}:
		default:
		}
	}

	e, err := NewEngine(EngineOpts{
		Storage:  storage,
		Sink:     sink,
		Settings: Settings{Speed: MaxSpeed, Loop: true},
		Logger:   slogt.New(t),
	})
	if err != nil {
		t.Fatal("failed to create engine:", err)
	}

	r := NewRunner(e, RunnerOpts{Logger: slogt.New(t)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- r.Start(ctx) }()

	var loadErr error
	if err := r.Do(ctx, func(e *Engine) {
		if loadErr = e.LoadImage("run.rgb"); loadErr == nil {
			loadErr = e.Play()
		}
	}); err != nil {
		t.Fatal("failed to submit command:", err)
	}
	if loadErr != nil {
		t.Fatal("failed to start playback:", loadErr)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-flushed:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for frames")
		}
	}

	var status Status
	if err := r.Do(ctx, func(e *Engine) { status = e.Status() }); err != nil {
		t.Fatal("failed to submit command:", err)
	}
	assertEq(t, "playing", status.State)
	assertEq(t, "run.rgb", status.Image)

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatal("runner returned error:", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}

	assertEq(t, Loaded, e.State())
	assertEq(t, make([]RGB, 2), sink.Visible())

	if err := r.Do(ctx, func(*Engine) {}); err == nil {
		t.Error("expected error submitting to a stopped runner")
	}
}
