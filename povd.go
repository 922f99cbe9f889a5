// Package povd renders stored images as persistence-of-vision playback on a
// linear LED strip: one image column (or row) per frame, scaled to the strip
// and paced to a frame rate.
//
// An Engine is driven by a single goroutine repeatedly calling Update. None
// of its methods are safe for concurrent use; see Runner for sharing one
// across goroutines.
package povd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/successbyfailure/povd/imagefmt"
)

// MaxOutputLength is the longest strip an Engine can drive.
const MaxOutputLength = 300

// Orientation is the axis an image is sliced along, one slice per frame.
type Orientation uint8

const (
	// Vertical shows one image column per frame, sweeping the image width.
	Vertical Orientation = iota
	// Horizontal shows one image row per frame, sweeping the image height.
	Horizontal
)

func (o Orientation) String() string {
	switch o {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("Orientation(%d)", uint8(o))
	}
}

// ParseOrientation parses "vertical" or "horizontal".
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	default:
		return 0, fmt.Errorf("unknown orientation %q", s)
	}
}

// State is the playback state of an Engine.
type State uint8

const (
	// Idle means no image is loaded.
	Idle State = iota
	// Loaded means an image is loaded but not advancing.
	Loaded
	// Playing means frames advance on every due tick.
	Playing
	// Paused means playback is suspended and may be resumed.
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Settings are the playback settings applied when an Engine is created.
type Settings struct {
	// Speed is the frame rate. Zero means DefaultSpeed.
	Speed       int
	Loop        bool
	Orientation Orientation
}

// DefaultSettings returns the settings of a freshly installed device.
func DefaultSettings() Settings {
	return Settings{
		Speed:       DefaultSpeed,
		Loop:        true,
		Orientation: Vertical,
	}
}

// EngineOpts are options for an Engine.
type EngineOpts struct {
	// Storage is where images are loaded from.
	Storage Storage
	// Sink is the LED strip frames are written to. Its length is the output
	// length and must be within [1, MaxOutputLength].
	Sink PixelSink
	// Settings are the initial playback settings.
	Settings Settings
	// Logger is the logger to use. Defaults to slog.Default().
	Logger *slog.Logger
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Engine is the playback state machine. It renders one slice of the loaded
// image per due frame clock tick.
type Engine struct {
	storage Storage
	sink    PixelSink
	logger  *slog.Logger
	now     func() time.Time
	outLen  uint16

	state    State
	name     string
	meta     imagefmt.Metadata
	rawIndex uint16

	loop        bool
	orientation Orientation
	dir         DirectionController
	clock       *FrameClock

	// frame is the rendered strip and column the sampled image slice. Both
	// have MaxOutputLength capacity and exist only while an image is loaded.
	frame  []RGB
	column []RGB
}

// NewEngine creates an Engine with no image loaded.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.Storage == nil {
		return nil, fmt.Errorf("no storage given")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("no sink given")
	}
	if n := opts.Sink.Len(); n < 1 || n > MaxOutputLength {
		return nil, fmt.Errorf("output length %d outside [1, %d]", n, MaxOutputLength)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Settings.Speed == 0 {
		opts.Settings.Speed = DefaultSpeed
	}

	return &Engine{
		storage:     opts.Storage,
		sink:        opts.Sink,
		logger:      opts.Logger,
		now:         opts.Now,
		outLen:      uint16(opts.Sink.Len()),
		loop:        opts.Settings.Loop,
		orientation: opts.Settings.Orientation,
		clock:       NewFrameClock(opts.Settings.Speed),
	}, nil
}

// LoadImage loads the named image and moves to Loaded. On failure the
// previous session, if any, is left as it was.
func (e *Engine) LoadImage(name string) error {
	name = NormalizeName(name)

	meta, err := e.readMetadata(name)
	if err != nil {
		e.logger.Error(
			"failed to load image",
			"image", name,
			"error", err)
		return err
	}

	if meta.Height > e.outLen {
		err := fmt.Errorf("%w: image %q is %d pixels tall, strip has %d LEDs",
			ErrSize, name, meta.Height, e.outLen)
		e.logger.Error(
			"failed to load image",
			"image", name,
			"error", err)
		return err
	}

	e.releaseBuffers()
	e.frame = make([]RGB, MaxOutputLength)
	e.column = make([]RGB, MaxOutputLength)

	e.name = name
	e.meta = meta
	e.rawIndex = 0
	e.state = Loaded

	e.logger.Info(
		"image loaded",
		"image", name,
		"format", meta.Format,
		"width", meta.Width,
		"height", meta.Height)

	return nil
}

func (e *Engine) readMetadata(name string) (imagefmt.Metadata, error) {
	if !e.storage.Exists(name) {
		return imagefmt.Metadata{}, fmt.Errorf("%w: image %q not found", ErrIO, name)
	}

	f, err := e.storage.Open(name)
	if err != nil {
		return imagefmt.Metadata{}, fmt.Errorf("%w: failed to open %q: %v", ErrIO, name, err)
	}
	defer f.Close()

	return imagefmt.ParseHeader(name, f)
}

func (e *Engine) releaseBuffers() {
	e.frame = nil
	e.column = nil
}

// UnloadImage drops the loaded image, clears the strip and moves to Idle.
func (e *Engine) UnloadImage() {
	e.releaseBuffers()
	e.state = Idle
	e.name = ""
	e.meta = imagefmt.Metadata{}
	e.rawIndex = 0
	e.clearSink()

	e.logger.Info("image unloaded")
}

// Play starts playback from the first column. It returns ErrState if no image
// is loaded.
func (e *Engine) Play() error {
	if e.state == Idle {
		return e.stateError("play")
	}

	e.rawIndex = 0
	e.clock.Reset(e.now())
	e.state = Playing

	e.logger.Info(
		"playback started",
		"image", e.name)

	return nil
}

// Pause suspends playback. It returns ErrState unless playing.
func (e *Engine) Pause() error {
	if e.state != Playing {
		return e.stateError("pause")
	}

	e.state = Paused
	e.logger.Info(
		"playback paused",
		"column", e.rawIndex)

	return nil
}

// Resume continues paused playback where it left off. It returns ErrState
// unless paused.
func (e *Engine) Resume() error {
	if e.state != Paused {
		return e.stateError("resume")
	}

	e.clock.Reset(e.now())
	e.state = Playing
	e.logger.Info(
		"playback resumed",
		"column", e.rawIndex)

	return nil
}

// Stop ends playback, rewinds and clears the strip. The image stays loaded.
func (e *Engine) Stop() {
	if e.state != Idle {
		e.state = Loaded
	}
	e.rawIndex = 0
	e.clearSink()

	e.logger.Info("playback stopped")
}

// Blank clears the strip without changing the playback state.
func (e *Engine) Blank() {
	e.clearSink()
}

func (e *Engine) stateError(op string) error {
	err := fmt.Errorf("%w: cannot %s while %s", ErrState, op, e.state)
	e.logger.Warn(
		"ignoring playback command",
		"command", op,
		"state", e.state)
	return err
}

func (e *Engine) clearSink() {
	if err := e.sink.Clear(); err != nil {
		e.logger.Error(
			"failed to clear LED strip",
			"error", err)
	}
}

// State returns the playback state.
func (e *Engine) State() State { return e.state }

// IsPlaying returns true if frames are advancing.
func (e *Engine) IsPlaying() bool { return e.state == Playing }

// IsPaused returns true if playback is paused.
func (e *Engine) IsPaused() bool { return e.state == Paused }

// IsImageLoaded returns true if an image is loaded.
func (e *Engine) IsImageLoaded() bool { return e.state != Idle }

// SetSpeed sets the frame rate, clamped to [MinSpeed, MaxSpeed].
func (e *Engine) SetSpeed(fps int) {
	speed := e.clock.SetSpeed(fps)
	e.logger.Info(
		"playback speed set",
		"fps", speed)
}

// Speed returns the target frame rate.
func (e *Engine) Speed() uint16 { return e.clock.Speed() }

// MeasuredFPS returns the frame rate achieved over the last second.
func (e *Engine) MeasuredFPS() uint16 { return e.clock.MeasuredFPS() }

// SetLoopMode sets whether playback restarts after the last column.
func (e *Engine) SetLoopMode(loop bool) {
	e.loop = loop
	e.logger.Info(
		"loop mode set",
		"loop", loop)
}

// LoopMode returns whether playback loops.
func (e *Engine) LoopMode() bool { return e.loop }

// SetOrientation sets the scan orientation. The playback index is rewound if
// it lies past the end of the new orientation's extent.
func (e *Engine) SetOrientation(o Orientation) {
	e.orientation = o
	if e.state != Idle && e.rawIndex >= e.TotalColumns() {
		e.rawIndex = 0
	}
	e.logger.Info(
		"orientation set",
		"orientation", o)
}

// Orientation returns the scan orientation.
func (e *Engine) Orientation() Orientation { return e.orientation }

// SetReverseDirection sets the scan direction. Changing it rewinds playback
// to the first column without otherwise affecting the playback state.
func (e *Engine) SetReverseDirection(reverse bool) {
	if !e.dir.Set(reverse) {
		return
	}
	e.rawIndex = 0
	e.logger.Info(
		"scan direction set",
		"direction", e.dir.String())
}

// IsReverse returns true if columns are scanned last to first.
func (e *Engine) IsReverse() bool { return e.dir.Reverse() }

// CurrentImageName returns the loaded image, or "" if none is.
func (e *Engine) CurrentImageName() string { return e.name }

// CurrentColumn returns the raw playback index.
func (e *Engine) CurrentColumn() uint16 { return e.rawIndex }

// TotalColumns returns the number of frames in one pass over the image: its
// width when vertical, its height when horizontal, 0 with no image.
func (e *Engine) TotalColumns() uint16 {
	if e.state == Idle {
		return 0
	}
	if e.orientation == Horizontal {
		return e.meta.Height
	}
	return e.meta.Width
}

// Metadata returns the header of the loaded image.
func (e *Engine) Metadata() imagefmt.Metadata { return e.meta }

// Update renders and shows the next frame if playing and the frame clock is
// due. A frame whose pixels cannot be read is skipped but still counted.
func (e *Engine) Update() {
	if e.state != Playing {
		return
	}
	if !e.clock.Tick(e.now()) {
		return
	}

	total := e.TotalColumns()
	index := e.dir.EffectiveIndex(e.rawIndex, total)

	if err := e.render(index); err != nil {
		e.logger.Debug(
			"skipping frame",
			"column", index,
			"error", err)
	} else {
		e.publish()
	}

	e.rawIndex++
	if e.rawIndex < total {
		return
	}

	if e.loop {
		e.rawIndex = 0
		return
	}

	e.state = Loaded
	e.rawIndex = 0
	e.clearSink()
	e.logger.Info(
		"playback finished",
		"image", e.name)
}

// render draws slice index of the image into e.frame. The image is held open
// for the whole frame.
func (e *Engine) render(index uint16) error {
	f, err := e.storage.Open(e.name)
	if err != nil {
		return fmt.Errorf("%w: failed to open %q: %v", ErrIO, e.name, err)
	}
	defer f.Close()

	frame := e.frame[:e.outLen]

	if e.orientation == Vertical {
		n, err := imagefmt.ReadColumn(f, e.meta, index, e.column)
		if err != nil {
			return err
		}
		for i := range frame {
			frame[i] = e.column[MapIndex(uint16(i), e.outLen, uint16(n))]
		}
		return nil
	}

	// Rows are assembled pixel by pixel from one column read per LED.
	for x := range frame {
		srcX := MapIndex(uint16(x), e.outLen, e.meta.Width)
		n, err := imagefmt.ReadColumn(f, e.meta, srcX, e.column)
		if err != nil || int(index) >= n {
			frame[x] = RGB{}
			continue
		}
		frame[x] = e.column[index]
	}
	return nil
}

func (e *Engine) publish() {
	for i, c := range e.frame[:e.outLen] {
		e.sink.SetRGBAt(i, c)
	}
	if err := e.sink.Flush(); err != nil {
		e.logger.Error(
			"failed to write LED strip",
			"error", err)
	}
}

// Status is a snapshot of an Engine for reporting.
type Status struct {
	State        string `json:"state"`
	Image        string `json:"image"`
	Column       uint16 `json:"column"`
	TotalColumns uint16 `json:"totalColumns"`
	Speed        uint16 `json:"speed"`
	MeasuredFPS  uint16 `json:"measuredFps"`
	LoopMode     bool   `json:"loopMode"`
	Orientation  string `json:"orientation"`
	Direction    string `json:"direction"`
}

// Status returns a snapshot of the engine.
func (e *Engine) Status() Status {
	return Status{
		State:        e.state.String(),
		Image:        e.name,
		Column:       e.rawIndex,
		TotalColumns: e.TotalColumns(),
		Speed:        e.clock.Speed(),
		MeasuredFPS:  e.clock.MeasuredFPS(),
		LoopMode:     e.loop,
		Orientation:  e.orientation.String(),
		Direction:    e.dir.String(),
	}
}
