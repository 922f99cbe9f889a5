package povd

import "time"

const (
	// DefaultSpeed is the playback rate used when none is configured.
	DefaultSpeed = 30
	// MinSpeed and MaxSpeed bound the playback rate in frames per second.
	MinSpeed = 1
	MaxSpeed = 120
)

// FrameClock gates playback to a target frame rate and measures the rate
// actually achieved. The zero value is not usable; use NewFrameClock.
type FrameClock struct {
	speed uint16
	delay time.Duration
	last  time.Time

	frames      uint16
	measured    uint16
	windowStart time.Time
}

// NewFrameClock returns a clock running at fps frames per second.
func NewFrameClock(fps int) *FrameClock {
	c := &FrameClock{}
	c.SetSpeed(fps)
	return c
}

// SetSpeed sets the target rate, clamped to [MinSpeed, MaxSpeed], and
// returns the rate in effect. The new delay applies from the next tick.
func (c *FrameClock) SetSpeed(fps int) uint16 {
	c.speed = uint16(max(MinSpeed, min(fps, MaxSpeed)))
	c.delay = frameDelay(c.speed)
	return c.speed
}

func frameDelay(fps uint16) time.Duration {
	if fps == 0 {
		fps = DefaultSpeed
	}
	return time.Duration(1000/int(fps)) * time.Millisecond
}

// Speed returns the target rate in frames per second.
func (c *FrameClock) Speed() uint16 { return c.speed }

// Delay returns the minimum time between two accepted ticks.
func (c *FrameClock) Delay() time.Duration { return c.delay }

// MeasuredFPS returns the number of ticks accepted during the last complete
// one-second window. The window closes on the first tick at least a second
// after it opened, and that tick is counted in the window it closes.
func (c *FrameClock) MeasuredFPS() uint16 { return c.measured }

// Reset restarts gating from now, so the next tick is accepted one delay
// later. The measurement window is restarted but the last measurement is
// kept.
func (c *FrameClock) Reset(now time.Time) {
	c.last = now
	c.frames = 0
	c.windowStart = time.Time{}
}

// Tick reports whether a frame is due at now. It returns true at most once
// per delay since the last accepted tick.
func (c *FrameClock) Tick(now time.Time) bool {
	if !c.last.IsZero() && now.Sub(c.last) < c.delay {
		return false
	}
	c.last = now
	c.frames++

	if c.windowStart.IsZero() {
		c.windowStart = now
		return true
	}
	if now.Sub(c.windowStart) >= time.Second {
		c.measured = c.frames
		c.frames = 0
		c.windowStart = now
	}

	return true
}
