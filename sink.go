package povd

import "github.com/successbyfailure/povd/imagefmt"

// RGB is a single LED color.
type RGB = imagefmt.RGB

// PixelSink is an LED strip. Writes are staged until Flush.
type PixelSink interface {
	// Len returns the number of LEDs on the strip.
	Len() int
	// SetRGBAt stages the color of LED i.
	SetRGBAt(i int, color RGB)
	// Flush commits all staged colors to the strip.
	Flush() error
	// Clear turns every LED off and commits.
	Clear() error
}

// MemorySink is a PixelSink keeping the strip in memory. It is not safe for
// concurrent use.
type MemorySink struct {
	// OnFlush, if set, is called with the committed strip after every Flush
	// and Clear. The slice is reused; copy it to keep it.
	OnFlush func(strip []RGB)

	staged  []RGB
	visible []RGB
	flushes int
	clears  int
}

var _ PixelSink = (*MemorySink)(nil)

// NewMemorySink creates a MemorySink with n LEDs.
func NewMemorySink(n int) *MemorySink {
	return &MemorySink{
		staged:  make([]RGB, n),
		visible: make([]RGB, n),
	}
}

// Len implements PixelSink.
func (s *MemorySink) Len() int { return len(s.staged) }

// SetRGBAt implements PixelSink. Out of range indices are ignored.
func (s *MemorySink) SetRGBAt(i int, color RGB) {
	if i >= 0 && i < len(s.staged) {
		s.staged[i] = color
	}
}

// Flush implements PixelSink.
func (s *MemorySink) Flush() error {
	copy(s.visible, s.staged)
	s.flushes++
	if s.OnFlush != nil {
		s.OnFlush(s.visible)
	}
	return nil
}

// Clear implements PixelSink.
func (s *MemorySink) Clear() error {
	clear(s.staged)
	clear(s.visible)
	s.clears++
	if s.OnFlush != nil {
		s.OnFlush(s.visible)
	}
	return nil
}

// Visible returns the committed strip. The slice is reused by later commits.
func (s *MemorySink) Visible() []RGB { return s.visible }

// Flushes returns the number of Flush calls so far.
func (s *MemorySink) Flushes() int { return s.flushes }

// Clears returns the number of Clear calls so far.
func (s *MemorySink) Clears() int { return s.clears }
