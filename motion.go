package povd

// MotionGate drives an Engine from a motion sensor: playback runs while the
// strip is being swept and pauses when it is held still.
type MotionGate struct {
	engine *Engine
}

// NewMotionGate creates a MotionGate for e.
func NewMotionGate(e *Engine) *MotionGate {
	return &MotionGate{engine: e}
}

// Apply feeds one motion sample. moving reports whether the strip is being
// swept; a paused engine resumes where it stopped. sign is the sweep
// direction: negative scans right to left, positive left to right, zero
// leaves the direction alone.
//
// Motion with no image loaded is ignored. The returned error is the one of
// the playback command issued, if any.
func (g *MotionGate) Apply(moving bool, sign int) error {
	if sign != 0 {
		g.engine.SetReverseDirection(sign < 0)
	}

	switch {
	case moving && g.engine.IsPaused():
		return g.engine.Resume()
	case moving && !g.engine.IsPlaying() && g.engine.IsImageLoaded():
		return g.engine.Play()
	case !moving && g.engine.IsPlaying():
		if err := g.engine.Pause(); err != nil {
			return err
		}
		g.engine.Blank()
	}

	return nil
}
