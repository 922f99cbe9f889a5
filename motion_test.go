package povd

import "testing"

func TestMotionGate(t *testing.T) {
	te := newTestEngine(t, 4, DefaultSettings())
	gate := NewMotionGate(te.Engine)

	apply := func(moving bool, sign int) {
		t.Helper()
		if err := gate.Apply(moving, sign); err != nil {
			t.Fatalf("Apply(%v, %d) failed: %v", moving, sign, err)
		}
	}

	apply(true, 0)
	assertEq(t, Idle, te.State())

	te.load("motion.rgb", buildTestR565(8, 4))

	apply(true, 1)
	assertEq(t, Playing, te.State())
	assertEq(t, false, te.IsReverse())
	te.step(3)

	apply(true, 0)
	assertEq(t, uint16(3), te.CurrentColumn())

	apply(false, 0)
	assertEq(t, Paused, te.State())
	assertEq(t, 1, te.sink.Clears())
	assertEq(t, make([]RGB, 4), te.sink.Visible())

	apply(false, 0)
	assertEq(t, 1, te.sink.Clears())

	apply(true, 0)
	assertEq(t, Playing, te.State())
	assertEq(t, uint16(3), te.CurrentColumn())

	apply(true, -1)
	assertEq(t, true, te.IsReverse())
	assertEq(t, uint16(0), te.CurrentColumn())
	assertEq(t, Playing, te.State())
}

func TestMotionGateStillWhileIdle(t *testing.T) {
	te := newTestEngine(t, 4, DefaultSettings())
	gate := NewMotionGate(te.Engine)

	if err := gate.Apply(false, -1); err != nil {
		t.Fatal("unexpected error:", err)
	}
	assertEq(t, Idle, te.State())
	assertEq(t, true, te.IsReverse())
	assertEq(t, 0, te.sink.Clears())
}
