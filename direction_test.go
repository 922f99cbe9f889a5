package povd

import "testing"

func TestDirectionController(t *testing.T) {
	var d DirectionController
	assertEq(t, false, d.Reverse())
	assertEq(t, "left_to_right", d.String())
	assertEq(t, uint16(3), d.EffectiveIndex(3, 10))

	assertEq(t, true, d.Set(true))
	assertEq(t, false, d.Set(true))
	assertEq(t, "right_to_left", d.String())

	got := make([]uint16, 4)
	for i := range got {
		got[i] = d.EffectiveIndex(uint16(i), 4)
	}
	assertEq(t, []uint16{3, 2, 1, 0}, got)

	// Indices past the end are passed through rather than wrapped.
	assertEq(t, uint16(4), d.EffectiveIndex(4, 4))
	assertEq(t, uint16(0), d.EffectiveIndex(0, 0))

	assertEq(t, true, d.Set(false))
	assertEq(t, uint16(2), d.EffectiveIndex(2, 4))
}
