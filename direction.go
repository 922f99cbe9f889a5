package povd

// DirectionController holds the scan direction of playback.
type DirectionController struct {
	reverse bool
}

// Reverse returns true if columns are scanned from the last to the first.
func (d *DirectionController) Reverse() bool {
	return d.reverse
}

// Set sets the scan direction and reports whether it changed.
func (d *DirectionController) Set(reverse bool) bool {
	if d.reverse == reverse {
		return false
	}
	d.reverse = reverse
	return true
}

// EffectiveIndex maps the raw playback index onto the image index to show.
func (d *DirectionController) EffectiveIndex(raw, total uint16) uint16 {
	if d.reverse && raw < total {
		return total - 1 - raw
	}
	return raw
}

// String returns the direction as shown in status reports.
func (d *DirectionController) String() string {
	if d.reverse {
		return "right_to_left"
	}
	return "left_to_right"
}
