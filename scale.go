package povd

// MapIndex maps position dest of a destination of length destLen onto a
// source of length sourceLen.
//
// A source no longer than the destination is left unscaled and dest is
// returned as is. A shorter source is stretched linearly so that the first
// and last destination positions land exactly on the first and last source
// positions. The result is always within [0, sourceLen-1].
func MapIndex(dest, destLen, sourceLen uint16) uint16 {
	if sourceLen <= 1 {
		return 0
	}

	var src uint32
	if destLen <= sourceLen {
		src = uint32(dest)
	} else {
		src = uint32(dest) * uint32(sourceLen-1) / uint32(destLen-1)
	}

	return uint16(min(src, uint32(sourceLen-1)))
}
