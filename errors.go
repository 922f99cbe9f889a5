package povd

import (
	"errors"

	"github.com/successbyfailure/povd/imagefmt"
)

var (
	// ErrFormat reports an image with a bad magic, bit depth or compression.
	ErrFormat = imagefmt.ErrFormat
	// ErrIO reports an image that could not be found, opened or read.
	ErrIO = imagefmt.ErrIO
	// ErrShortRead reports pixel data that ended inside a column.
	ErrShortRead = imagefmt.ErrShortRead
	// ErrSize reports an image taller than the output strip.
	ErrSize = errors.New("image exceeds output length")
	// ErrState reports an operation that is invalid in the current playback
	// state, such as playing with no image loaded.
	ErrState = errors.New("invalid operation for playback state")
)
