package imagefmt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const bmpSignature = "BM"

// bmpFileHeader is the 14-byte BITMAPFILEHEADER.
type bmpFileHeader struct {
	Signature  [2]byte
	FileSize   uint32
	Reserved1  uint16
	Reserved2  uint16
	DataOffset uint32
}

// bmpInfoHeader is the 40-byte BITMAPINFOHEADER. Only the fields up to
// Compression take part in decoding.
type bmpInfoHeader struct {
	HeaderSize      uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitsPerPixel    uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

func parseBMP(r io.Reader) (Metadata, error) {
	var fh bmpFileHeader
	if err := binary.Read(r, binary.LittleEndian, &fh); err != nil {
		return Metadata{}, fmt.Errorf("%w: file header: %v", ErrIO, err)
	}
	if string(fh.Signature[:]) != bmpSignature {
		return Metadata{}, fmt.Errorf("%w: bad BMP signature %q", ErrFormat, fh.Signature[:])
	}

	var ih bmpInfoHeader
	if err := binary.Read(r, binary.LittleEndian, &ih); err != nil {
		return Metadata{}, fmt.Errorf("%w: info header: %v", ErrIO, err)
	}
	if ih.Compression != 0 {
		return Metadata{}, fmt.Errorf("%w: compressed BMP (method %d)", ErrFormat, ih.Compression)
	}
	if ih.BitsPerPixel != 24 {
		return Metadata{}, fmt.Errorf("%w: %d-bit BMP, only 24-bit is supported", ErrFormat, ih.BitsPerPixel)
	}

	// A negative height marks top-down storage; the rows are always
	// addressed bottom-up here, so only the magnitude is kept.
	w := abs(int64(ih.Width))
	h := abs(int64(ih.Height))
	if w == 0 || h == 0 || w > math.MaxUint16 || h > math.MaxUint16 {
		return Metadata{}, fmt.Errorf("%w: unsupported BMP dimensions %dx%d", ErrFormat, w, h)
	}

	return Metadata{
		Width:      uint16(w),
		Height:     uint16(h),
		DataOffset: fh.DataOffset,
		RowStride:  bmpRowStride(uint32(ih.BitsPerPixel), uint32(w)),
	}, nil
}

// bmpRowStride is the stored row size, padded to 4 bytes.
func bmpRowStride(bitsPerPixel, width uint32) uint32 {
	return (bitsPerPixel*width + 31) / 32 * 4
}

func decodeBGR(b []byte) RGB {
	return RGB{R: b[2], G: b[1], B: b[0]}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
