// Package imagefmt decodes the raw image layouts played back by povd: 24-bit
// uncompressed BMP files and the packed 16-bit R565 format.
//
// Decoding never loads a whole image. ParseHeader reads only the fixed
// header, and ReadColumn seeks to each pixel of a single column, so images
// can be streamed from slow random-access storage one frame at a time.
package imagefmt

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrFormat is returned for a bad magic or signature, an unsupported bit
	// depth or compression, or an unknown file suffix.
	ErrFormat = errors.New("unsupported image format")
	// ErrIO is returned when the image cannot be opened, seeked or read, or
	// when its header is truncated.
	ErrIO = errors.New("image I/O error")
	// ErrShortRead is returned when pixel data ends before a column is
	// complete.
	ErrShortRead = errors.New("short read of pixel data")
	// ErrOutOfRange is returned when a column index lies outside the image.
	ErrOutOfRange = errors.New("column index out of range")
)

// Format is an on-disk image layout.
type Format uint8

const (
	// FormatBMP is a 24-bit uncompressed Windows bitmap.
	FormatBMP Format = iota
	// FormatR565 is an 8-byte "R565" header followed by row-major packed
	// 16-bit pixels.
	FormatR565
)

func (f Format) String() string {
	switch f {
	case FormatBMP:
		return "bmp"
	case FormatR565:
		return "r565"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// FormatFromName picks the image format from a file name suffix. The match
// is case-insensitive: ".bmp" is FormatBMP, ".rgb" and ".565" are
// FormatR565.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".bmp":
		return FormatBMP, nil
	case ".rgb", ".565":
		return FormatR565, nil
	default:
		return 0, fmt.Errorf("%w: unknown suffix of %q", ErrFormat, name)
	}
}

// RGB is a decoded 8-bit-per-channel pixel.
type RGB struct {
	R, G, B uint8
}

// Metadata describes a parsed image header.
type Metadata struct {
	Width    uint16
	Height   uint16
	FileSize int64
	Format   Format
	// Valid is only true for metadata returned without an error.
	Valid bool

	// DataOffset is the file offset of the first stored pixel row.
	DataOffset uint32
	// RowStride is the number of bytes between consecutive stored rows,
	// including padding.
	RowStride uint32
}

// ParseHeader reads the header of the named image from r. The format is
// chosen by the name's suffix. On error the returned Metadata is the zero
// value, so it is never Valid.
func ParseHeader(name string, r io.ReadSeeker) (Metadata, error) {
	format, err := FormatFromName(name)
	if err != nil {
		return Metadata{}, err
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to size %q: %v", ErrIO, name, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to rewind %q: %v", ErrIO, name, err)
	}

	var md Metadata
	switch format {
	case FormatBMP:
		md, err = parseBMP(r)
	case FormatR565:
		md, err = parseR565(r)
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse %q: %w", name, err)
	}

	md.FileSize = size
	md.Format = format
	md.Valid = true
	return md, nil
}

// ReadColumn reads column x of the image described by md into buf, topmost
// row first. It fills min(md.Height, len(buf)) entries and returns that
// count. When an error is returned the contents of buf past the entries
// already decoded are undefined.
func ReadColumn(r io.ReadSeeker, md Metadata, x uint16, buf []RGB) (int, error) {
	if !md.Valid {
		return 0, fmt.Errorf("%w: metadata is not valid", ErrFormat)
	}
	if x >= md.Width {
		return 0, fmt.Errorf("%w: column %d of %d", ErrOutOfRange, x, md.Width)
	}

	n := min(int(md.Height), len(buf))

	var px [3]byte
	for y := 0; y < n; y++ {
		offset := pixelOffset(md, x, uint16(y))
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return y, fmt.Errorf("%w: failed to seek to %d: %v", ErrIO, offset, err)
		}

		switch md.Format {
		case FormatBMP:
			if _, err := io.ReadFull(r, px[:3]); err != nil {
				return y, fmt.Errorf("%w: pixel (%d, %d): %v", ErrShortRead, x, y, err)
			}
			buf[y] = decodeBGR(px[:3])
		case FormatR565:
			if _, err := io.ReadFull(r, px[:2]); err != nil {
				return y, fmt.Errorf("%w: pixel (%d, %d): %v", ErrShortRead, x, y, err)
			}
			buf[y] = DecodeR565(uint16(px[0]) | uint16(px[1])<<8)
		}
	}

	return n, nil
}

// pixelOffset returns the file offset of pixel (x, y), y = 0 being the top
// row of the displayed image.
func pixelOffset(md Metadata, x, y uint16) int64 {
	switch md.Format {
	case FormatBMP:
		row := int64(md.Height) - 1 - int64(y)
		return int64(md.DataOffset) + row*int64(md.RowStride) + int64(x)*3
	case FormatR565:
		return r565HeaderSize + (int64(y)*int64(md.Width)+int64(x))*2
	default:
		return -1
	}
}
