package imagefmt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
)

const (
	r565Magic      = "R565"
	r565HeaderSize = 8
)

type r565Header struct {
	Magic  [4]byte
	Width  uint16
	Height uint16
}

func parseR565(r io.Reader) (Metadata, error) {
	var h r565Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Metadata{}, fmt.Errorf("%w: R565 header: %v", ErrIO, err)
	}
	if string(h.Magic[:]) != r565Magic {
		return Metadata{}, fmt.Errorf("%w: bad R565 magic %q", ErrFormat, h.Magic[:])
	}
	if h.Width == 0 || h.Height == 0 {
		return Metadata{}, fmt.Errorf("%w: unsupported R565 dimensions %dx%d", ErrFormat, h.Width, h.Height)
	}

	return Metadata{
		Width:      h.Width,
		Height:     h.Height,
		DataOffset: r565HeaderSize,
		RowStride:  uint32(h.Width) * 2,
	}, nil
}

// DecodeR565 unpacks a 5-6-5 pixel into 8-bit channels, scaling each with
// truncating integer division.
func DecodeR565(v uint16) RGB {
	return RGB{
		R: uint8(uint32((v>>11)&0x1F) * 255 / 31),
		G: uint8(uint32((v>>5)&0x3F) * 255 / 63),
		B: uint8(uint32(v&0x1F) * 255 / 31),
	}
}

// EncodeR565 packs a pixel into 5-6-5 by dropping the low bits of each
// channel.
func EncodeR565(c RGB) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}

// WriteR565 writes img as an R565 image. Alpha is ignored.
func WriteR565(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || b.Dx() > math.MaxUint16 || b.Dy() > math.MaxUint16 {
		return fmt.Errorf("%w: cannot store %dx%d as R565", ErrFormat, b.Dx(), b.Dy())
	}

	bw := bufio.NewWriter(w)

	h := r565Header{Width: uint16(b.Dx()), Height: uint16(b.Dy())}
	copy(h.Magic[:], r565Magic)
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return err
	}

	var px [2]byte
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			binary.LittleEndian.PutUint16(px[:], EncodeR565(RGB{R: c.R, G: c.G, B: c.B}))
			if _, err := bw.Write(px[:]); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}
