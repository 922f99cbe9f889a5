package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neilotoole/slogt"
	"github.com/successbyfailure/povd/imagefmt"
)

func TestConvertScale(t *testing.T) {
	tests := []struct {
		name   string
		src    image.Rectangle
		height int
		expect image.Rectangle
	}{
		{"keep", image.Rect(0, 0, 30, 10), 0, image.Rect(0, 0, 30, 10)},
		{"downscale", image.Rect(0, 0, 300, 200), 100, image.Rect(0, 0, 150, 100)},
		{"upscale", image.Rect(0, 0, 4, 2), 8, image.Rect(0, 0, 16, 8)},
		{"rounded", image.Rect(0, 0, 5, 3), 4, image.Rect(0, 0, 7, 4)},
		{"narrow", image.Rect(0, 0, 1, 100), 10, image.Rect(0, 0, 1, 10)},
		{"offset origin", image.Rect(5, 5, 15, 10), 10, image.Rect(0, 0, 20, 10)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dst, err := convert(image.NewRGBA(test.src), test.height)
			if err != nil {
				t.Fatal("unexpected error:", err)
			}
			assertEq(t, test.expect, dst.Bounds())
		})
	}
}

func TestConvertErrors(t *testing.T) {
	if _, err := convert(image.NewRGBA(image.Rectangle{}), 10); err == nil {
		t.Error("expected error converting an empty image")
	}
	if _, err := convert(image.NewRGBA(image.Rect(0, 0, 100000, 1)), 2); err == nil {
		t.Error("expected error converting an overly wide image")
	}
}

func TestConvertFlattens(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 128})
	src.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})

	dst, err := convert(src, 0)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	assertEq(t, color.RGBA{R: 128, A: 255}, dst.RGBAAt(0, 0))
	assertEq(t, color.RGBA{G: 255, A: 255}, dst.RGBAAt(1, 0))
	assertEq(t, true, dst.Opaque())
}

func TestEncodeReadable(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	colors := [][]imagefmt.RGB{
		{{R: 255, G: 0, B: 0}, {R: 0, G: 255, B: 0}, {R: 0, G: 0, B: 255}},
		{{R: 255, G: 255, B: 255}, {R: 0, G: 0, B: 0}, {R: 255, G: 255, B: 0}},
	}
	for y, row := range colors {
		for x, c := range row {
			img.SetRGBA(x, y, color.RGBA{c.R, c.G, c.B, 255})
		}
	}

	for _, name := range []string{"out.bmp", "out.rgb", "out.565"} {
		t.Run(name, func(t *testing.T) {
			format, err := imagefmt.FormatFromName(name)
			if err != nil {
				t.Fatal(err)
			}

			var buf bytes.Buffer
			if err := encode(&buf, img, format); err != nil {
				t.Fatal("failed to encode:", err)
			}

			r := bytes.NewReader(buf.Bytes())
			md, err := imagefmt.ParseHeader(name, r)
			if err != nil {
				t.Fatal("failed to parse header:", err)
			}
			assertEq(t, uint16(3), md.Width)
			assertEq(t, uint16(2), md.Height)

			col := make([]imagefmt.RGB, 2)
			for x := 0; x < 3; x++ {
				if _, err := imagefmt.ReadColumn(r, md, uint16(x), col); err != nil {
					t.Fatalf("failed to read column %d: %v", x, err)
				}
				assertEq(t, []imagefmt.RGB{colors[0][x], colors[1][x]}, col)
			}
		})
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.rgb")

	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	f, err := os.Create(in)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	height = 5
	t.Cleanup(func() { height = 144 })

	if err := run(in, out, slogt.New(t)); err != nil {
		t.Fatal("failed to convert:", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	md, err := imagefmt.ParseHeader(out, bytes.NewReader(b))
	if err != nil {
		t.Fatal("failed to parse output:", err)
	}
	assertEq(t, uint16(10), md.Width)
	assertEq(t, uint16(5), md.Height)
	assertEq(t, int64(8+10*5*2), md.FileSize)

	if err := run(in, filepath.Join(dir, "out.png"), slogt.New(t)); err == nil {
		t.Error("expected error for an unknown output suffix")
	}
}

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}
