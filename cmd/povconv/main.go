// Command povconv converts PNG, JPEG, GIF or BMP images into the formats
// played back by povd: a 24-bit BMP for a .bmp output, packed R565 for a
// .rgb or .565 output.
package main

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"github.com/successbyfailure/povd/imagefmt"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

var (
	height  = 144
	verbose = false
)

func init() {
	pflag.IntVarP(&height, "height", "H", height, "output height in pixels, usually the LED count; 0 keeps the input height")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <input> <output.{bmp,rgb,565}>\n", os.Args[0])
		pflag.PrintDefaults()
	}
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM", // extended time.Kitchen
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	if pflag.NArg() != 2 {
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(pflag.Arg(0), pflag.Arg(1), logger); err != nil {
		log.Fatal(err)
	}
}

func run(inPath, outPath string, logger *slog.Logger) error {
	format, err := imagefmt.FormatFromName(outPath)
	if err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	src, srcFormat, err := image.Decode(bufio.NewReader(in))
	if err != nil {
		return fmt.Errorf("failed to decode %q: %w", inPath, err)
	}

	dst, err := convert(src, height)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	if err := encode(out, dst, format); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %q: %w", outPath, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	logger.Info(
		"image converted",
		"input", inPath,
		"input_format", srcFormat,
		"output", outPath,
		"output_format", format,
		"width", dst.Bounds().Dx(),
		"height", dst.Bounds().Dy())

	return nil
}

const maxDimension = 0xFFFF

// convert scales src to the given height keeping its aspect ratio and
// flattens it over black. A zero height keeps the source size.
func convert(src image.Image, height int) (*image.RGBA, error) {
	sb := src.Bounds()
	if sb.Empty() {
		return nil, fmt.Errorf("image is empty")
	}

	width := sb.Dx()
	if height <= 0 {
		height = sb.Dy()
	} else {
		width = max(1, (sb.Dx()*height+sb.Dy()/2)/sb.Dy())
	}
	if width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("scaled image %dx%d is too large", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	if width == sb.Dx() && height == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}

	return dst, nil
}

func encode(w io.Writer, img *image.RGBA, format imagefmt.Format) error {
	switch format {
	case imagefmt.FormatBMP:
		return bmp.Encode(w, img)
	case imagefmt.FormatR565:
		return imagefmt.WriteR565(w, img)
	default:
		return fmt.Errorf("unsupported output format %v", format)
	}
}
