package main

import (
	"fmt"
	"image"
	"image/color"

	"github.com/successbyfailure/povd"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// spiFreq encodes the 800kHz NRZ bit stream at 3 SPI bits per bit.
const spiFreq = 2500 * physic.KiloHertz

// nrzSink drives WS281x LEDs through the NRZ encoder on an SPI port. Frames
// are staged in a one-pixel-tall image and drawn on Flush.
type nrzSink struct {
	port  spi.PortCloser
	dev   *nrzled.Dev
	strip *image.NRGBA
}

var _ povd.PixelSink = (*nrzSink)(nil)

// newNRZSink opens the named SPI port. An empty name opens the first one.
func newNRZSink(portName string, numLEDs int) (*nrzSink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", portName, err)
	}

	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: numLEDs,
		Channels:  3,
		Freq:      spiFreq,
	})
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to create NRZ LED device: %w", err)
	}

	s := &nrzSink{
		port:  port,
		dev:   dev,
		strip: image.NewNRGBA(image.Rect(0, 0, numLEDs, 1)),
	}
	if err := s.Clear(); err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}

func (s *nrzSink) Len() int { return s.strip.Rect.Dx() }

func (s *nrzSink) SetRGBAt(i int, c povd.RGB) {
	s.strip.SetNRGBA(i, 0, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
}

func (s *nrzSink) Flush() error {
	return s.dev.Draw(s.dev.Bounds(), s.strip, image.Point{})
}

func (s *nrzSink) Clear() error {
	clear(s.strip.Pix)
	return s.dev.Halt()
}

func (s *nrzSink) Close() error {
	return s.port.Close()
}
