package main

import (
	"github.com/successbyfailure/povd"
	"libdb.so/ledctl"
)

// RGBController is a controller for RGB LEDs.
type RGBController interface {
	SetRGBAt(i int, color ledctl.RGB)
	Flush() error
}

var ws281xConfig = ledctl.WS281xConfig{
	ColorOrder:   ledctl.BGROrder,
	ColorModel:   ledctl.RGBModel,
	PWMFrequency: 800000,
	DMAChannel:   10,
}

// controllerSink adapts an RGBController to a povd.PixelSink.
type controllerSink struct {
	ctrl RGBController
	n    int
}

var _ povd.PixelSink = (*controllerSink)(nil)

func newWS281xSink(numLEDs, gpio int) (*controllerSink, error) {
	cfg := ws281xConfig
	cfg.NumPixels = numLEDs
	cfg.GPIOPins = []int{gpio}

	ws281x, err := ledctl.NewWS281x(cfg)
	if err != nil {
		return nil, err
	}

	return &controllerSink{ctrl: ws281x, n: numLEDs}, nil
}

func (s *controllerSink) Len() int { return s.n }

func (s *controllerSink) SetRGBAt(i int, c povd.RGB) {
	s.ctrl.SetRGBAt(i, ledctl.RGB{R: c.R, G: c.G, B: c.B})
}

func (s *controllerSink) Flush() error {
	return s.ctrl.Flush()
}

func (s *controllerSink) Clear() error {
	for i := 0; i < s.n; i++ {
		s.ctrl.SetRGBAt(i, ledctl.RGB{})
	}
	return s.ctrl.Flush()
}
