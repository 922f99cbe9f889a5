package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/successbyfailure/povd"
	"gopkg.in/yaml.v3"
)

// config is the device configuration file.
type config struct {
	Driver      string `yaml:"driver"` // "ws281x" | "spi" | "sim"
	NumLEDs     int    `yaml:"num_leds"`
	GPIO        int    `yaml:"gpio"`
	SPIDev      string `yaml:"spi_dev,omitempty"` // e.g. /dev/spidev0.0
	Speed       int    `yaml:"speed"`
	Loop        bool   `yaml:"loop"`
	Orientation string `yaml:"orientation"`
	ActiveImage string `yaml:"active_image,omitempty"`
	ImagesDir   string `yaml:"images_dir"`
}

const (
	driverWS281x = "ws281x"
	driverSPI    = "spi"
	driverSim    = "sim"
)

func defaultConfig() config {
	return config{
		Driver:      driverWS281x,
		NumLEDs:     144,
		GPIO:        12,
		Speed:       povd.DefaultSpeed,
		Loop:        true,
		Orientation: povd.Vertical.String(),
		ImagesDir:   "images",
	}
}

// loadConfig reads the config file at path over the defaults. A missing file
// yields the defaults.
func loadConfig(path string) (config, error) {
	c := defaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return c, err
	}

	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return c, nil
}

func saveConfig(path string, c config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// validate checks c, filling in zero values and clamping the speed.
func (c *config) validate() error {
	switch c.Driver {
	case driverWS281x, driverSPI, driverSim:
	case "":
		c.Driver = driverWS281x
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}

	if c.NumLEDs < 1 || c.NumLEDs > povd.MaxOutputLength {
		return fmt.Errorf("num_leds %d outside [1, %d]", c.NumLEDs, povd.MaxOutputLength)
	}

	if c.Speed == 0 {
		c.Speed = povd.DefaultSpeed
	}
	c.Speed = max(povd.MinSpeed, min(c.Speed, povd.MaxSpeed))

	if c.Orientation == "" {
		c.Orientation = povd.Vertical.String()
	}
	if _, err := povd.ParseOrientation(c.Orientation); err != nil {
		return err
	}

	if c.ImagesDir == "" {
		c.ImagesDir = "images"
	}
	c.ActiveImage = povd.NormalizeName(c.ActiveImage)

	return nil
}

// settings returns the playback settings of a validated config.
func (c config) settings() povd.Settings {
	o, _ := povd.ParseOrientation(c.Orientation)
	return povd.Settings{
		Speed:       c.Speed,
		Loop:        c.Loop,
		Orientation: o,
	}
}
