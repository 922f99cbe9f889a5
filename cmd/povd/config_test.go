package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/successbyfailure/povd"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		c, err := loadConfig(filepath.Join(dir, "missing.yaml"))
		if err != nil {
			t.Fatal("unexpected error:", err)
		}
		assertEq(t, defaultConfig(), c)
	})

	t.Run("partial", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		writeFile(t, path, "driver: spi\nnum_leds: 60\nloop: false\nactive_image: /images/heart.bmp\n")

		c, err := loadConfig(path)
		if err != nil {
			t.Fatal("unexpected error:", err)
		}
		if err := c.validate(); err != nil {
			t.Fatal("unexpected validation error:", err)
		}

		expect := defaultConfig()
		expect.Driver = driverSPI
		expect.NumLEDs = 60
		expect.Loop = false
		expect.ActiveImage = "heart.bmp"
		assertEq(t, expect, c)
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		writeFile(t, path, "num_leds: [1, 2\n")

		if _, err := loadConfig(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "povd.yaml")

	c := defaultConfig()
	c.Speed = 60
	c.Orientation = "horizontal"
	c.ActiveImage = "star.rgb"

	if err := saveConfig(path, c); err != nil {
		t.Fatal("failed to save:", err)
	}

	got, err := loadConfig(path)
	if err != nil {
		t.Fatal("failed to load:", err)
	}
	assertEq(t, c, got)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *config)
		expect func(c *config)
		fail   bool
	}{
		{
			name:   "defaults",
			modify: func(c *config) {},
			expect: func(c *config) {},
		},
		{
			name:   "speed clamped",
			modify: func(c *config) { c.Speed = 1000 },
			expect: func(c *config) { c.Speed = povd.MaxSpeed },
		},
		{
			name:   "zero speed",
			modify: func(c *config) { c.Speed = 0 },
			expect: func(c *config) {},
		},
		{
			name:   "empty fields",
			modify: func(c *config) { c.Driver, c.Orientation, c.ImagesDir = "", "", "" },
			expect: func(c *config) {},
		},
		{
			name:   "too many leds",
			modify: func(c *config) { c.NumLEDs = 301 },
			fail:   true,
		},
		{
			name:   "no leds",
			modify: func(c *config) { c.NumLEDs = 0 },
			fail:   true,
		},
		{
			name:   "bad driver",
			modify: func(c *config) { c.Driver = "dmx" },
			fail:   true,
		},
		{
			name:   "bad orientation",
			modify: func(c *config) { c.Orientation = "diagonal" },
			fail:   true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := defaultConfig()
			test.modify(&c)

			err := c.validate()
			if test.fail {
				if err == nil {
					t.Fatal("expected validation error")
				}
				return
			}
			if err != nil {
				t.Fatal("unexpected validation error:", err)
			}

			expect := defaultConfig()
			test.expect(&expect)
			assertEq(t, expect, c)
		})
	}
}

func TestConfigSettings(t *testing.T) {
	c := defaultConfig()
	c.Orientation = "horizontal"
	c.Loop = false

	assertEq(t, povd.Settings{
		Speed:       povd.DefaultSpeed,
		Loop:        false,
		Orientation: povd.Horizontal,
	}, c.settings())
}

func TestPatchSettingsParse(t *testing.T) {
	p, err := patchSettingsRequest{Speed: "45", Reverse: "true"}.parse()
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if p.speed == nil || *p.speed != 45 {
		t.Errorf("unexpected speed %v", p.speed)
	}
	if p.reverse == nil || !*p.reverse {
		t.Errorf("unexpected reverse %v", p.reverse)
	}
	if p.loop != nil || p.orientation != nil {
		t.Error("unset fields were parsed")
	}

	for _, req := range []patchSettingsRequest{
		{Speed: "fast"},
		{Loop: "maybe"},
		{Orientation: "sideways"},
		{Reverse: "2"},
	} {
		if _, err := req.parse(); err == nil {
			t.Errorf("expected error parsing %+v", req)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}
