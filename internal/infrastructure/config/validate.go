package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate reports every problem in the configuration at once. The error
// names each offending key the way it is spelled in config.yaml.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Device.ID != "", "device.id is required")
	check(c.Display.Width > 0 && c.Display.Height > 0, "display.width and display.height must be positive")

	check(c.Slideshow.PhotoDuration > 0, "slideshow.photo_duration must be positive")
	check(c.Slideshow.PauseTimeout > 0, "slideshow.pause_timeout must be positive")
	on, onErr := parseClock(c.Slideshow.TurnOn)
	check(onErr == nil, "slideshow.turn_on %v", onErr)
	off, offErr := parseClock(c.Slideshow.TurnOff)
	check(offErr == nil, "slideshow.turn_off %v", offErr)
	if onErr == nil && offErr == nil {
		check(on != off, "slideshow.turn_on and slideshow.turn_off must differ")
	}

	check(len(c.Library.Roots) > 0, "library.roots must list at least one directory")
	check(c.Database.Path != "", "database.path is required")
	check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos must be 0, 1, or 2")

	if c.API.Enabled {
		check(c.API.Port >= 1 && c.API.Port <= 65535, "api.port must be between 1 and 65535")
	}

	if c.Kiosk.Enabled {
		check(c.Kiosk.Command != "", "kiosk.command is required when kiosk is enabled")
		check(c.API.Enabled && c.API.Viewer.Enabled, "kiosk requires api.enabled and api.viewer.enabled")
		check(c.Kiosk.MaxRestarts >= 0, "kiosk.max_restarts must not be negative")
	}

	if c.InfluxDB.Enabled {
		check(c.InfluxDB.URL != "", "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// parseClock returns minutes since midnight for an "HH:MM" string.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("must be formatted HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
