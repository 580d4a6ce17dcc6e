package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envPrefix starts every override, e.g. PHOTOFRAME_MQTT_HOST.
const envPrefix = "PHOTOFRAME_"

type envOverride struct {
	key   string
	apply func(c *Config, v string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", v)
		}
		*field(c) = b
		return nil
	}
}

func setInt(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("not an integer: %q", v)
		}
		*field(c) = n
		return nil
	}
}

// envOverrides lists the settings that can be changed without editing the
// file. Secrets belong here rather than in config.yaml.
var envOverrides = []envOverride{ //nolint:gochecknoglobals
	{"DEVICE_ID", setString(func(c *Config) *string { return &c.Device.ID })},
	{"SLIDESHOW_TURN_ON", setString(func(c *Config) *string { return &c.Slideshow.TurnOn })},
	{"SLIDESHOW_TURN_OFF", setString(func(c *Config) *string { return &c.Slideshow.TurnOff })},
	{"LIBRARY_ROOTS", func(c *Config, v string) error {
		c.Library.Roots = strings.Split(v, string(os.PathListSeparator))
		return nil
	}},
	{"DATABASE_PATH", setString(func(c *Config) *string { return &c.Database.Path })},
	{"MQTT_ENABLED", setBool(func(c *Config) *bool { return &c.MQTT.Enabled })},
	{"MQTT_HOST", setString(func(c *Config) *string { return &c.MQTT.Broker.Host })},
	{"MQTT_USERNAME", setString(func(c *Config) *string { return &c.MQTT.Auth.Username })},
	{"MQTT_PASSWORD", setString(func(c *Config) *string { return &c.MQTT.Auth.Password })},
	{"API_HOST", setString(func(c *Config) *string { return &c.API.Host })},
	{"API_PORT", setInt(func(c *Config) *int { return &c.API.Port })},
	{"KIOSK_ENABLED", setBool(func(c *Config) *bool { return &c.Kiosk.Enabled })},
	{"KIOSK_COMMAND", setString(func(c *Config) *string { return &c.Kiosk.Command })},
	{"INFLUXDB_TOKEN", setString(func(c *Config) *string { return &c.InfluxDB.Token })},
	{"LOGGING_LEVEL", setString(func(c *Config) *string { return &c.Logging.Level })},
}

// applyEnvOverrides applies every set PHOTOFRAME_* variable. Unparseable
// values are reported together rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	for _, o := range envOverrides {
		v, ok := os.LookupEnv(envPrefix + o.key)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(cfg, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, o.key, err))
		}
	}
	return errors.Join(errs...)
}
