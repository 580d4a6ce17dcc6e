package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration in three layers: built-in defaults, then
// the YAML file at path, then PHOTOFRAME_* environment variables. The
// result is validated before it is returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{ID: "frame-001", Name: "PhotoFrame", Timezone: "Local"},
		Display: DisplayConfig{
			Width:     1920,
			Height:    1080,
			AutoStart: true,
		},
		Slideshow: SlideshowConfig{
			PhotoDuration: time.Minute,
			PauseTimeout:  3 * time.Minute,
			TurnOn:        "07:00",
			TurnOff:       "22:00",
		},
		Library: LibraryConfig{
			Roots:           []string{"./pictures"},
			Extensions:      []string{".jpg", ".jpeg", ".png"},
			ScanConcurrency: 4,
			RescanInterval:  time.Hour,
		},
		Database: DatabaseConfig{Path: "./data/photoframe.db", WALMode: true, BusyTimeout: 5},
		MQTT: MQTTConfig{
			Broker:      MQTTBrokerConfig{Host: "localhost", Port: 1883, ClientID: "photoframe-core"},
			QoS:         1,
			Reconnect:   MQTTReconnectConfig{InitialDelay: time.Second, MaxDelay: time.Minute},
			TapInterval: 500 * time.Millisecond,
		},
		API: APIConfig{
			Enabled:  true,
			Host:     "0.0.0.0",
			Port:     8080,
			Timeouts: APITimeoutConfig{Read: 30 * time.Second, Write: 30 * time.Second, Idle: time.Minute},
			Viewer:   ViewerConfig{Enabled: true},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30 * time.Second,
			PongTimeout:    10 * time.Second,
		},
		Kiosk: KioskConfig{
			Command: "chromium-browser",
			Args: []string{
				"--kiosk",
				"--noerrdialogs",
				"--disable-infobars",
				"--disable-session-crashed-bubble",
				"--check-for-update-interval=31536000",
				"{url}",
			},
			RestartDelay:    5 * time.Second,
			MaxRestartDelay: 5 * time.Minute,
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}
