package config

import "time"

// Config is everything the daemon reads from config.yaml. See Load for how
// defaults, the file and the environment are layered.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Display   DisplayConfig   `yaml:"display"`
	Slideshow SlideshowConfig `yaml:"slideshow"`
	Library   LibraryConfig   `yaml:"library"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Kiosk     KioskConfig     `yaml:"kiosk"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies the frame. ID appears in MQTT topics, log records
// and telemetry tags.
type DeviceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"` // IANA name or "Local"
}

// DisplayConfig is the panel size used when a start request carries none.
type DisplayConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// AutoStart starts the slideshow as soon as the daemon is up.
	AutoStart bool `yaml:"auto_start"`
}

// SlideshowConfig holds the slideshow timing.
type SlideshowConfig struct {
	PhotoDuration time.Duration `yaml:"photo_duration"`
	PauseTimeout  time.Duration `yaml:"pause_timeout"`

	// TurnOn and TurnOff bound the daily on window as "HH:MM". The window
	// spans midnight when TurnOn is later than TurnOff.
	TurnOn  string `yaml:"turn_on"`
	TurnOff string `yaml:"turn_off"`
}

type LibraryConfig struct {
	Roots           []string      `yaml:"roots"`
	Extensions      []string      `yaml:"extensions"`
	ScanConcurrency int           `yaml:"scan_concurrency"`
	RescanInterval  time.Duration `yaml:"rescan_interval"`
}

type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"` // seconds
}

// MQTTConfig is the optional broker connection for remote control.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// TapInterval is the minimum spacing between remote taps.
	TapInterval time.Duration `yaml:"tap_interval"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig should come from PHOTOFRAME_MQTT_USERNAME and
// PHOTOFRAME_MQTT_PASSWORD rather than the file.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type MQTTReconnectConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// APIConfig is the HTTP server for the REST API, the WebSocket and the
// viewer page.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
	Viewer   ViewerConfig     `yaml:"viewer"`
}

// ViewerConfig controls the full-screen page served under /viewer/.
type ViewerConfig struct {
	Enabled bool `yaml:"enabled"`

	// Dir serves the page from disk instead of the embedded copy.
	Dir string `yaml:"dir"`
}

type APITimeoutConfig struct {
	Read  time.Duration `yaml:"read"`
	Write time.Duration `yaml:"write"`
	Idle  time.Duration `yaml:"idle"`
}

// CORSConfig lists the origins allowed to call the API. Empty allows all.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type WebSocketConfig struct {
	MaxMessageSize int           `yaml:"max_message_size"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PongTimeout    time.Duration `yaml:"pong_timeout"`
}

// KioskConfig describes the browser that renders the viewer on the
// frame's screen. "{url}" in Args is replaced by the viewer address.
type KioskConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Command         string        `yaml:"command"`
	Args            []string      `yaml:"args"`
	Env             []string      `yaml:"env"`
	RestartDelay    time.Duration `yaml:"restart_delay"`
	MaxRestartDelay time.Duration `yaml:"max_restart_delay"`
	MaxRestarts     int           `yaml:"max_restarts"` // 0 means unlimited
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`
}

// InfluxDBConfig is the optional telemetry sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	Output string `yaml:"output"` // stdout, stderr
}
