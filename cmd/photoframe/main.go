// PhotoFrame Core - slideshow controller for a networked picture frame.
//
// This is the main entry point for the photoframe daemon. It indexes the
// configured picture folders, runs the slideshow state machine, and exposes
// it over MQTT and HTTP:
//   - Shows one picture per photo duration, reshuffling after every pass
//   - Pauses for the night outside the configured on window
//   - Accepts start and tap commands from MQTT and the REST API
//   - Records state transitions to InfluxDB and Prometheus
//   - Serves a full-screen viewer and keeps a kiosk browser showing it
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/photoframe-core/internal/api"
	"github.com/nerrad567/photoframe-core/internal/gallery"
	"github.com/nerrad567/photoframe-core/internal/infrastructure/config"
	"github.com/nerrad567/photoframe-core/internal/infrastructure/database"
	"github.com/nerrad567/photoframe-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/photoframe-core/internal/infrastructure/logging"
	"github.com/nerrad567/photoframe-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/photoframe-core/internal/kiosk"
	"github.com/nerrad567/photoframe-core/internal/notify"
	"github.com/nerrad567/photoframe-core/internal/remote"
	"github.com/nerrad567/photoframe-core/internal/slideshow"
	"github.com/nerrad567/photoframe-core/internal/telemetry"
	"github.com/nerrad567/photoframe-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// startupHealthTimeout bounds the health checks run before serving.
const startupHealthTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting PhotoFrame Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version).With("device_id", cfg.Device.ID)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	timing, err := buildTiming(cfg.Slideshow, cfg.Device.Timezone)
	if err != nil {
		return fmt.Errorf("slideshow timing: %w", err)
	}

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Media library
	library := gallery.NewSQLiteLibrary(db)
	scanner, err := gallery.NewScanner(library, gallery.ScannerConfig{
		Roots:       cfg.Library.Roots,
		Extensions:  cfg.Library.Extensions,
		Concurrency: cfg.Library.ScanConcurrency,
	})
	if err != nil {
		return fmt.Errorf("creating scanner: %w", err)
	}
	scanner.SetLogger(log.Component("scanner"))

	// Index once before anything can open a picture stream.
	if _, err := scanner.Scan(ctx); err != nil {
		log.Warn("initial library scan failed", "error", err)
	}

	pictures, err := gallery.NewService(gallery.ServiceConfig{
		Library: library,
		Logger:  log.Component("gallery"),
	})
	if err != nil {
		return fmt.Errorf("creating picture service: %w", err)
	}

	checks := map[string]api.HealthChecker{"database": db}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	var notifier slideshow.Notifier = notify.LogPresenter{Logger: log.Component("notify")}
	if cfg.MQTT.Enabled {
		mqttClient, err = connectMQTT(ctx, cfg.MQTT, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		checks["mqtt"] = mqttClient
		notifier = notify.NewPresenter(mqttClient, cfg.Device.ID, log.Component("notify"))
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Slideshow
	controller, err := slideshow.NewController(slideshow.ControllerConfig{
		Pictures: pictures,
		Notifier: notifier,
		Timing:   timing,
		Logger:   log.Component("slideshow"),
	})
	if err != nil {
		return fmt.Errorf("creating slideshow: %w", err)
	}
	defer controller.Close()

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	runCtx, stop := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	defer func() {
		stop()
		_ = g.Wait() //nolint:errcheck // background tasks never fail
	}()

	g.Go(func() error {
		scanner.Watch(gctx, cfg.Library.RescanInterval)
		return nil
	})
	g.Go(func() error {
		toggleDebugOnSignal(gctx, log)
		return nil
	})

	var points telemetry.Writer
	if influxClient != nil {
		points = influxClient
	}
	recorder := telemetry.NewRecorder(points, cfg.Device.ID, nil)
	recorder.SetLogger(log.Component("telemetry"))
	states := controller.Observe(gctx)
	g.Go(func() error {
		recorder.Run(gctx, states)
		return nil
	})

	if mqttClient != nil {
		bridge, bridgeErr := remote.NewBridge(remote.BridgeOptions{
			DeviceID:      cfg.Device.ID,
			Client:        mqttClient,
			Controller:    controller,
			DisplayWidth:  cfg.Display.Width,
			DisplayHeight: cfg.Display.Height,
			TapInterval:   cfg.MQTT.TapInterval,
			QoS:           byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0..2
			Logger:        log.Component("remote"),
		})
		if bridgeErr != nil {
			return fmt.Errorf("creating remote bridge: %w", bridgeErr)
		}
		if startErr := bridge.Start(gctx); startErr != nil {
			return fmt.Errorf("starting remote bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping remote bridge")
			bridge.Stop()
		}()
	}

	// Kiosk browser (optional, needs the API and the viewer)
	var browser *kiosk.Supervisor
	if cfg.Kiosk.Enabled {
		browser, err = kiosk.NewSupervisor(kiosk.Config{
			Command:         cfg.Kiosk.Command,
			Args:            kiosk.ExpandArgs(cfg.Kiosk.Args, viewerURL(cfg.API.Host, cfg.API.Port)),
			Env:             cfg.Kiosk.Env,
			RestartDelay:    cfg.Kiosk.RestartDelay,
			MaxRestartDelay: cfg.Kiosk.MaxRestartDelay,
			MaxRestarts:     cfg.Kiosk.MaxRestarts,
			GracefulTimeout: cfg.Kiosk.GracefulTimeout,
		})
		if err != nil {
			return fmt.Errorf("creating kiosk supervisor: %w", err)
		}
		browser.SetLogger(log.Component("kiosk"))
		checks["kiosk"] = browser
	}

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Display:   cfg.Display,
			Logger:    log.Component("api"),
			Slideshow: controller,
			Library:   library,
			Checks:    checks,
			Version:   version,
		}
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}
		server, apiErr := api.New(deps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(gctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()

		if browser != nil {
			if startErr := browser.Start(gctx); startErr != nil {
				return fmt.Errorf("starting kiosk browser: %w", startErr)
			}
			defer func() {
				log.Info("stopping kiosk browser")
				if stopErr := browser.Stop(); stopErr != nil {
					log.Error("error stopping kiosk browser", "error", stopErr)
				}
			}()
		}
	} else {
		log.Info("API disabled")
	}

	if cfg.Display.AutoStart {
		log.Info("auto-starting slideshow", "width", cfg.Display.Width, "height", cfg.Display.Height)
		controller.Start(cfg.Display.Width, cfg.Display.Height)
	}
	if err := controller.StartNotification(); err != nil {
		log.Warn("could not show notification", "error", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-gctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := controller.StopNotification(); err != nil {
		log.Warn("could not clear notification", "error", err)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("background task: %w", err)
	}

	log.Info("PhotoFrame Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PHOTOFRAME_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PHOTOFRAME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// viewerURL is the address the kiosk browser opens. Wildcard hosts are
// reached over loopback.
func viewerURL(host string, port int) string {
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + api.ViewerPath
}

// buildTiming converts the slideshow section into controller timing.
func buildTiming(cfg config.SlideshowConfig, timezone string) (slideshow.Timing, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return slideshow.Timing{}, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}
	on, err := slideshow.ParseTimeOfDay(cfg.TurnOn)
	if err != nil {
		return slideshow.Timing{}, fmt.Errorf("turn_on: %w", err)
	}
	off, err := slideshow.ParseTimeOfDay(cfg.TurnOff)
	if err != nil {
		return slideshow.Timing{}, fmt.Errorf("turn_off: %w", err)
	}

	return slideshow.Timing{
		PhotoDuration: cfg.PhotoDuration,
		PauseTimeout:  cfg.PauseTimeout,
		Window:        slideshow.Window{On: on, Off: off},
		Location:      loc,
	}, nil
}

// toggleDebugOnSignal flips debug logging each time the process gets SIGUSR1.
func toggleDebugOnSignal(ctx context.Context, log *logging.Logger) {
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-usr1:
			log.Warn("log level changed", "level", log.ToggleDebug().String())
		}
	}
}

// connectMQTT connects to the broker and logs connection changes.
func connectMQTT(ctx context.Context, cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", client.ClientID(),
	)
	return client, nil
}

// healthCheck verifies every infrastructure connection is healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - checks: Named dependencies to probe
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, startupHealthTimeout)
	defer cancel()

	for name, checker := range checks {
		if err := checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
