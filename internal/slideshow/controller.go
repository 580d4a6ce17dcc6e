package slideshow

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nerrad567/photoframe-core/internal/picture"
	"github.com/nerrad567/photoframe-core/internal/statemachine"
)

// Defaults applied by NewController when the config leaves them empty.
const (
	DefaultPhotoDuration = 60 * time.Second
	DefaultPauseTimeout  = 3 * time.Minute
)

// DefaultWindow keeps the frame awake from 07:00 until 22:00.
var DefaultWindow = Window{ //nolint:gochecknoglobals // read-only default
	On:  TimeOfDay{Hour: 7},
	Off: TimeOfDay{Hour: 22},
}

// Notifier shows and hides the persistent "slideshow running" indicator.
type Notifier interface {
	Start() error
	Stop() error
}

// RunningStatus is the projection the display uses to show or hide the
// paused overlay.
type RunningStatus struct {
	IsRunning  bool
	FolderName string
}

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	Pictures PictureService

	// Notifier is optional.
	Notifier Notifier

	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// Timing fields left at zero take the package defaults.
	Timing Timing

	Logger statemachine.Logger
}

// Controller is the slideshow as seen by a display layer: two inputs,
// start and tap, and a handful of state projections.
type Controller struct {
	machine  *statemachine.Machine[State]
	notifier Notifier
	logger   statemachine.Logger
}

// NewController validates cfg, builds the state machine with every
// slideshow effect and starts it.
//
// Parameters:
//   - cfg: Controller configuration; Pictures is required
//
// Returns:
//   - *Controller: Running controller; call Close to stop it
//   - error: ErrNoPictureService, ErrInvalidDuration or ErrInvalidWindow
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Pictures == nil {
		return nil, ErrNoPictureService
	}

	timing := cfg.Timing
	if timing.PhotoDuration == 0 {
		timing.PhotoDuration = DefaultPhotoDuration
	}
	if timing.PauseTimeout == 0 {
		timing.PauseTimeout = DefaultPauseTimeout
	}
	if timing.Window == (Window{}) {
		timing.Window = DefaultWindow
	}
	if timing.Location == nil {
		timing.Location = time.Local
	}
	if timing.PhotoDuration < 0 || timing.PauseTimeout < 0 {
		return nil, ErrInvalidDuration
	}
	if err := timing.Window.Validate(); err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}

	machine, err := statemachine.New(statemachine.Config[State]{
		Name:    "slideshow",
		Reducer: Reduce,
		Equal:   equalState,
		Effects: Effects(cfg.Pictures, clock, timing, logger),
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating state machine: %w", err)
	}

	logger.Info("slideshow controller started",
		"photo_duration", timing.PhotoDuration,
		"pause_timeout", timing.PauseTimeout,
		"turn_on", timing.Window.On.String(),
		"turn_off", timing.Window.Off.String(),
	)

	return &Controller{
		machine:  machine,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Start starts the slideshow for a display of the given size.
func (c *Controller) Start(width, height int) {
	c.machine.Dispatch(StartSlideshow{DesiredWidth: width, DesiredHeight: height})
}

// Tap forwards a user tap.
func (c *Controller) Tap() {
	c.machine.Dispatch(TappedSlideshow{})
}

// State returns the current snapshot.
func (c *Controller) State() State {
	return c.machine.Current()
}

// Observe streams the state: the latest value first, then every change.
func (c *Controller) Observe(ctx context.Context) <-chan State {
	return c.machine.Observe(ctx)
}

// ObserveIsRunning streams the running flag together with the folder of
// the picture on screen, only when the flag changes.
func (c *Controller) ObserveIsRunning(ctx context.Context) <-chan RunningStatus {
	states := statemachine.DistinctBy(ctx, c.machine.Observe(ctx), func(s State) bool { return s.IsRunning })
	return statemachine.Map(ctx, states, func(s State) RunningStatus {
		return RunningStatus{IsRunning: s.IsRunning, FolderName: s.FolderName()}
	})
}

// ObservePictureResult streams every distinct picture result, skipping the
// initial "no picture" state.
func (c *Controller) ObservePictureResult(ctx context.Context) <-chan picture.Result {
	results := statemachine.Map(ctx, c.machine.Observe(ctx), func(s State) picture.Result { return s.CurrentPictureResult })
	results = statemachine.Filter(ctx, results, func(r picture.Result) bool { return r != nil })
	return statemachine.Distinct(ctx, results, picture.Equal)
}

// ObserveIsPausedForTheNight streams the night flag on change. Leading
// "awake" values are skipped so a display starting in the daytime sees
// nothing until the first night.
func (c *Controller) ObserveIsPausedForTheNight(ctx context.Context) <-chan bool {
	flags := statemachine.Map(ctx, c.machine.Observe(ctx), func(s State) bool { return s.IsPausedForTheNight })
	flags = statemachine.Distinct(ctx, flags, func(a, b bool) bool { return a == b })
	return statemachine.SkipWhile(ctx, flags, func(paused bool) bool { return !paused })
}

// StartNotification shows the persistent notification.
func (c *Controller) StartNotification() error {
	if err := c.notifier.Start(); err != nil {
		return fmt.Errorf("starting notification: %w", err)
	}
	return nil
}

// StopNotification hides the persistent notification.
func (c *Controller) StopNotification() error {
	if err := c.notifier.Stop(); err != nil {
		return fmt.Errorf("stopping notification: %w", err)
	}
	return nil
}

// Close stops every effect and closes all observer channels.
func (c *Controller) Close() {
	c.machine.Close()
	c.logger.Info("slideshow controller stopped")
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopNotifier struct{}

func (noopNotifier) Start() error { return nil }
func (noopNotifier) Stop() error  { return nil }
