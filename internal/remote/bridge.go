package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/photoframe-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/photoframe-core/internal/slideshow"
)

// DefaultTapInterval is the minimum spacing between accepted taps.
const DefaultTapInterval = 500 * time.Millisecond

// ErrInvalidOptions is returned by NewBridge for missing dependencies.
var ErrInvalidOptions = errors.New("remote: invalid bridge options")

// MQTTClient is the subset of *mqtt.Client the bridge needs.
type MQTTClient interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	PublishJSON(topic string, v any, retained bool) error
}

// Controller is the subset of *slideshow.Controller the bridge drives.
type Controller interface {
	Start(width, height int)
	Tap()
	Observe(ctx context.Context) <-chan slideshow.State
}

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StartCommand is the optional body of a start command.
type StartCommand struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	DeviceID   string
	Client     MQTTClient
	Controller Controller

	// DisplayWidth and DisplayHeight are used when a start command carries
	// no size.
	DisplayWidth  int
	DisplayHeight int

	// TapInterval defaults to DefaultTapInterval.
	TapInterval time.Duration

	// QoS for subscriptions.
	QoS byte

	Logger Logger
}

// Bridge connects the slideshow controller to MQTT.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	opts    BridgeOptions
	topics  mqtt.Topics
	taps    *rate.Limiter
	logger  Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped sync.Once
}

// NewBridge validates opts and creates a bridge. Call Start to begin.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("%w: MQTT client is required", ErrInvalidOptions)
	}
	if opts.Controller == nil {
		return nil, fmt.Errorf("%w: controller is required", ErrInvalidOptions)
	}
	if opts.DeviceID == "" {
		return nil, fmt.Errorf("%w: device ID is required", ErrInvalidOptions)
	}

	interval := opts.TapInterval
	if interval <= 0 {
		interval = DefaultTapInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Bridge{
		opts:   opts,
		topics: mqtt.Topics{DeviceID: opts.DeviceID},
		taps:   rate.NewLimiter(rate.Every(interval), 1),
		logger: logger,
	}, nil
}

// Start subscribes to the command topics and begins publishing state.
// The state publisher runs until Stop is called or ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.opts.Client.Subscribe(b.topics.CommandStart(), b.opts.QoS, b.handleStart); err != nil {
		return fmt.Errorf("subscribing to start commands: %w", err)
	}
	if err := b.opts.Client.Subscribe(b.topics.CommandTap(), b.opts.QoS, b.handleTap); err != nil {
		return fmt.Errorf("subscribing to tap commands: %w", err)
	}

	ctx, b.cancel = context.WithCancel(ctx)
	states := b.opts.Controller.Observe(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.publishStates(states)
	}()

	b.logger.Info("remote control started",
		"start_topic", b.topics.CommandStart(),
		"tap_topic", b.topics.CommandTap(),
		"state_topic", b.topics.State(),
	)
	return nil
}

// Stop unsubscribes and waits for the state publisher to exit.
func (b *Bridge) Stop() {
	b.stopped.Do(func() {
		for _, topic := range []string{b.topics.CommandStart(), b.topics.CommandTap()} {
			if err := b.opts.Client.Unsubscribe(topic); err != nil {
				b.logger.Debug("unsubscribe failed", "topic", topic, "error", err)
			}
		}
		if b.cancel != nil {
			b.cancel()
		}
		b.wg.Wait()
		b.logger.Info("remote control stopped")
	})
}

func (b *Bridge) handleStart(_ string, payload []byte) error {
	cmd := StartCommand{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("parsing start command: %w", err)
		}
	}
	if cmd.Width <= 0 || cmd.Height <= 0 {
		cmd.Width, cmd.Height = b.opts.DisplayWidth, b.opts.DisplayHeight
	}

	b.logger.Info("remote start", "width", cmd.Width, "height", cmd.Height)
	b.opts.Controller.Start(cmd.Width, cmd.Height)
	return nil
}

func (b *Bridge) handleTap(_ string, _ []byte) error {
	if !b.taps.Allow() {
		b.logger.Debug("remote tap dropped, too soon after the previous one")
		return nil
	}
	b.logger.Debug("remote tap")
	b.opts.Controller.Tap()
	return nil
}

func (b *Bridge) publishStates(states <-chan slideshow.State) {
	topic := b.topics.State()
	for s := range states {
		if err := b.opts.Client.PublishJSON(topic, slideshow.SnapshotOf(s), true); err != nil {
			b.logger.Warn("publishing slideshow state failed", "error", err)
		}
	}
}
