// Package notify shows and hides the persistent "slideshow running"
// notification.
//
// On a networked frame the notification is a retained MQTT message that a
// companion app or home dashboard renders until it is cleared. Without a
// broker the LogPresenter stands in.
package notify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/photoframe-core/internal/infrastructure/mqtt"
)

// ErrNotConnected is returned when the broker is unreachable.
var ErrNotConnected = errors.New("notify: broker not connected")

// Notification is the payload published while the slideshow runs.
type Notification struct {
	Title   string `json:"title"`
	Text    string `json:"text"`
	Ongoing bool   `json:"ongoing"`
}

// Running is the notification shown while the slideshow is up.
var Running = Notification{ //nolint:gochecknoglobals // read-only payload
	Title:   "Slideshow",
	Text:    "Tap to resume",
	Ongoing: true,
}

// Publisher is the subset of *mqtt.Client a Presenter needs.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
	ClearRetained(topic string) error
}

// Logger defines the logging interface used by presenters.
type Logger interface {
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}

// Presenter publishes the notification as a retained message on the
// frame's ui/notification topic.
type Presenter struct {
	pub    Publisher
	topic  string
	logger Logger

	mu    sync.Mutex
	shown bool
}

// NewPresenter creates a presenter publishing for deviceID.
func NewPresenter(pub Publisher, deviceID string, logger Logger) *Presenter {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Presenter{
		pub:    pub,
		topic:  mqtt.Topics{DeviceID: deviceID}.UINotification(),
		logger: logger,
	}
}

// Start publishes the notification. Starting twice republishes it.
func (p *Presenter) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.pub.PublishJSON(p.topic, Running, true); err != nil {
		return wrap("publishing notification", err)
	}
	p.shown = true
	p.logger.Info("slideshow notification shown", "topic", p.topic)
	return nil
}

// Stop clears the retained notification.
func (p *Presenter) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.pub.ClearRetained(p.topic); err != nil {
		return wrap("clearing notification", err)
	}
	if p.shown {
		p.logger.Info("slideshow notification hidden", "topic", p.topic)
	}
	p.shown = false
	return nil
}

// Shown reports whether the notification is currently published.
func (p *Presenter) Shown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shown
}

func wrap(doing string, err error) error {
	if errors.Is(err, mqtt.ErrNotConnected) {
		return fmt.Errorf("%s: %w: %w", doing, ErrNotConnected, err)
	}
	return fmt.Errorf("%s: %w", doing, err)
}

// LogPresenter only logs. It is used when MQTT is disabled.
type LogPresenter struct {
	Logger Logger
}

// Start logs the notification.
func (l LogPresenter) Start() error {
	l.logger().Info("slideshow notification shown", "title", Running.Title, "text", Running.Text)
	return nil
}

// Stop logs the dismissal.
func (l LogPresenter) Stop() error {
	l.logger().Info("slideshow notification hidden")
	return nil
}

func (l LogPresenter) logger() Logger {
	if l.Logger == nil {
		return noopLogger{}
	}
	return l.Logger
}
