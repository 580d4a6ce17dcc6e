// Package telemetry records slideshow state transitions as time-series
// points and Prometheus gauges.
package telemetry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nerrad567/photoframe-core/internal/picture"
	"github.com/nerrad567/photoframe-core/internal/slideshow"
)

// Measurement is the InfluxDB measurement every state is written to.
const Measurement = "slideshow_state"

var (
	runningGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "photoframe_slideshow_running",
		Help: "1 while the slideshow is running.",
	}, []string{"device_id"})

	nightGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "photoframe_slideshow_paused_for_the_night",
		Help: "1 while the slideshow is paused outside the on window.",
	}, []string{"device_id"})

	pictureResults = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "photoframe_picture_results_total",
		Help: "Distinct picture results shown, by kind.",
	}, []string{"device_id", "kind"})
)

// Writer is the subset of the InfluxDB client the recorder writes through.
type Writer interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any, at time.Time)
}

// Logger is the logging surface used by the recorder.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Recorder turns a stream of slideshow states into telemetry.
type Recorder struct {
	writer   Writer
	deviceID string
	clock    clockwork.Clock
	logger   Logger
}

// NewRecorder creates a recorder. A nil writer records Prometheus metrics
// only; a nil clock uses the real clock.
func NewRecorder(w Writer, deviceID string, clock clockwork.Clock) *Recorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Recorder{
		writer:   w,
		deviceID: deviceID,
		clock:    clock,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger used for per-state debug output.
func (r *Recorder) SetLogger(l Logger) {
	if l != nil {
		r.logger = l
	}
}

// Run records every state received until states is closed or ctx is done.
func (r *Recorder) Run(ctx context.Context, states <-chan slideshow.State) {
	var last picture.Result
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			r.record(s, !picture.Equal(last, s.CurrentPictureResult))
			last = s.CurrentPictureResult
		}
	}
}

func (r *Recorder) record(s slideshow.State, newPicture bool) {
	kind := picture.KindOf(s.CurrentPictureResult)

	runningGauge.WithLabelValues(r.deviceID).Set(flag(s.IsRunning))
	nightGauge.WithLabelValues(r.deviceID).Set(flag(s.IsPausedForTheNight))
	if newPicture && s.CurrentPictureResult != nil {
		pictureResults.WithLabelValues(r.deviceID, kind).Inc()
	}

	r.logger.Debug("recording slideshow state",
		"running", s.IsRunning,
		"paused_for_the_night", s.IsPausedForTheNight,
		"picture_kind", kind,
	)

	if r.writer == nil {
		return
	}
	r.writer.WritePoint(Measurement,
		map[string]string{
			"device_id":    r.deviceID,
			"picture_kind": kind,
		},
		map[string]any{
			"is_running":              int(flag(s.IsRunning)),
			"is_paused_for_the_night": int(flag(s.IsPausedForTheNight)),
		},
		r.clock.Now(),
	)
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
