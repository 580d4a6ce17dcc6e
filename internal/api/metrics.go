package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nerrad567/photoframe-core/internal/slideshow"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "photoframe_http_request_duration_seconds",
		Help:    "API request latency by route and status.",
		Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method", "route", "status"})
	wsClients = promauto.NewGauge(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "photoframe_websocket_clients",
		Help: "Connected WebSocket viewers.",
	})
	wsDropped = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "photoframe_websocket_dropped_events_total",
		Help: "Events not delivered because a viewer's queue was full.",
	}, []string{"channel"})
)

// SystemMetrics is the JSON summary served by GET /system. Counters and
// latencies are on the Prometheus endpoint.
type SystemMetrics struct {
	Timestamp     time.Time          `json:"timestamp"`
	Version       string             `json:"version"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Runtime       RuntimeMetrics     `json:"runtime"`
	WebSocket     WSMetrics          `json:"websocket"`
	MQTT          *MQTTMetrics       `json:"mqtt,omitempty"`
	Slideshow     slideshow.Snapshot `json:"slideshow"`
}

// RuntimeMetrics is a small slice of runtime.MemStats.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

func toMB(b uint64) float64 { return float64(b) / (1 << 20) }

func (s *Server) handleSystemMetrics(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	out := SystemMetrics{
		Timestamp:     time.Now().UTC(),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: toMB(mem.Alloc),
			MemoryTotalMB: toMB(mem.TotalAlloc),
			NumGC:         mem.NumGC,
		},
		WebSocket: WSMetrics{ConnectedClients: s.hub.ClientCount()},
		Slideshow: slideshow.SnapshotOf(s.slideshow.State()),
	}
	if s.mqtt != nil {
		out.MQTT = &MQTTMetrics{Connected: s.mqtt.IsConnected()}
	}

	writeJSON(w, http.StatusOK, out)
}
