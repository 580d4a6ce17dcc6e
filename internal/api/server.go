package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/photoframe-core/internal/infrastructure/config"
	"github.com/nerrad567/photoframe-core/internal/infrastructure/logging"
	"github.com/nerrad567/photoframe-core/internal/slideshow"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Slideshow is the controller surface the API drives.
type Slideshow interface {
	Start(width, height int)
	Tap()
	State() slideshow.State
	Observe(ctx context.Context) <-chan slideshow.State
}

// Library summarises the media index.
type Library interface {
	Count(ctx context.Context) (int, error)
	Folders(ctx context.Context) ([]string, error)
}

// HealthChecker is implemented by every infrastructure client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// MQTTStatus reports the broker connection for the system metrics endpoint.
type MQTTStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Display   config.DisplayConfig
	Logger    *logging.Logger
	Slideshow Slideshow

	// Library is optional; GET /library answers 503 without it.
	Library Library

	// Checks are optional named dependencies reported by GET /health.
	Checks map[string]HealthChecker

	// MQTT is optional and only feeds the system metrics endpoint.
	MQTT MQTTStatus

	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	Version string
}

// Server is the HTTP API server for the photo frame.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	display   config.DisplayConfig
	logger    *logging.Logger
	slideshow Slideshow
	library   Library
	checks    map[string]HealthChecker
	mqtt      MQTTStatus
	gatherer  prometheus.Gatherer
	version   string
	startTime time.Time
	server    *http.Server
	listener  net.Listener
	hub       *Hub
	cancel    context.CancelFunc // cancels background goroutines on Close()
	done      chan struct{}
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, slideshow) plus optional ones
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Slideshow == nil {
		return nil, fmt.Errorf("slideshow is required")
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		display:   deps.Display,
		logger:    deps.Logger,
		slideshow: deps.Slideshow,
		library:   deps.Library,
		checks:    deps.Checks,
		mqtt:      deps.MQTT,
		gatherer:  gatherer,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       NewHub(deps.Logger),
	}
	s.hub.SetReplay(s.replayState)

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, relays slideshow state changes to it, and
// launches the HTTP listener in a background goroutine. The listener is
// bound before Start returns so a port conflict is reported here.
//
// Parameters:
//   - ctx: Parent context for the hub and the state relay
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	srvCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		cancel()
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	go s.hub.Run(srvCtx)

	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.relayStates(srvCtx)
	}()

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.Timeouts.Read,
		ReadHeaderTimeout: s.cfg.Timeouts.Read,
		WriteTimeout:      s.cfg.Timeouts.Write,
		IdleTimeout:       s.cfg.Timeouts.Idle,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// relayStates broadcasts every slideshow state to WebSocket subscribers.
func (s *Server) relayStates(ctx context.Context) {
	for st := range s.slideshow.Observe(ctx) {
		s.hub.Broadcast(ChannelSlideshowState, slideshow.SnapshotOf(st))
	}
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
