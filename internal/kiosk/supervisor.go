package kiosk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
)

// Status represents the current state of the kiosk browser.
type Status string

const (
	StatusStopped    Status = "stopped"
	StatusRunning    Status = "running"
	StatusRestarting Status = "restarting"
	StatusFailed     Status = "failed"
)

// URLPlaceholder is replaced by the viewer address in configured arguments.
const URLPlaceholder = "{url}"

const (
	defaultRestartDelay    = 5 * time.Second
	defaultMaxRestartDelay = 5 * time.Minute
	defaultStableThreshold = 2 * time.Minute
	defaultGracefulTimeout = 10 * time.Second

	// maxLineLength bounds buffered browser output without a newline.
	maxLineLength = 4096
)

var (
	// ErrNoCommand is returned by NewSupervisor without a browser command.
	ErrNoCommand = errors.New("kiosk: command is required")

	// ErrAlreadyRunning is returned by Start while a browser is supervised.
	ErrAlreadyRunning = errors.New("kiosk: browser already running")

	// ErrExited wraps every unexpected browser exit.
	ErrExited = errors.New("kiosk: browser exited")
)

// Config holds the browser command and restart policy.
type Config struct {
	// Command is the browser executable.
	Command string

	// Args are passed to Command. See ExpandArgs.
	Args []string

	// Env is appended to the parent environment (KEY=value).
	Env []string

	// RestartDelay is the first backoff step; it doubles per consecutive
	// failure up to MaxRestartDelay.
	RestartDelay    time.Duration
	MaxRestartDelay time.Duration

	// StableThreshold is how long the browser must stay up before the
	// failure count resets.
	StableThreshold time.Duration

	// MaxRestarts gives up after that many consecutive failures. 0 means
	// unlimited.
	MaxRestarts int

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration

	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Logger defines the logging interface for the supervisor.
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

// Supervisor runs the kiosk browser and restarts it when it exits.
type Supervisor struct {
	cfg    Config
	clock  clockwork.Clock
	logger Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	status    Status
	restarts  int
	lastErr   error
	startedAt time.Time
	stop      chan struct{}
	done      chan struct{}
}

// ExpandArgs replaces URLPlaceholder in every argument with url.
func ExpandArgs(args []string, url string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, URLPlaceholder, url)
	}
	return out
}

// NewSupervisor validates cfg and applies defaults for zero values.
func NewSupervisor(cfg Config) (*Supervisor, error) {
	if cfg.Command == "" {
		return nil, ErrNoCommand
	}
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = defaultRestartDelay
	}
	if cfg.MaxRestartDelay < cfg.RestartDelay {
		cfg.MaxRestartDelay = max(defaultMaxRestartDelay, cfg.RestartDelay)
	}
	if cfg.StableThreshold <= 0 {
		cfg.StableThreshold = defaultStableThreshold
	}
	if cfg.GracefulTimeout <= 0 {
		cfg.GracefulTimeout = defaultGracefulTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &Supervisor{
		cfg:    cfg,
		clock:  cfg.Clock,
		logger: noopLogger{},
		status: StatusStopped,
	}, nil
}

// SetLogger sets the logger. Call it before Start.
func (s *Supervisor) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Start launches the browser and supervises it until ctx is cancelled or
// Stop is called. A browser that cannot be launched at all is reported here
// and not retried.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	stop, done := make(chan struct{}), make(chan struct{})
	s.stop, s.done = stop, done
	s.restarts = 0
	s.lastErr = nil
	s.mu.Unlock()

	cmd, err := s.launch()
	if err != nil {
		s.mu.Lock()
		s.status = StatusFailed
		s.lastErr = err
		s.stop, s.done = nil, nil
		s.mu.Unlock()
		return err
	}

	go s.supervise(ctx, cmd, stop, done)
	return nil
}

func (s *Supervisor) launch() (*exec.Cmd, error) {
	cmd := exec.Command(s.cfg.Command, s.cfg.Args...) //nolint:gosec // command comes from the frame's own config
	// Own process group so the browser's helpers are signalled with it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if len(s.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), s.cfg.Env...)
	}
	cmd.Stdout = &lineLogger{logger: s.logger, stream: "stdout"}
	cmd.Stderr = &lineLogger{logger: s.logger, stream: "stderr"}
	cmd.WaitDelay = s.cfg.GracefulTimeout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", s.cfg.Command, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.status = StatusRunning
	s.startedAt = s.clock.Now()
	s.mu.Unlock()

	s.logger.Info("kiosk browser started", "command", s.cfg.Command, "pid", cmd.Process.Pid)
	return cmd, nil
}

func (s *Supervisor) supervise(ctx context.Context, cmd *exec.Cmd, stop, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.stop, s.done = nil, nil
		s.mu.Unlock()
		close(done)
	}()

	for {
		exited := make(chan error, 1)
		go func() { exited <- cmd.Wait() }()

		var err error
		select {
		case err = <-exited:
		case <-ctx.Done():
			s.terminate(cmd, exited)
			s.setStatus(StatusStopped)
			return
		case <-stop:
			s.terminate(cmd, exited)
			s.setStatus(StatusStopped)
			return
		}

		ranFor := s.clock.Since(s.startedAtSnapshot())
		for {
			attempt, ok := s.recordFailure(err, ranFor)
			if !ok {
				return
			}

			delay := s.backoff(attempt)
			s.logger.Warn("kiosk browser exited, restarting",
				"error", err,
				"attempt", attempt,
				"delay", delay,
			)

			select {
			case <-ctx.Done():
				s.setStatus(StatusStopped)
				return
			case <-stop:
				s.setStatus(StatusStopped)
				return
			case <-s.clock.After(delay):
			}

			cmd, err = s.launch()
			if err == nil {
				break
			}
			s.logger.Error("relaunching kiosk browser failed", "error", err)
			ranFor = 0
		}
	}
}

// recordFailure counts a failed run and reports whether to try again.
func (s *Supervisor) recordFailure(err error, ranFor time.Duration) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ranFor >= s.cfg.StableThreshold {
		s.restarts = 0
	}
	s.restarts++
	if err != nil {
		s.lastErr = fmt.Errorf("%w: %w", ErrExited, err)
	} else {
		s.lastErr = ErrExited
	}

	if s.cfg.MaxRestarts > 0 && s.restarts > s.cfg.MaxRestarts {
		s.status = StatusFailed
		s.logger.Error("kiosk browser keeps failing, giving up",
			"failures", s.restarts,
			"error", s.lastErr,
		)
		return s.restarts, false
	}
	s.status = StatusRestarting
	return s.restarts, true
}

// backoff doubles RestartDelay per consecutive failure, capped at
// MaxRestartDelay.
func (s *Supervisor) backoff(attempt int) time.Duration {
	delay := s.cfg.RestartDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= s.cfg.MaxRestartDelay {
			return s.cfg.MaxRestartDelay
		}
	}
	return delay
}

// terminate sends SIGTERM to the browser's process group, then SIGKILL once
// GracefulTimeout has passed.
func (s *Supervisor) terminate(cmd *exec.Cmd, exited <-chan error) {
	pid := cmd.Process.Pid
	s.logger.Info("stopping kiosk browser", "pid", pid)

	// A negative pid signals the whole group.
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		s.logger.Warn("signalling kiosk browser failed", "error", err)
	}

	select {
	case <-exited:
		return
	case <-s.clock.After(s.cfg.GracefulTimeout):
		s.logger.Warn("kiosk browser ignored SIGTERM, killing", "timeout", s.cfg.GracefulTimeout)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		s.logger.Error("killing kiosk browser failed", "error", err)
	}
	<-exited
}

// Stop terminates the browser and waits for supervision to end. It is a
// no-op when nothing is running.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop = nil
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	if stop != nil {
		close(stop)
	}
	<-done
	return nil
}

func (s *Supervisor) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Supervisor) startedAtSnapshot() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// Status returns the current status of the browser.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Restarts returns the consecutive failure count.
func (s *Supervisor) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

// PID returns the browser's process ID, or 0 if it is not running.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning || s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// HealthCheck reports an error unless the browser is running.
func (s *Supervisor) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kiosk health check: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusRunning {
		return nil
	}
	if s.lastErr != nil {
		return fmt.Errorf("kiosk browser %s: %w", s.status, s.lastErr)
	}
	return fmt.Errorf("kiosk browser %s", s.status)
}

// lineLogger logs browser output one line at a time.
type lineLogger struct {
	logger Logger
	stream string
	buf    []byte
}

func (w *lineLogger) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) >= maxLineLength {
		w.emit(w.buf)
		w.buf = w.buf[:0]
	}
	return len(p), nil
}

func (w *lineLogger) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	w.logger.Debug("kiosk browser output", "stream", w.stream, "line", string(line))
}
