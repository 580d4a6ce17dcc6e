package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/photoframe-core/internal/infrastructure/config"
)

// serviceName tags every record so frame logs can be picked out of a shared
// collector.
const serviceName = "photoframe"

// Logger is a slog.Logger whose level can be changed while the frame runs.
//
// Loggers derived with With or Component share their parent's level, so one
// SetLevel call affects the whole process.
type Logger struct {
	*slog.Logger
	level      *slog.LevelVar
	configured slog.Level
}

// New builds the process logger from the logging section, writing to stdout
// unless output is "stderr".
func New(cfg config.LoggingConfig, version string) *Logger {
	w := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		w = os.Stderr
	}
	return NewWithWriter(cfg, version, w)
}

// NewWithWriter is New with an explicit destination; cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	configured := parseLevel(cfg.Level)
	level := new(slog.LevelVar)
	level.Set(configured)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler).With(
			slog.String("service", serviceName),
			slog.String("version", version),
		),
		level:      level,
		configured: configured,
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying args on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level, configured: l.configured}
}

// Component is shorthand for With("component", name).
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Level reports the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// SetLevel changes the minimum level for this logger and every logger
// derived from the same root. Unknown names mean info.
func (l *Logger) SetLevel(level string) {
	l.level.Set(parseLevel(level))
}

// ToggleDebug switches between debug and the configured level and returns
// the level now in force.
func (l *Logger) ToggleDebug() slog.Level {
	next := slog.LevelDebug
	if l.level.Level() == slog.LevelDebug {
		next = l.configured
	}
	l.level.Set(next)
	return next
}

// Default is the logger used before the config file has been read: JSON on
// stdout at info.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
