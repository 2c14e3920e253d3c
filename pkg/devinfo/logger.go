package devinfo

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging interface used across go-devinfo.
// It follows the slog-style signature so any structured logger fits.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps a *slog.Logger to implement Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a Logger from a *slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// With returns an adapter that adds the given attributes to every record.
func (s *SlogAdapter) With(args ...any) *SlogAdapter {
	return &SlogAdapter{logger: s.logger.With(args...)}
}

// DefaultLogger logs text to stderr at Info level.
func DefaultLogger() Logger {
	return TextLogger(os.Stderr, slog.LevelInfo)
}

// DebugLogger logs text to stderr at Debug level with source locations.
func DebugLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// TextLogger logs in slog's key=value text format.
func TextLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogAdapter{logger: slog.New(handler)}
}

// JSONLogger logs one JSON object per record.
func JSONLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogAdapter{logger: slog.New(handler)}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog.Level.
// Unknown names map to Info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger()
	}
	return l
}
