package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Log levels accepted by ParseLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Logger is a concurrency-safe, levelled structured logger. The level can be
// changed after construction (see SetLevel), which the config watcher uses.
type Logger struct {
	mu    sync.Mutex
	inner *slog.Logger
	level *slog.LevelVar
	file  *os.File
}

// NewLogger creates a logger writing to stderr and, if logFilePath is set, to
// that file in append mode. format is "text" or "json".
//
// stdout is never used: it carries the outbound outlet.
func NewLogger(level, format, logFilePath string) (*Logger, error) {
	writers := []io.Writer{os.Stderr}

	var f *os.File
	if logFilePath != "" {
		var err error
		f, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", logFilePath, err)
		}
		writers = append(writers, f)
	}

	l := newLogger(io.MultiWriter(writers...), level, format)
	l.file = f
	return l, nil
}

// NewWriterLogger creates a logger on an arbitrary writer. Tests use it to
// capture output.
func NewWriterLogger(w io.Writer, level, format string) *Logger {
	return newLogger(w, level, format)
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return newLogger(io.Discard, LevelError, "text")
}

func newLogger(w io.Writer, level, format string) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(ParseLevel(level))

	opts := &slog.HandlerOptions{Level: lv}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{inner: slog.New(h), level: lv}
}

// ParseLevel converts a level name to slog.Level, defaulting to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn, "warning":
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the minimum level of this logger and every child created
// with With.
func (l *Logger) SetLevel(level string) {
	l.level.Set(ParseLevel(level))
}

// With returns a child logger carrying extra key/value attributes.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{inner: l.inner.With(args...), level: l.level, file: l.file}
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// Report logs err at the severity its kind calls for. Validation and
// precondition failures are warnings, everything else is an error.
func (l *Logger) Report(err error, args ...any) {
	if err == nil {
		return
	}
	args = append(args, "kind", KindOf(err).String(), "err", err.Error())
	switch KindOf(err) {
	case KindValidation, KindPrecondition:
		l.Warn("event rejected", args...)
	default:
		l.Error("operation failed", args...)
	}
}

func (l *Logger) log(lvl slog.Level, msg string, args ...any) {
	l.inner.Log(context.Background(), lvl, msg, args...)
}
