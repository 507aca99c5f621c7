package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the name of the log file created inside the log directory.
const LogFileName = "taskgraph.log"

// Logger provides structured logging with persistent attributes.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	out    *output
	attrs  []slog.Attr
}

// output owns the closable destination shared by a logger and its children.
type output struct {
	mu     sync.Mutex
	closer io.Closer
}

// NewLogger creates a Logger that writes JSON lines to {dir}/taskgraph.log.
// If dir is empty, logs go to stderr.
//
// The level parameter controls which messages are logged:
//   - DEBUG: every store mutation
//   - INFO: loads, saves and CLI lifecycle
//   - WARN: rejected mutations
//   - ERROR: I/O failures
func NewLogger(dir string, level string) (*Logger, error) {
	if dir == "" {
		return newLogger(os.Stderr, nil, level), nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return newLogger(file, file, level), nil
}

// NewLoggerWithRotation is like NewLogger but rotates {dir}/taskgraph.log
// according to cfg. dir must not be empty.
func NewLoggerWithRotation(dir string, level string, cfg RotationConfig) (*Logger, error) {
	if dir == "" {
		return nil, fmt.Errorf("log rotation requires a log directory")
	}
	rw, err := NewRotatingWriter(filepath.Join(dir, LogFileName), cfg)
	if err != nil {
		return nil, err
	}
	return newLogger(rw, rw, level), nil
}

// NewWriterLogger creates a Logger that writes JSON lines to w. Closing the
// logger does not close w.
func NewWriterLogger(w io.Writer, level string) *Logger {
	return newLogger(w, nil, level)
}

func newLogger(w io.Writer, closer io.Closer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{
		logger: slog.New(handler),
		out:    &output{closer: closer},
		attrs:  make([]slog.Attr, 0),
	}
}

// parseLevel converts a string log level to slog.Level.
// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTask returns a child Logger that adds task_id to every entry.
func (l *Logger) WithTask(taskID string) *Logger {
	return l.withAttr(slog.String(KeyTaskID, taskID))
}

// WithOperation returns a child Logger that adds operation to every entry.
// Operations are the store entry points: "create", "update_fields",
// "set_dependencies", "expand", "load".
func (l *Logger) WithOperation(op string) *Logger {
	return l.withAttr(slog.String(KeyOperation, op))
}

// With returns a child Logger with arbitrary key-value attributes.
// Keys and values are provided as alternating arguments.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	newAttrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2)
	newAttrs = append(newAttrs, l.attrs...)
	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		newAttrs = append(newAttrs, slog.Any(key, args[i+1]))
	}

	return &Logger{logger: l.logger, out: l.out, attrs: newAttrs}
}

func (l *Logger) withAttr(attr slog.Attr) *Logger {
	newAttrs := make([]slog.Attr, len(l.attrs)+1)
	copy(newAttrs, l.attrs)
	newAttrs[len(l.attrs)] = attr
	return &Logger{logger: l.logger, out: l.out, attrs: newAttrs}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}
	allArgs := make([]any, 0, len(l.attrs)*2+len(args))
	for _, attr := range l.attrs {
		allArgs = append(allArgs, attr.Key, attr.Value.Any())
	}
	allArgs = append(allArgs, args...)

	l.logger.Log(context.Background(), level, msg, allArgs...)
}

// Close flushes and closes the log destination. Loggers writing to stderr
// or a caller-owned writer have nothing to close. Closing any child closes
// the shared destination.
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.closer == nil {
		return nil
	}
	if s, ok := l.out.closer.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
	}
	if err := l.out.closer.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	l.out.closer = nil
	return nil
}

// NopLogger returns a Logger that discards all log output.
func NopLogger() *Logger {
	return newLogger(io.Discard, nil, LevelError)
}

// ParseLevel converts a string level to the corresponding constant.
// Returns LevelInfo if the level string is not recognized.
func ParseLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
