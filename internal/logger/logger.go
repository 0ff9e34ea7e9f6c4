// Package logger provides a small leveled logger.
//
// Lines are written as "[HH:MM:SS] [LEVEL] message". Level tags are coloured when the
// writer is a terminal. A nil *Logger discards everything, so components can take an
// optional logger without nil checks.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log levels, lowest first.
const (
	LevelTrace = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// Logger writes leveled, timestamped lines to a writer.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	closer   io.Closer
	level    int
	useColor bool
	now      func() time.Time
}

// New creates a Logger writing to w at the given level name.
// Unknown or empty levels default to info.
func New(w io.Writer, level string) *Logger {
	return &Logger{
		writer:   w,
		level:    ParseLevel(level),
		useColor: isTerminal(w),
		now:      time.Now,
	}
}

// NewFile opens (appending) a log file, creating its directory.
func NewFile(path, level string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l := New(file, level)
	l.closer = file
	return l, nil
}

// Close closes the underlying file, if the logger owns one.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel converts a level name to its numeric value.
func ParseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevel reports whether level names a known level.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func isTerminal(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// Tracef logs at trace level.
func (l *Logger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args...) }

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) { l.logf(LevelInfo, format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...any) { l.logf(LevelWarn, format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level int, format string, args ...any) {
	if l == nil || l.writer == nil || level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("[%s] [%s] %s\n", l.now().Format("15:04:05"), l.levelTag(level), strings.TrimRight(msg, "\n"))
	if _, err := io.WriteString(l.writer, line); err != nil {
		// Best-effort logging.
		_ = err
	}
}

func (l *Logger) levelTag(level int) string {
	name := levelName(level)
	if !l.useColor {
		return name
	}
	switch level {
	case LevelTrace:
		return color.New(color.FgHiBlack).Sprint(name)
	case LevelDebug:
		return color.New(color.FgCyan).Sprint(name)
	case LevelInfo:
		return color.New(color.FgBlue).Sprint(name)
	case LevelWarn:
		return color.New(color.FgYellow).Sprint(name)
	default:
		return color.New(color.FgRed).Sprint(name)
	}
}

func levelName(level int) string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}
