package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// LogLevel represents logging verbosity levels.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelDebug
)

// logTimeFormat is the timestamp layout of file log lines.
const logTimeFormat = "2006-01-02 15:04:05.000"

// ParseLogLevel parses a log level string. Unknown values mean error.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "error":
		return LogLevelError
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelError:
		return "error"
	case LogLevelDebug:
		return "debug"
	default:
		return "error"
	}
}

// charmLevel maps a LogLevel to the backend level.
func (l LogLevel) charmLevel() log.Level {
	if l == LogLevelDebug {
		return log.DebugLevel
	}
	return log.ErrorLevel
}

// Logger writes leveled log lines to a file through charmbracelet/log. It
// satisfies the chain packages' LogWriter. The zero value discards output.
type Logger struct {
	mu      sync.Mutex
	level   LogLevel
	file    *os.File
	backend *log.Logger
}

// NewLogger creates a logger appending to filePath. With level off or an
// empty path nothing is opened and all output is discarded.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	logger := &Logger{level: level}
	if level == LogLevelOff || filePath == "" {
		return logger, nil
	}

	filePath, err := ExpandHome(filePath)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	logger.file = f
	logger.backend = newBackend(f, level)
	return logger, nil
}

// NewWriterLogger creates a logger writing to w, typically stderr for
// --verbose runs.
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	logger := &Logger{level: level}
	if level != LogLevelOff && w != nil {
		logger.backend = newBackend(w, level)
	}
	return logger
}

func newBackend(w io.Writer, level LogLevel) *log.Logger {
	backend := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Prefix:          "gateway",
	})
	backend.SetLevel(level.charmLevel())
	return backend
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.backend = nil
		return err
	}
	return nil
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	if l.backend != nil {
		l.backend.SetLevel(level.charmLevel())
	}
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetJSONOutput switches between text and JSON lines.
func (l *Logger) SetJSONOutput(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.backend == nil {
		return
	}
	if enabled {
		l.backend.SetFormatter(log.JSONFormatter)
	} else {
		l.backend.SetFormatter(log.TextFormatter)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.logf(LogLevelDebug, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.logf(LogLevelError, format, args...)
}

// DebugKV logs msg with structured key/value pairs at debug level.
func (l *Logger) DebugKV(msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enabled(LogLevelDebug) {
		l.backend.Debug(msg, keyvals...)
	}
}

// ErrorKV logs msg with structured key/value pairs at error level.
func (l *Logger) ErrorKV(msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enabled(LogLevelError) {
		l.backend.Error(msg, keyvals...)
	}
}

// Writer returns an io.Writer that logs each write at level.
func (l *Logger) Writer(level LogLevel) io.Writer {
	return &logWriter{logger: l, level: level}
}

func (l *Logger) logf(level LogLevel, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled(level) {
		return
	}
	if level == LogLevelDebug {
		l.backend.Debugf(format, args...)
		return
	}
	l.backend.Errorf(format, args...)
}

// enabled reports whether a message at level is written. Callers hold mu.
func (l *Logger) enabled(level LogLevel) bool {
	return l.backend != nil && l.level != LogLevelOff && level <= l.level
}

type logWriter struct {
	logger *Logger
	level  LogLevel
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.logger.logf(w.level, "%s", strings.TrimSpace(string(p)))
	return len(p), nil
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{level: LogLevelOff}
}
