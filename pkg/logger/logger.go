package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/umeshrajanna/deepship-api/pkg/config"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger writes leveled key/value records to a log file
type Logger struct {
	zl   zerolog.Logger
	file *os.File
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// Init initializes the default logger from the global config
func Init() error {
	mu.RLock()
	ready := defaultLogger != nil
	mu.RUnlock()
	if ready {
		return nil
	}

	settings := config.Get()
	l, err := New(ParseLevel(settings.Logging.Level), settings.Logging.LogFile, settings.Logging.Preserve)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return nil
}

// New creates a Logger writing to logFile. The file is truncated unless
// preserve is set.
func New(level LogLevel, logFile string, preserve bool) (*Logger, error) {
	logPath := logFile
	if !filepath.IsAbs(logPath) {
		logPath = config.BuildSettingsPath(filepath.Base(logPath))
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if preserve {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	file, err := os.OpenFile(logPath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWithWriter(level, file)
	l.file = file
	return l, nil
}

// NewWithWriter creates a Logger over an arbitrary writer
func NewWithWriter(level LogLevel, w io.Writer) *Logger {
	return &Logger{
		zl: zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger(),
	}
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// ParseLevel converts a string level to LogLevel
func ParseLevel(levelStr string) LogLevel {
	switch levelStr {
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

// With returns a child logger carrying the given key/value pairs
func (l *Logger) With(keyvals ...any) *Logger {
	ctx := l.zl.With()
	for i := 0; i < len(keyvals); i += 2 {
		key, val := pair(keyvals, i)
		ctx = ctx.Interface(key, val)
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.write(l.zl.Debug(), msg, keyvals) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.write(l.zl.Info(), msg, keyvals) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.write(l.zl.Warn(), msg, keyvals) }
func (l *Logger) Error(msg string, keyvals ...any) { l.write(l.zl.Error(), msg, keyvals) }

func (l *Logger) write(e *zerolog.Event, msg string, keyvals []any) {
	if e == nil {
		return
	}
	for i := 0; i < len(keyvals); i += 2 {
		key, val := pair(keyvals, i)
		if err, ok := val.(error); ok {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, val)
	}
	e.Msg(msg)
}

func pair(keyvals []any, i int) (string, any) {
	key := fmt.Sprint(keyvals[i])
	if i+1 >= len(keyvals) {
		return "EXTRA", keyvals[i]
	}
	return key, keyvals[i+1]
}

var nop = &Logger{zl: zerolog.Nop()}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	if defaultLogger == nil {
		return nop
	}
	return defaultLogger
}

// WithComponent returns a logger tagged with the component name. Calls made
// before Init are discarded.
func WithComponent(name string) *Logger {
	return current().With("component", name)
}

// Debug logs a debug message using the default logger
func Debug(msg string, keyvals ...any) { current().Debug(msg, keyvals...) }

// Info logs an info message using the default logger
func Info(msg string, keyvals ...any) { current().Info(msg, keyvals...) }

// Warn logs a warning message using the default logger
func Warn(msg string, keyvals ...any) { current().Warn(msg, keyvals...) }

// Error logs an error message using the default logger
func Error(msg string, keyvals ...any) { current().Error(msg, keyvals...) }

// SetOutput replaces the default logger with one writing to w (useful for testing)
func SetOutput(w io.Writer, level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = NewWithWriter(level, w)
}

// Close closes the default logger
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return nil
	}
	err := defaultLogger.Close()
	defaultLogger = nil
	return err
}
