package utils

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel enumerates severity tiers.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l LogLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLogLevel maps a config string ("debug", "info", ...) to a LogLevel.
// Unknown names fall back to INFO.
func ParseLogLevel(s string) LogLevel {
	for i, n := range levelNames {
		if strings.EqualFold(s, n) {
			return LogLevel(i)
		}
	}
	if strings.EqualFold(s, "warning") {
		return WARN
	}
	return INFO
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	case FATAL:
		return logrus.FatalLevel
	}
	return logrus.InfoLevel
}

// Logger is the levelled logger used across the pipeline.
type Logger struct {
	mu    sync.Mutex
	inner *logrus.Logger
	file  *os.File
}

var (
	globalLogger *Logger
	logOnce      sync.Once
)

// InitLogger creates the singleton logger. Call once at startup.
func InitLogger(minLevel LogLevel, logFilePath string) *Logger {
	logOnce.Do(func() {
		inner := logrus.New()
		inner.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		inner.SetLevel(minLevel.logrus())

		writers := []io.Writer{os.Stdout}
		var f *os.File
		if logFilePath != "" {
			var err error
			f, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				writers = append(writers, f)
			} else {
				inner.Warnf("could not open log file %s: %v", logFilePath, err)
			}
		}
		inner.SetOutput(io.MultiWriter(writers...))

		globalLogger = &Logger{inner: inner, file: f}
	})
	return globalLogger
}

// NewLogger wraps an existing logrus logger. Useful for tests and embedding.
func NewLogger(inner *logrus.Logger) *Logger {
	return &Logger{inner: inner}
}

// SetLogger replaces the global logger.
func SetLogger(l *Logger) {
	logOnce.Do(func() {})
	globalLogger = l
}

// L returns the global logger, initialising a stdout logger at INFO if needed.
func L() *Logger {
	if globalLogger == nil {
		return InitLogger(INFO, "")
	}
	return globalLogger
}

// Quiet suppresses everything below ERROR.
func (l *Logger) Quiet() {
	l.mu.Lock()
	l.inner.SetLevel(ERROR.logrus())
	l.mu.Unlock()
}

// Close closes the log file, if any.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

// Enabled reports whether messages at lvl are emitted.
func (l *Logger) Enabled(lvl LogLevel) bool {
	return l.inner.IsLevelEnabled(lvl.logrus())
}

func (l *Logger) Debug(f string, a ...any) { l.inner.Debugf(f, a...) }
func (l *Logger) Info(f string, a ...any)  { l.inner.Infof(f, a...) }
func (l *Logger) Warn(f string, a ...any)  { l.inner.Warnf(f, a...) }
func (l *Logger) Error(f string, a ...any) { l.inner.Errorf(f, a...) }
func (l *Logger) Fatal(f string, a ...any) { l.inner.Fatalf(f, a...) }
