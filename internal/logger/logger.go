package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger used across todosync. Extra arguments
// are alternating key/value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

var (
	mu  sync.RWMutex
	std = newBase(os.Stderr)
)

func newBase(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return l
}

// Configure sets the global verbosity. --verbose shows everything,
// --debug shows info and above, the default is warnings and errors only.
func Configure(debug, verbose bool) {
	level := logrus.WarnLevel
	switch {
	case verbose:
		level = logrus.DebugLevel
	case debug:
		level = logrus.InfoLevel
	}

	mu.Lock()
	std.SetLevel(level)
	mu.Unlock()
}

// SetOutput redirects global log output.
func SetOutput(w io.Writer) {
	mu.Lock()
	std.SetOutput(w)
	mu.Unlock()
}

// Default returns the global logger.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &entryLogger{entry: logrus.NewEntry(std)}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &entryLogger{entry: logrus.NewEntry(l)}
}

// New wraps an existing logrus logger.
func New(l *logrus.Logger) Logger {
	return &entryLogger{entry: logrus.NewEntry(l)}
}

func Debug(msg string, keysAndValues ...interface{}) { Default().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...interface{})  { Default().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...interface{})  { Default().Warn(msg, keysAndValues...) }
func Error(msg string, keysAndValues ...interface{}) { Default().Error(msg, keysAndValues...) }

// WithField returns the global logger with one field attached.
func WithField(key string, value interface{}) Logger {
	return Default().WithField(key, value)
}

// WithFields returns the global logger with fields attached.
func WithFields(fields map[string]interface{}) Logger {
	return Default().WithFields(fields)
}

type entryLogger struct {
	entry *logrus.Entry
}

func (l *entryLogger) with(keysAndValues []interface{}) *logrus.Entry {
	if len(keysAndValues) == 0 {
		return l.entry
	}
	fields := make(logrus.Fields, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 >= len(keysAndValues) {
			fields[key] = "(MISSING)"
			break
		}
		fields[key] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}

func (l *entryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l *entryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Info(msg)
}

func (l *entryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l *entryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Error(msg)
}

func (l *entryLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{entry: l.entry.WithField(key, value)}
}

func (l *entryLogger) WithFields(fields map[string]interface{}) Logger {
	return &entryLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}
