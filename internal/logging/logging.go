package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is a printf-style logger that tags every entry with its call site
type Logger struct {
	mu sync.Mutex
	l  *logrus.Logger
}

// New creates a logger writing text entries to stderr at info level
func New() *Logger {
	l := &Logger{l: logrus.New()}
	l.l.Out = os.Stderr
	l.l.Level = logrus.InfoLevel
	return l
}

func (l *Logger) decorate(skip int) *logrus.Entry {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return logrus.NewEntry(l.l)
	}
	path := strings.Split(file, string(os.PathSeparator))
	if len(path) > 2 {
		path = path[len(path)-2:]
	}
	return l.l.WithField("position", fmt.Sprintf("%s:%d", strings.Join(path, "/"), line)).
		WithField("func", runtime.FuncForPC(pc).Name())
}

func (l *Logger) Debug(format string, v ...any) {
	l.decorate(2).Debugf(format, v...)
}

func (l *Logger) Info(format string, v ...any) {
	l.decorate(2).Infof(format, v...)
}

func (l *Logger) Warn(format string, v ...any) {
	l.decorate(2).Warnf(format, v...)
}

func (l *Logger) Error(format string, v ...any) {
	l.decorate(2).Errorf(format, v...)
}

func (l *Logger) Fatal(format string, v ...any) {
	l.decorate(2).Fatalf(format, v...)
}

// WithFields returns an entry carrying the given structured fields
func (l *Logger) WithFields(fields map[string]any) *logrus.Entry {
	return l.l.WithFields(logrus.Fields(fields))
}

// SetLevel parses a level name such as "debug" or "warn".
func (l *Logger) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.l.SetLevel(lvl)
	return nil
}

func (l *Logger) GetLevel() string {
	return l.l.GetLevel().String()
}

func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.l.SetOutput(out)
}

// SetJSON switches between the JSON and text formatters.
func (l *Logger) SetJSON(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if enabled {
		l.l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.l.SetFormatter(&logrus.TextFormatter{})
	}
}
