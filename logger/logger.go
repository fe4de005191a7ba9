// Package logger provides leveled logging (debug/info/warning/error) on top of the
// standard library logger.
package logger

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Level is a logging threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// ParseLevel converts a level name ("debug", "info", "warning", "error").
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, errors.Errorf("unknown log level %q", name)
}

// Logger writes leveled entries. Entries below the configured level are dropped.
type Logger struct {
	level      Level
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	mu         sync.Mutex
}

// New creates a Logger writing debug, info and warning entries to out and errors to
// errOut.
func New(level Level, out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		level:      level,
		debugLog:   log.New(out, "DEBUG   ", flags),
		infoLog:    log.New(out, "INFO    ", flags),
		warningLog: log.New(out, "WARNING ", flags),
		errorLog:   log.New(errOut, "ERROR   ", flags),
	}
}

// NewStd creates a Logger on stdout and stderr.
func NewStd(level Level) *Logger {
	return New(level, os.Stdout, os.Stderr)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(LevelError+1, io.Discard, io.Discard)
}

// Level returns the configured threshold.
func (l *Logger) Level() Level {
	return l.level
}

// DebugEnabled reports whether debug entries are written.
func (l *Logger) DebugEnabled() bool {
	return l != nil && l.level <= LevelDebug
}

func (l *Logger) output(level Level, target *log.Logger, format string, v ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// Skip output and the level helper so Lshortfile reports the caller.
	_ = target.Output(3, sprintf(format, v...))
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.output(LevelDebug, l.debugLog, format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.output(LevelInfo, l.infoLog, format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.output(LevelWarning, l.warningLog, format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.output(LevelError, l.errorLog, format, v...)
}
