package mocks

import (
	"fmt"
	"sync"

	"github.com/user/timelapse/pkg/ports"
)

// LogEntry is a single recorded log call.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string
}

// Logger is a ports.Logger that records formatted messages for assertions.
type Logger struct {
	mu        *sync.Mutex
	entries   *[]LogEntry
	component string
}

// NewLogger creates an empty recording logger.
func NewLogger() *Logger {
	return &Logger{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (l *Logger) record(level ports.LogLevel, msg string, args []interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, LogEntry{Level: level, Component: l.component, Message: msg})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.record(ports.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.record(ports.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.record(ports.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.record(ports.LevelError, msg, args) }

// WithComponent returns a logger sharing the same record.
func (l *Logger) WithComponent(component string) ports.Logger {
	return &Logger{mu: l.mu, entries: l.entries, component: component}
}

// Entries returns every entry at or above level.
func (l *Logger) Entries(level ports.LogLevel) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range *l.entries {
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}

var _ ports.Logger = (*Logger)(nil)
