// Package ports declares the interfaces the time-lapse core depends on.
// Adapters under pkg/adapters implement them.
package ports

import (
	"fmt"
	"strings"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for per-frame and per-component detail.
	LevelDebug LogLevel = iota
	// LevelInfo is for build-level progress.
	LevelInfo
	// LevelWarn is for recoverable problems such as an encoder fallback.
	LevelWarn
	// LevelError is for problems that end a build.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a level name. Unknown names are an error.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "quiet", "none":
		return LevelQuiet, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger abstracts logging with translatable, printf-style messages.
// The msg parameter is a lexicon key; args fill its verbs.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that tags messages with the component name.
	WithComponent(component string) Logger
}
