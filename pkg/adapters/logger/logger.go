package logger

import (
	"os"

	"github.com/user/timelapse/pkg/ports"
)

// New returns a logger for the given format, "console" or "json".
// Any other format falls back to console.
// JSON goes to stderr so stdout stays free for piping.
// LevelQuiet always yields a NoopLogger.
func New(format string, level ports.LogLevel) ports.Logger {
	if level == ports.LevelQuiet {
		return NewNoop()
	}
	if format == "json" {
		return NewJSON(level, os.Stderr)
	}
	return NewConsole(level)
}
