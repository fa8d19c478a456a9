// Package logger provides ports.Logger implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/timelapse/pkg/ports"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// ConsoleLogger writes translated, human-readable lines.
// Warnings and errors go to the error stream, everything else to out.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	color     bool

	mu     *sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewConsole creates a console logger on stdout/stderr.
// Color output is enabled when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	fd := os.Stdout.Fd()
	return NewConsoleWriter(level, os.Stdout, os.Stderr, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewConsoleWriter creates a console logger on explicit writers.
func NewConsoleWriter(level ports.LogLevel, out, errOut io.Writer, color bool) *ConsoleLogger {
	return &ConsoleLogger{
		level:  level,
		color:  color,
		mu:     &sync.Mutex{},
		out:    out,
		errOut: errOut,
	}
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(ports.LevelDebug, msg, args...)
}

func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(ports.LevelInfo, msg, args...)
}

func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(ports.LevelWarn, msg, args...)
}

func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a logger that prefixes lines with [component].
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	c := *l
	c.component = component
	return &c
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	if level < l.level || l.level == ports.LevelQuiet {
		return
	}

	translated := l10n.F(msg, args...)

	output := translated
	if l.component != "" {
		if l.color {
			output = fmt.Sprintf("%s[%s]%s %s", colorCyan, l.component, colorReset, translated)
		} else {
			output = fmt.Sprintf("[%s] %s", l.component, translated)
		}
	}

	if l.color {
		switch level {
		case ports.LevelDebug:
			output = colorGray + output + colorReset
		case ports.LevelWarn:
			output = colorYellow + output + colorReset
		case ports.LevelError:
			output = colorRed + output + colorReset
		}
	}

	w := l.out
	if level >= ports.LevelWarn {
		w = l.errOut
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(w, output)
}

var _ ports.Logger = (*ConsoleLogger)(nil)
