// Package logger provides the console and discarding ports.Logger implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/framereader/pkg/ports"
)

// ConsoleLogger writes translated messages to stdout, warnings and errors
// to stderr. Component loggers share the writers of their parent.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	out       io.Writer
	errOut    io.Writer
	colored   bool
	mu        *sync.Mutex
}

// NewConsole creates a console logger at level.
// Color output is enabled when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	fd := os.Stdout.Fd()
	return NewConsoleTo(level, os.Stdout, os.Stderr, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewConsoleTo creates a console logger writing to out and errOut.
func NewConsoleTo(level ports.LogLevel, out, errOut io.Writer, colored bool) *ConsoleLogger {
	return &ConsoleLogger{
		level:   level,
		out:     out,
		errOut:  errOut,
		colored: colored,
		mu:      &sync.Mutex{},
	}
}

// Level returns the minimum level written.
func (l *ConsoleLogger) Level() ports.LogLevel { return l.level }

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) { l.log(ports.LevelDebug, msg, args...) }
func (l *ConsoleLogger) Info(msg string, args ...interface{})  { l.log(ports.LevelInfo, msg, args...) }
func (l *ConsoleLogger) Warn(msg string, args ...interface{})  { l.log(ports.LevelWarn, msg, args...) }
func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.log(ports.LevelError, msg, args...) }

// WithComponent returns a logger prefixing messages with component.
// Nested components are joined with a slash, as in "reader/postproc".
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	c := *l
	if l.component != "" {
		c.component = l.component + "/" + component
	} else {
		c.component = component
	}
	return &c
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	if l.level == ports.LevelQuiet || level < l.level {
		return
	}

	line := l10n.F(msg, args...)
	if l.component != "" {
		line = fmt.Sprintf("%s %s", l.paint(color.FgCyan, "["+l.component+"]"), line)
	}
	switch level {
	case ports.LevelDebug:
		line = l.paint(color.FgHiBlack, line)
	case ports.LevelWarn:
		line = l.paint(color.FgYellow, line)
	case ports.LevelError:
		line = l.paint(color.FgRed, line)
	}

	w := l.out
	if level >= ports.LevelWarn {
		w = l.errOut
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(w, line)
}

func (l *ConsoleLogger) paint(attr color.Attribute, s string) string {
	if !l.colored {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

var _ ports.Logger = (*ConsoleLogger)(nil)
