// Package logging builds the structured loggers shared by all components.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w with timestamps enabled.
// The writer defaults to os.Stderr and an unknown level falls back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "wavesd",
	})
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps a config string to a log level.
func ParseLevel(level string) log.Level {
	if level == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Component returns a child logger tagged with a component name.
func Component(l *log.Logger, name string) *log.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With("component", name)
}

// Discard returns a logger that drops everything; used as the nil default.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
