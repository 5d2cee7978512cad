//go:build !linux

// Package stderr is a no-op outside Linux, where audio backends do not
// write to fd 2.
package stderr

import (
	"os"

	"github.com/charmbracelet/log"
)

// Start returns os.Stderr unchanged.
func Start() (*os.File, error) {
	return os.Stderr, nil
}

// Forward is a no-op.
func Forward(_ *log.Logger) {}

// Stop is a no-op.
func Stop() {}
