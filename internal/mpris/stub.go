//go:build !linux

package mpris

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavesd/internal/remote"
)

// Commands is the control surface MPRIS calls are forwarded to.
type Commands interface {
	Play()
	Pause()
	PlayPause()
	Stop()
	SeekTo(pos time.Duration)
	Seek(offset time.Duration)
	Position() time.Duration
}

// Server is a no-op on non-Linux platforms.
type Server struct{}

// New returns a no-op server on non-Linux platforms.
func New(_ string, _ Commands, _ *log.Logger) (*Server, error) {
	return &Server{}, nil
}

// Publish is a no-op on non-Linux platforms.
func (s *Server) Publish(_ remote.Metadata) {}

// Close is a no-op on non-Linux platforms.
func (s *Server) Close() error {
	return nil
}
