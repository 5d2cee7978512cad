package session

import (
	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/inhibit"
)

// host maps foreground promotion onto a sleep inhibitor lock and
// self-stop onto an asynchronous teardown.
type host struct {
	inhibitor inhibit.Inhibitor
	stop      func()
	logger    *log.Logger
}

func (h *host) StartForeground() error {
	return h.inhibitor.Acquire("Playing music")
}

func (h *host) StopForeground(remove bool) {
	if err := h.inhibitor.Release(); err != nil {
		h.logger.Warn(errmsg.Format(errmsg.OpForegroundStop, err))
	}
	if remove {
		h.logger.Debug("foreground left, notification removed")
	}
}

// StopSelf runs teardown on its own goroutine so the dismissal watcher
// returns first.
func (h *host) StopSelf() {
	go h.stop()
}
