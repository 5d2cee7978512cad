//go:build linux

package inhibit

import (
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	logindDest   = "org.freedesktop.login1"
	logindPath   = "/org/freedesktop/login1"
	logindMethod = "org.freedesktop.login1.Manager.Inhibit"
)

// logind holds a "sleep:idle" block lock from systemd-logind. The lock is
// tied to the returned file descriptor and released by closing it.
type logind struct {
	mu   sync.Mutex
	obj  dbus.BusObject
	who  string
	lock *os.File
}

// New creates an Inhibitor backed by logind on the system bus.
// Returns a Noop inhibitor if the system bus is unavailable.
func New(who string) Inhibitor {
	conn, err := dbus.SystemBus()
	if err != nil {
		return &Noop{}
	}
	return &logind{obj: conn.Object(logindDest, logindPath), who: who}
}

func (l *logind) Acquire(why string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lock != nil {
		return nil
	}

	// Inhibit(what, who, why, mode) -> fd
	call := l.obj.Call(logindMethod, 0, "sleep:idle", l.who, why, "block")
	if call.Err != nil {
		return call.Err
	}
	var fd dbus.UnixFD
	if err := call.Store(&fd); err != nil {
		return err
	}
	l.lock = os.NewFile(uintptr(fd), "logind-inhibit")
	return nil
}

func (l *logind) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lock == nil {
		return nil
	}
	err := l.lock.Close()
	l.lock = nil
	return err
}

func (l *logind) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lock != nil
}
