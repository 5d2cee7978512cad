//go:build linux

// Package stderr captures stderr output from C audio libraries (ALSA) that
// write directly to file descriptor 2, bypassing Go's os.Stderr, and routes
// it into the structured log.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

var (
	mu        sync.Mutex
	orig      *os.File
	pipeRead  *os.File
	pipeWrite *os.File
	started   bool
)

// Start begins capturing fd 2. It returns a handle on the original stderr
// for the process logger; writing to os.Stderr after Start feeds the capture.
// If capture cannot be set up the original os.Stderr is returned with the
// error and the program can continue without capture.
func Start() (*os.File, error) {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return orig, nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return os.Stderr, err
	}

	// Save original stderr file descriptor
	fd, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return os.Stderr, err
	}

	// Redirect stderr (fd 2) to the pipe's write end
	if err := unix.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		_ = unix.Close(fd)
		r.Close()
		w.Close()
		return os.Stderr, err
	}

	orig = os.NewFile(uintptr(fd), "stderr")
	pipeRead = r
	pipeWrite = w
	started = true
	return orig, nil
}

// Forward logs every captured line at debug level until Stop.
func Forward(logger *log.Logger) {
	mu.Lock()
	r := pipeRead
	mu.Unlock()
	if r == nil {
		return
	}

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && logger != nil {
				logger.Debug("audio backend", "msg", line)
			}
		}
	}()
}

// Stop restores the original stderr. Should be called on program exit.
func Stop() {
	mu.Lock()
	defer mu.Unlock()
	if !started {
		return
	}

	// Restore original stderr
	_ = unix.Dup2(int(orig.Fd()), int(os.Stderr.Fd()))
	orig.Close()

	// Close pipe
	pipeWrite.Close()
	pipeRead.Close()

	orig, pipeRead, pipeWrite = nil, nil, nil
	started = false
}
