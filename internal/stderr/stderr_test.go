//go:build linux

package stderr

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestStartForwardStop(t *testing.T) {
	orig, err := Start()
	if err != nil {
		t.Skipf("stderr capture unavailable: %v", err)
	}
	defer Stop()
	if orig == nil {
		t.Fatal("Start() returned nil original stderr")
	}

	var buf safeBuffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	Forward(logger)

	if _, err := os.Stderr.WriteString("ALSA lib pcm.c: underrun\n"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !bytes.Contains(buf.Bytes(), []byte("underrun")) {
		if time.Now().After(deadline) {
			t.Fatalf("captured line not logged, got %q", buf.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	again, err := Start()
	if err != nil || again != orig {
		t.Errorf("second Start() = %v, %v; want original handle", again, err)
	}
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func (b *safeBuffer) String() string {
	return string(b.Bytes())
}
