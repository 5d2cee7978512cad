package player

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_PreservesOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := newEmitter()

		// Producer never blocks even when nobody reads.
		for i := range 100 {
			e.emit(Event{Position: time.Duration(i)})
		}

		for i := range 100 {
			ev := <-e.out
			if ev.Position != time.Duration(i) {
				t.Fatalf("event %d has position %v", i, ev.Position)
			}
		}

		e.close()
		synctest.Wait()
		if _, ok := <-e.out; ok {
			t.Error("expected out closed after close")
		}
	})
}

func TestEmitter_EmitAfterCloseIsDropped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e := newEmitter()
		e.close()
		e.close()
		e.emit(Event{IsPlaying: true})
		synctest.Wait()
		if _, ok := <-e.out; ok {
			t.Error("expected no events after close")
		}
	})
}

func TestEngineFault_Error(t *testing.T) {
	base := errors.New("boom")
	f := &EngineFault{Op: "open", Locator: "/a.mp3", Err: base}
	assert.Equal(t, `engine open "/a.mp3": boom`, f.Error())
	assert.ErrorIs(t, f, base)

	f = &EngineFault{Op: "open audio device", Err: base}
	assert.Equal(t, "engine open audio device: boom", f.Error())
}

func TestLocatorPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"/music/a.mp3", "/music/a.mp3", false},
		{"file:///music/a%20b.mp3", "/music/a b.mp3", false},
		{"https://example.com/a.mp3", "", true},
	}
	for _, tt := range tests {
		got, err := LocatorPath(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("/a/b.MP3"))
	assert.True(t, IsSupported("x.flac"))
	assert.True(t, IsSupported("x.ogg"))
	assert.True(t, IsSupported("x.wav"))
	assert.False(t, IsSupported("x.m4a"))
	assert.False(t, IsSupported("noext"))
}

func TestDecode_Errors(t *testing.T) {
	_, err := decode("/music/song.m4a")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = decode(filepath.Join(t.TempDir(), "missing.mp3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlayer_SetQueueValidation(t *testing.T) {
	p := New()
	defer p.Release()

	assert.ErrorIs(t, p.SetQueue(nil, 0), ErrEmptyQueue)
	assert.ErrorIs(t, p.SetQueue([]Entry{{ItemID: "1"}}, 1), ErrEmptyQueue)
	assert.ErrorIs(t, p.SetQueue([]Entry{{ItemID: "1"}}, -1), ErrEmptyQueue)
	assert.Nil(t, p.Current())
}

func TestPlayer_SetQueueEmitsSelection(t *testing.T) {
	p := New()
	defer p.Release()

	entries := []Entry{
		{ItemID: "1", Locator: "/a.mp3", Duration: 3 * time.Minute},
		{ItemID: "2", Locator: "/b.mp3", Duration: 4 * time.Minute},
	}
	require.NoError(t, p.SetQueue(entries, 1))

	ev := recvEvent(t, p.Events())
	assert.Equal(t, "2", ev.CurrentItemID)
	assert.False(t, ev.IsPlaying)

	require.NotNil(t, p.Current())
	assert.Equal(t, "/b.mp3", p.Current().Locator)
	assert.Equal(t, 4*time.Minute, p.Duration())
	assert.Equal(t, Stopped, p.State())
}

func TestPlayer_PrepareUnsupportedEmitsFault(t *testing.T) {
	p := New()
	defer p.Release()

	require.NoError(t, p.SetQueue([]Entry{{ItemID: "1", Locator: "/music/a.m4a"}}, 0))
	recvEvent(t, p.Events())

	err := p.Prepare()
	var fault *EngineFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "/music/a.m4a", fault.Locator)

	ev := recvEvent(t, p.Events())
	assert.True(t, ev.Faulted())
	assert.False(t, ev.IsPlaying)
	assert.Equal(t, Stopped, p.State())
}

func TestPlayer_ReleaseClosesEvents(t *testing.T) {
	p := New()
	p.Release()
	p.Release()

	select {
	case _, ok := <-p.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestPlayer_LevelToVolume(t *testing.T) {
	p := &Player{}
	tests := []struct {
		level float64
		want  float64
	}{
		{1, 0},
		{0.5, -1},
		{0.25, -2},
		{0, -10},
		{-1, -10},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, p.levelToVolume(tt.level), 1e-9)
	}
}

func TestPlayer_SetVolumeClamps(t *testing.T) {
	p := New()
	defer p.Release()

	p.SetVolume(2)
	assert.InDelta(t, 1.0, p.Volume(), 1e-9)
	p.SetVolume(-1)
	assert.InDelta(t, 0.0, p.Volume(), 1e-9)
	p.SetMuted(true)
	assert.True(t, p.Muted())
}

func TestMock_CommandEvents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := NewMock()
		defer m.Release()

		entries := []Entry{{ItemID: "1", Locator: "/a.mp3"}, {ItemID: "2", Locator: "/b.mp3"}}
		if err := m.SetQueue(entries, 0); err != nil {
			t.Fatal(err)
		}
		if err := m.Prepare(); err != nil {
			t.Fatal(err)
		}
		m.Play()
		m.Pause()

		want := []Event{
			{CurrentItemID: "1"},
			{CurrentItemID: "1", IsPlaying: true},
			{CurrentItemID: "1"},
		}
		for i, w := range want {
			got := <-m.Events()
			if got != w {
				t.Errorf("event %d = %+v, want %+v", i, got, w)
			}
		}

		if got := m.Calls(); len(got) != 4 || got[3] != "Pause" {
			t.Errorf("Calls() = %v", got)
		}
	})
}

func TestMock_PrepareFault(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := NewMock()
		defer m.Release()
		m.PrepareErr = errors.New("decode failed")

		_ = m.SetQueue([]Entry{{ItemID: "1", Locator: "/a.mp3"}}, 0)
		<-m.Events()

		var fault *EngineFault
		if err := m.Prepare(); !errors.As(err, &fault) {
			t.Fatalf("Prepare() = %v, want EngineFault", err)
		}
		ev := <-m.Events()
		if !ev.Faulted() {
			t.Error("expected faulted event")
		}
	})
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("events closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func writeSilence(t *testing.T, path string, d time.Duration) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(format.SampleRate.N(d)), format))
}

func TestProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	writeSilence(t, path, 1500*time.Millisecond)

	d, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, err = Probe("file://" + path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, err = Probe(filepath.Join(t.TempDir(), "notes.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
